// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

// Visitor is called for every Expr node reached while walking, in
// pre-order. Returning false skips the node's children.
type Visitor func(Expr) bool

// Walk invokes vis for x and, unless vis returns false, recurses into
// every child expression. Used by FreeBundleRefs (and through it the
// dependency graph (C4) and the lowerer's topological sort) and by the
// annotation pass (C5) to scan strand expressions uniformly.
func Walk(vis Visitor, x Expr) {
	if x == nil || !vis(x) {
		return
	}
	switch n := x.(type) {
	case *Num, *Param:
		// leaves
	case *Index:
		Walk(vis, n.IndexExpr)
	case *BinaryOp:
		Walk(vis, n.Left)
		Walk(vis, n.Right)
	case *UnaryOp:
		Walk(vis, n.X)
	case *Builtin:
		for _, a := range n.Args {
			Walk(vis, a)
		}
	case *Call:
		for _, a := range n.Args {
			Walk(vis, a)
		}
	case *Extract:
		Walk(vis, n.Call)
	case *Remap:
		Walk(vis, n.Base)
		for _, sub := range n.Substitutions {
			Walk(vis, sub)
		}
	case *CacheRead:
		// leaf
	}
}

// Transform rewrites x and its children bottom-up: children are
// transformed first, then fn is applied to the (possibly already
// rewritten) node. Interior nodes are copied, so x itself is left
// unchanged. Used by the lowerer to substitute remapped strand indices.
func Transform(fn func(Expr) Expr, x Expr) Expr {
	if x == nil {
		return nil
	}
	switch n := x.(type) {
	case *Num, *Param, *CacheRead:
		return fn(x)
	case *Index:
		cp := *n
		cp.IndexExpr = Transform(fn, n.IndexExpr)
		return fn(&cp)
	case *BinaryOp:
		cp := *n
		cp.Left = Transform(fn, n.Left)
		cp.Right = Transform(fn, n.Right)
		return fn(&cp)
	case *UnaryOp:
		cp := *n
		cp.X = Transform(fn, n.X)
		return fn(&cp)
	case *Builtin:
		cp := *n
		cp.Args = make([]Expr, len(n.Args))
		for i, a := range n.Args {
			cp.Args[i] = Transform(fn, a)
		}
		return fn(&cp)
	case *Call:
		cp := *n
		cp.Args = make([]Expr, len(n.Args))
		for i, a := range n.Args {
			cp.Args[i] = Transform(fn, a)
		}
		return fn(&cp)
	case *Extract:
		cp := *n
		cp.Call = Transform(fn, n.Call)
		return fn(&cp)
	case *Remap:
		cp := *n
		cp.Substitutions = make(map[string]Expr, len(n.Substitutions))
		for k, v := range n.Substitutions {
			cp.Substitutions[k] = Transform(fn, v)
		}
		cp.Base = Transform(fn, n.Base)
		return fn(&cp)
	default:
		return fn(x)
	}
}

// FreeBundleRefs returns the set of bundle names (excluding "me" and
// selfName) referenced anywhere under x, used by the dependency graph
// (C4) and topological sort (§4.3.5). Strand-qualified refs are reported
// as "bundle.idx" when the index is a literal number, and as "bundle"
// otherwise (a computed or param index can't be resolved to one strand
// statically).
func FreeBundleRefs(x Expr, selfName string) map[string]bool {
	refs := map[string]bool{}
	Walk(func(e Expr) bool {
		if idx, ok := e.(*Index); ok && idx.Bundle != MeBundle && idx.Bundle != selfName {
			if n, ok := idx.IndexExpr.(*Num); ok {
				refs[idx.Bundle+"."+itoa(int(n.Value))] = true
			} else {
				refs[idx.Bundle] = true
			}
		}
		return true
	}, x)
	return refs
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
