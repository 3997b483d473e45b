// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cache implements the cache analyzer (C8, spec.md §4.8):
// enumerating every cache builtin left behind by the rewriter, assigning
// it a stable index and history size, and cutting the self-reference
// that created it so the program's dependency graph becomes a DAG.
package cache

import (
	"math"
	"sort"

	"github.com/weft-lang/weft/annotate"
	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/ir"
)

// Run walks prog (already inlined by rewrite.Run) and returns a new
// program with every "cache" builtin replaced by a CacheRead node, plus
// the immutable list of descriptors those reads point at. ann must come
// from annotate.Run over the pre-rewrite program; domains are keyed by
// bundle name, which rewriting never changes.
func Run(prog *ir.Program, ann *annotate.Annotations) (*ir.Program, []ir.CacheDescriptor, *errs.Error) {
	out := &ir.Program{
		Bundles:       map[string]*ir.Bundle{},
		Spindles:      prog.Spindles,
		Resources:     prog.Resources,
		TextResources: prog.TextResources,
		Order:         prog.Order,
	}

	var descriptors []ir.CacheDescriptor
	names := bundleOrder(prog)
	for _, name := range names {
		b := prog.Bundles[name]
		strands := make([]ir.Strand, len(b.Strands))
		for i, st := range b.Strands {
			rewritten, err := rewriteCaches(name, st.Expr, ann, &descriptors)
			if err != nil {
				return nil, nil, err
			}
			strands[i] = ir.Strand{Name: st.Name, Index: st.Index, Expr: rewritten}
		}
		out.Bundles[name] = &ir.Bundle{Name: name, Strands: strands}
	}
	return out, descriptors, nil
}

// bundleOrder returns bundle names in a stable, deterministic order:
// prog.Order's declaration order if present, falling back to a sorted
// name list for any bundle Order omits (defensive; lower.Lower always
// populates Order for every declared bundle).
func bundleOrder(prog *ir.Program) []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range prog.Order {
		if !seen[e.Bundle] {
			seen[e.Bundle] = true
			names = append(names, e.Bundle)
		}
	}
	var rest []string
	for name := range prog.Bundles {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// rewriteCaches rewrites e bottom-up, replacing every builtin("cache",
// target, tap) node with an ir.CacheRead and appending its descriptor to
// *descriptors. bundleName is the bundle the strand containing e
// belongs to, used to compute hasSelfReference and as the descriptor's
// fallback source bundle.
func rewriteCaches(bundleName string, e ir.Expr, ann *annotate.Annotations, descriptors *[]ir.CacheDescriptor) (ir.Expr, *errs.Error) {
	switch n := e.(type) {
	case *ir.Num, *ir.Param, *ir.CacheRead:
		return n, nil
	case *ir.Index:
		idx, err := rewriteCaches(bundleName, n.IndexExpr, ann, descriptors)
		if err != nil {
			return nil, err
		}
		return &ir.Index{Bundle: n.Bundle, IndexExpr: idx}, nil
	case *ir.BinaryOp:
		l, err := rewriteCaches(bundleName, n.Left, ann, descriptors)
		if err != nil {
			return nil, err
		}
		r, err := rewriteCaches(bundleName, n.Right, ann, descriptors)
		if err != nil {
			return nil, err
		}
		return &ir.BinaryOp{Op: n.Op, Left: l, Right: r}, nil
	case *ir.UnaryOp:
		x, err := rewriteCaches(bundleName, n.X, ann, descriptors)
		if err != nil {
			return nil, err
		}
		return &ir.UnaryOp{Op: n.Op, X: x}, nil
	case *ir.Builtin:
		if n.Name == "cache" {
			return makeCacheRead(bundleName, n, ann, descriptors)
		}
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			v, err := rewriteCaches(bundleName, a, ann, descriptors)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return &ir.Builtin{Name: n.Name, Args: args}, nil
	case *ir.Remap:
		base, err := rewriteCaches(bundleName, n.Base, ann, descriptors)
		if err != nil {
			return nil, err
		}
		subs := make(map[string]ir.Expr, len(n.Substitutions))
		for k, v := range n.Substitutions {
			rv, err := rewriteCaches(bundleName, v, ann, descriptors)
			if err != nil {
				return nil, err
			}
			subs[k] = rv
		}
		return &ir.Remap{Base: base, Substitutions: subs}, nil
	case *ir.Call, *ir.Extract:
		return nil, errs.Internalf("cache", bundleName, "unresolved call/extract reached the cache analyzer; rewrite must run first")
	default:
		return nil, errs.Internalf("cache", bundleName, "unhandled IR node %T", e)
	}
}

// makeCacheRead builds the CacheDescriptor for one cache builtin
// occurrence, appends it to *descriptors and returns the CacheRead node
// that replaces the occurrence.
func makeCacheRead(bundleName string, n *ir.Builtin, ann *annotate.Annotations, descriptors *[]ir.CacheDescriptor) (ir.Expr, *errs.Error) {
	if len(n.Args) != 2 {
		return nil, errs.Internalf("cache", bundleName, "cache builtin takes exactly 2 args, got %d", len(n.Args))
	}
	target, ok := n.Args[0].(*ir.Index)
	if !ok {
		return nil, errs.Internalf("cache", bundleName, "cache target must be a concrete bundle reference, got %#v", n.Args[0])
	}
	tapNum, ok := n.Args[1].(*ir.Num)
	if !ok {
		return nil, errs.Internalf("cache", bundleName, "cache tap must be a numeric literal, got %#v", n.Args[1])
	}
	strandIndex := 0
	if idx, ok := target.IndexExpr.(*ir.Num); ok {
		strandIndex = int(idx.Value)
	}
	tap := int(tapNum.Value)

	domain := ann.Domain[target.Bundle]
	if domain == "" {
		domain = ann.Domain[bundleName]
	}

	index := len(*descriptors)
	*descriptors = append(*descriptors, ir.CacheDescriptor{
		Index:            index,
		Bundle:           target.Bundle,
		StrandIndex:      strandIndex,
		Domain:           domain,
		HistorySize:      historySize(tap),
		Tap:              tap,
		HasSelfReference: target.Bundle == bundleName,
	})
	return &ir.CacheRead{CacheIndex: index, TapOffset: tap}, nil
}

// historySize rounds the absolute tap distance up to a power of two, at
// least 2 (spec.md §4.8 and §9's explicit resolution of the otherwise
// open rounding rule).
func historySize(tap int) int {
	n := tap
	if n < 0 {
		n = -n
	}
	if n < 2 {
		return 2
	}
	return int(math.Exp2(math.Ceil(math.Log2(float64(n)))))
}
