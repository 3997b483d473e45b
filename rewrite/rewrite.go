// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rewrite implements the IR rewriter (C7, spec.md §4.7): spindle
// calls are inlined at every use site, substituting parameters with
// their (already-inlined) arguments and substituting the cache-target
// sentinel the lowerer (C3) leaves inside a spindle body with the
// concrete call site the value ultimately flows into.
//
// The other two rewrites spec.md §4.7 lists — spindle-local and global
// temporal-remap-to-cache conversion — are performed eagerly by the
// lowerer instead of here (see lower/expr.go's lowerRemapScalar); this
// package only has inlining left to do.
package rewrite

import (
	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/ir"
)

// cacheTargetParam mirrors the sentinel name the lowerer uses; kept as
// an unexported constant here too since rewrite must never import lower
// (lower depends on nothing downstream of it).
const cacheTargetParam = "__cacheTarget"

// Run returns a copy of prog with every Call/Extract node naming a
// spindle inlined away. Spindle definitions are carried through
// unchanged (kept for diagnostics and the interpreter, which inlines
// calls on the fly using the same rules).
func Run(prog *ir.Program) (*ir.Program, *errs.Error) {
	out := &ir.Program{
		Bundles:       map[string]*ir.Bundle{},
		Spindles:      prog.Spindles,
		Resources:     prog.Resources,
		TextResources: prog.TextResources,
		Order:         prog.Order,
	}
	for name, b := range prog.Bundles {
		strands := make([]ir.Strand, len(b.Strands))
		for i, st := range b.Strands {
			target := &ir.Index{Bundle: name, IndexExpr: &ir.Num{Value: float64(st.Index)}}
			inlined, err := inlineExpr(prog, st.Expr, nil, target, map[string]bool{})
			if err != nil {
				return nil, err
			}
			strands[i] = ir.Strand{Name: st.Name, Index: st.Index, Expr: inlined}
		}
		out.Bundles[name] = &ir.Bundle{Name: name, Strands: strands}
	}
	return out, nil
}

// inlineExpr rewrites e bottom-up: subst carries the active spindle's
// parameter -> argument bindings (and, while inside a spindle body being
// inlined, the cache-target sentinel -> concrete call-site binding);
// target is the concrete bundle/strand the enclosing declaration is
// ultimately assigned to, the same target every nested call inlines
// against, matching spec.md §9's "a per-inlining mapping from
// local-target references to caller-target references".
func inlineExpr(prog *ir.Program, e ir.Expr, subst map[string]ir.Expr, target ir.Expr, visiting map[string]bool) (ir.Expr, *errs.Error) {
	switch n := e.(type) {
	case *ir.Num:
		return n, nil
	case *ir.Param:
		if repl, ok := subst[n.Name]; ok {
			return repl, nil
		}
		return n, nil
	case *ir.Index:
		if n.Bundle == ir.MeBundle {
			// me.<field>'s IndexExpr is always a literal field-name Param,
			// never a spindle parameter; never substitute through it even
			// if a parameter happens to share the field's name.
			return n, nil
		}
		idx, err := inlineExpr(prog, n.IndexExpr, subst, target, visiting)
		if err != nil {
			return nil, err
		}
		return &ir.Index{Bundle: n.Bundle, IndexExpr: idx}, nil
	case *ir.BinaryOp:
		l, err := inlineExpr(prog, n.Left, subst, target, visiting)
		if err != nil {
			return nil, err
		}
		r, err := inlineExpr(prog, n.Right, subst, target, visiting)
		if err != nil {
			return nil, err
		}
		return &ir.BinaryOp{Op: n.Op, Left: l, Right: r}, nil
	case *ir.UnaryOp:
		x, err := inlineExpr(prog, n.X, subst, target, visiting)
		if err != nil {
			return nil, err
		}
		return &ir.UnaryOp{Op: n.Op, X: x}, nil
	case *ir.Builtin:
		args, err := inlineArgs(prog, n.Args, subst, target, visiting)
		if err != nil {
			return nil, err
		}
		return &ir.Builtin{Name: n.Name, Args: args}, nil
	case *ir.Call:
		return inlineCall(prog, n, subst, target, visiting)
	case *ir.Extract:
		call, ok := n.Call.(*ir.Call)
		if !ok {
			return nil, errs.Internalf("rewrite", "", "extract over non-call node %T", n.Call)
		}
		return inlineExtract(prog, call, n.Index, subst, target, visiting)
	case *ir.Remap:
		base, err := inlineExpr(prog, n.Base, subst, target, visiting)
		if err != nil {
			return nil, err
		}
		subs := make(map[string]ir.Expr, len(n.Substitutions))
		for k, v := range n.Substitutions {
			rv, err := inlineExpr(prog, v, subst, target, visiting)
			if err != nil {
				return nil, err
			}
			subs[k] = rv
		}
		return &ir.Remap{Base: base, Substitutions: subs}, nil
	case *ir.CacheRead:
		return n, nil
	default:
		return nil, errs.Internalf("rewrite", "", "unhandled IR node %T", e)
	}
}

func inlineArgs(prog *ir.Program, args []ir.Expr, subst map[string]ir.Expr, target ir.Expr, visiting map[string]bool) ([]ir.Expr, *errs.Error) {
	out := make([]ir.Expr, len(args))
	for i, a := range args {
		v, err := inlineExpr(prog, a, subst, target, visiting)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// inlineCall inlines a width-1 spindle call directly (spec.md §4.7 rule
// 2, "single-return calls are inlined directly").
func inlineCall(prog *ir.Program, call *ir.Call, subst map[string]ir.Expr, target ir.Expr, visiting map[string]bool) (ir.Expr, *errs.Error) {
	sp, ok := prog.Spindles[call.Spindle]
	if !ok {
		return nil, errs.Internalf("rewrite", "", "call to unknown spindle %q", call.Spindle)
	}
	if len(sp.Returns) != 1 {
		return nil, errs.Internalf("rewrite", "", "bare call to multi-return spindle %q must be wrapped in extract", call.Spindle)
	}
	return inlineSpindleBody(prog, call, sp.Returns[0], subst, target, visiting)
}

// inlineExtract inlines one return slot of a multi-return spindle call
// (spec.md §4.7 rule 2, "multi-return calls are inlined per-extract").
func inlineExtract(prog *ir.Program, call *ir.Call, index int, subst map[string]ir.Expr, target ir.Expr, visiting map[string]bool) (ir.Expr, *errs.Error) {
	sp, ok := prog.Spindles[call.Spindle]
	if !ok {
		return nil, errs.Internalf("rewrite", "", "call to unknown spindle %q", call.Spindle)
	}
	if index < 0 || index >= len(sp.Returns) {
		return nil, errs.Internalf("rewrite", "", "return index %d out of range for spindle %q", index, call.Spindle)
	}
	return inlineSpindleBody(prog, call, sp.Returns[index], subst, target, visiting)
}

// inlineSpindleBody binds call's (already-outer-resolved) arguments to
// the callee's parameter names, binds the cache-target sentinel to
// target, and recursively inlines the resulting expression — so a
// spindle that itself calls other spindles is fully resolved in one
// pass.
func inlineSpindleBody(prog *ir.Program, call *ir.Call, body ir.Expr, outerSubst map[string]ir.Expr, target ir.Expr, visiting map[string]bool) (ir.Expr, *errs.Error) {
	if visiting[call.Spindle] {
		return nil, errs.New(errs.CircularDependency, nil, "spindle %q calls itself (directly or mutually) and cannot be inlined", call.Spindle)
	}
	sp := prog.Spindles[call.Spindle]
	args, err := inlineArgs(prog, call.Args, outerSubst, target, visiting)
	if err != nil {
		return nil, err
	}
	inner := make(map[string]ir.Expr, len(sp.Params)+1)
	for i, p := range sp.Params {
		if i < len(args) {
			inner[p] = args[i]
		}
	}
	inner[cacheTargetParam] = target

	nextVisiting := make(map[string]bool, len(visiting)+1)
	for k := range visiting {
		nextVisiting[k] = true
	}
	nextVisiting[call.Spindle] = true

	return inlineExpr(prog, body, inner, target, nextVisiting)
}
