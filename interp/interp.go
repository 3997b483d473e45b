// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package interp implements the CPU IR interpreter (C9, spec.md §4.9):
// a reference evaluator used by tests and by the offline preview tool,
// not by any production visual/audio backend.
package interp

import (
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/weft-lang/weft/ir"
)

// callCacheSize bounds the per-Eval-call memoization cache below, so a
// pathological program with deep or wide spindle recursion cannot grow
// the cache without bound within a single evaluation.
const callCacheSize = 256

// cacheTargetParam mirrors the sentinel lower and rewrite use for an
// as-yet-unresolved cache target; interpreting a program straight out of
// the lowerer (before rewrite.Run has run) can still encounter it.
const cacheTargetParam = "__cacheTarget"

// Interpreter evaluates expressions against a fixed program. It holds no
// mutable state of its own: every Eval call is independent, matching the
// core's synchronous, stateless contract (spec.md §5).
type Interpreter struct {
	prog *ir.Program
}

// New returns an Interpreter bound to prog. prog may be the output of
// lower.Lower, rewrite.Run, or cache.Run: the evaluator tolerates
// whichever IR shapes remain at each stage (unresolved cache-target
// sentinels, cache builtins, or cacheRead nodes).
func New(prog *ir.Program) *Interpreter {
	return &Interpreter{prog: prog}
}

// Eval evaluates e against coordinates, a named me.* coordinate map
// (spec.md §6.4's `interpret(program, expr, coords) -> f64`). Missing
// coordinate names evaluate to 0.
func (in *Interpreter) Eval(e ir.Expr, coordinates map[string]float64) float64 {
	cache, _ := lru.New[string, float64](callCacheSize)
	ctx := evalCtx{coords: coordinates, visiting: map[string]bool{}, calls: cache}
	return eval(in.prog, e, ctx)
}

// EvalStrand evaluates the named strand of bundle against coordinates, a
// convenience wrapper for previewing a whole bundle without callers
// having to dig an Expr out of the program themselves.
func (in *Interpreter) EvalStrand(bundle string, strandIndex int, coordinates map[string]float64) (float64, error) {
	b, ok := in.prog.Bundles[bundle]
	if !ok {
		return 0, fmt.Errorf("interp: unknown bundle %q", bundle)
	}
	for _, st := range b.Strands {
		if st.Index == strandIndex {
			return in.Eval(st.Expr, coordinates), nil
		}
	}
	return 0, fmt.Errorf("interp: bundle %q has no strand %d", bundle, strandIndex)
}

// evalCtx carries the state threaded through one evaluation: coords is
// the caller-supplied me.* map (never changes); params is the active
// spindle parameter scope, non-nil only while evaluating inside an
// inlined call body; visiting is the set of "bundle.index" keys
// currently being evaluated higher up the call stack, guarding against
// the residual cycles a self-referencing temporal strand would
// otherwise create (spec.md §4.9: "returns 0 on re-entry").
type evalCtx struct {
	coords   map[string]float64
	params   map[string]float64
	visiting map[string]bool
	calls    *lru.Cache[string, float64]
}

func eval(prog *ir.Program, e ir.Expr, ctx evalCtx) float64 {
	switch n := e.(type) {
	case *ir.Num:
		return n.Value
	case *ir.Param:
		if n.Name == cacheTargetParam {
			return 0
		}
		if v, ok := ctx.params[n.Name]; ok {
			return v
		}
		return ctx.coords[n.Name]
	case *ir.Index:
		return evalIndex(prog, n, ctx)
	case *ir.BinaryOp:
		return evalBinary(n.Op, eval(prog, n.Left, ctx), eval(prog, n.Right, ctx))
	case *ir.UnaryOp:
		return evalUnary(n.Op, eval(prog, n.X, ctx))
	case *ir.Builtin:
		return evalBuiltin(prog, n, ctx)
	case *ir.Call:
		return evalCall(prog, n, 0, ctx)
	case *ir.Extract:
		call, ok := n.Call.(*ir.Call)
		if !ok {
			return 0
		}
		return evalCall(prog, call, n.Index, ctx)
	case *ir.Remap:
		return evalRemap(prog, n, ctx)
	case *ir.CacheRead:
		// The interpreter keeps no frame history; a cache read has
		// nothing to read yet (spec.md §4.9's "no history available").
		return 0
	default:
		return 0
	}
}

func evalIndex(prog *ir.Program, n *ir.Index, ctx evalCtx) float64 {
	if n.Bundle == ir.MeBundle {
		field, ok := n.IndexExpr.(*ir.Param)
		if !ok {
			return 0
		}
		return ctx.coords[field.Name]
	}
	b, ok := prog.Bundles[n.Bundle]
	if !ok {
		return 0
	}
	idx := int(eval(prog, n.IndexExpr, ctx))
	key := n.Bundle + "." + strconv.Itoa(idx)
	if v, ok := ctx.coords[key]; ok {
		return v
	}
	if ctx.visiting[key] {
		return 0
	}
	var target *ir.Strand
	for i := range b.Strands {
		if b.Strands[i].Index == idx {
			target = &b.Strands[i]
			break
		}
	}
	if target == nil {
		return 0
	}
	nextVisiting := make(map[string]bool, len(ctx.visiting)+1)
	for k := range ctx.visiting {
		nextVisiting[k] = true
	}
	nextVisiting[key] = true
	return eval(prog, target.Expr, evalCtx{coords: ctx.coords, params: nil, visiting: nextVisiting, calls: ctx.calls})
}

// evalCall inlines spindle on the fly (spec.md §4.9: "call and extract
// over a spindle inline the return expression ... using the same
// parameter/index-substitution rules as C7"), evaluating returnIndex of
// the spindle named by call.
func evalCall(prog *ir.Program, call *ir.Call, returnIndex int, ctx evalCtx) float64 {
	sp, ok := prog.Spindles[call.Spindle]
	if !ok || returnIndex < 0 || returnIndex >= len(sp.Returns) {
		return 0
	}
	params := make(map[string]float64, len(sp.Params))
	key := call.Spindle + "#" + strconv.Itoa(returnIndex)
	for i, p := range sp.Params {
		if i < len(call.Args) {
			params[p] = eval(prog, call.Args[i], ctx)
			key += fmt.Sprintf(",%s=%v", p, params[p])
		}
	}
	// Memoization is only sound while no bundle self-reference is being
	// unwound (len(ctx.visiting) == 0): inside a cycle, two calls with
	// identical arguments can still legitimately see different results
	// depending on how deep the cycle guard has already truncated the
	// call stack, so the cache is skipped there.
	memoize := ctx.calls != nil && len(ctx.visiting) == 0
	if memoize {
		if v, ok := ctx.calls.Get(key); ok {
			return v
		}
	}
	result := eval(prog, sp.Returns[returnIndex], evalCtx{coords: ctx.coords, params: params, visiting: ctx.visiting, calls: ctx.calls})
	if memoize {
		ctx.calls.Add(key, result)
	}
	return result
}

func evalRemap(prog *ir.Program, n *ir.Remap, ctx evalCtx) float64 {
	// The lowerer substitutes remaps away itself, so Remap nodes reach
	// the interpreter only in IR built or decoded directly. Each
	// substitution value is placed in the coordinate map under its
	// "bundle.N" key, where evalIndex reads it in place of that strand
	// while the base is evaluated.
	overrides := make(map[string]float64, len(n.Substitutions))
	for k, sub := range n.Substitutions {
		overrides[k] = eval(prog, sub, ctx)
	}
	merged := make(map[string]float64, len(ctx.coords)+len(overrides))
	for k, v := range ctx.coords {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return eval(prog, n.Base, evalCtx{coords: merged, params: ctx.params, visiting: ctx.visiting, calls: ctx.calls})
}
