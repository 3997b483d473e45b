// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package lower

import (
	"strconv"

	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/ir"
)

// cacheTargetParam is the sentinel carried by a cache builtin's first
// argument while it sits inside a spindle body; the inliner (rewrite
// package) replaces it with the concrete caller bundle/strand once the
// spindle is inlined at a use site.
const cacheTargetParam = "__cacheTarget"

// lowerToStrands lowers e into its scalar IR expressions (spec.md §4.3
// "lowerToStrands"). expectedWidth is not checked here; bundle
// declarations compare the result's length with their outputs. subs is
// the previous chain stage's lowered values, or nil outside a chain
// pattern.
func (l *Lowerer) lowerToStrands(e ast.Expr, expectedWidth int, subs []ir.Expr) ([]ir.Expr, *errs.Error) {
	switch n := e.(type) {
	case *ast.BundleLit:
		var out []ir.Expr
		for _, elem := range n.Elems {
			w, werr := l.exprWidth(elem)
			if werr != nil {
				return nil, werr
			}
			vals, err := l.lowerToStrands(elem, w, subs)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	case *ast.ChainExpr:
		return l.lowerChain(n, subs)
	case *ast.Ident:
		return l.lowerIdentToStrands(n)
	case *ast.CallExpr:
		return l.lowerCallToStrands(n, subs)
	case *ast.RemapExpr:
		return l.lowerRemapToStrands(n, subs)
	default:
		v, err := l.lowerExpr(e, subs)
		if err != nil {
			return nil, err
		}
		return []ir.Expr{v}, nil
	}
}

func (l *Lowerer) lowerIdentToStrands(n *ast.Ident) ([]ir.Expr, *errs.Error) {
	if n.Name == meBundleName {
		out := make([]ir.Expr, len(meFieldOrder))
		for i, field := range meFieldOrder {
			out[i] = &ir.Index{Bundle: meBundleName, IndexExpr: &ir.Param{Name: field}}
		}
		return out, nil
	}
	if width, ok := l.lookupWidth(n.Name); ok {
		out := make([]ir.Expr, width)
		for i := 0; i < width; i++ {
			out[i] = &ir.Index{Bundle: n.Name, IndexExpr: &ir.Num{Value: float64(i)}}
		}
		return out, nil
	}
	if l.inSpindleParams(n.Name) {
		return []ir.Expr{&ir.Param{Name: n.Name}}, nil
	}
	return nil, errs.New(errs.UnknownIdentifier, n.Loc, "unknown identifier %q", n.Name)
}

// lowerExpr lowers e to a single scalar IR expression.
func (l *Lowerer) lowerExpr(e ast.Expr, subs []ir.Expr) (ir.Expr, *errs.Error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		return &ir.Num{Value: n.Value}, nil
	case *ast.StringLit:
		return nil, errs.New(errs.InvalidExpression, n.Loc, "a string literal may only appear as the path argument of a resource builtin")
	case *ast.Ident:
		vals, err := l.lowerIdentToStrands(n)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, errs.New(errs.WidthMismatch, n.Loc, "%q has width %d, expected a scalar", n.Name, len(vals))
		}
		return vals[0], nil
	case *ast.StrandAccess:
		return l.lowerStrandAccess(n, subs)
	case *ast.BinaryExpr:
		left, err := l.lowerExpr(n.Left, subs)
		if err != nil {
			return nil, err
		}
		right, err := l.lowerExpr(n.Right, subs)
		if err != nil {
			return nil, err
		}
		return &ir.BinaryOp{Op: n.Op, Left: left, Right: right}, nil
	case *ast.UnaryExpr:
		x, err := l.lowerExpr(n.X, subs)
		if err != nil {
			return nil, err
		}
		return &ir.UnaryOp{Op: n.Op, X: x}, nil
	case *ast.CallExpr:
		vals, err := l.lowerCallToStrands(n, subs)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, errs.New(errs.WidthMismatch, n.Loc, "%q has width %d, expected a scalar", n.Name, len(vals))
		}
		return vals[0], nil
	case *ast.ExtractExpr:
		return l.lowerExtract(n, subs)
	case *ast.RemapExpr:
		return l.lowerRemapScalar(n, subs)
	case *ast.ChainExpr:
		vals, err := l.lowerChain(n, subs)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, errs.New(errs.WidthMismatch, n.Loc, "chain result has width %d, expected a scalar", len(vals))
		}
		return vals[0], nil
	case *ast.BundleLit:
		vals, err := l.lowerToStrands(n, 1, subs)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, errs.New(errs.WidthMismatch, n.Loc, "bundle literal has width %d, expected a scalar", len(vals))
		}
		return vals[0], nil
	case *ast.RangeExpr:
		return nil, errs.New(errs.RangeOutsidePattern, n.Loc, "a range literal may only appear inside a chain pattern")
	default:
		return nil, errs.New(errs.InvalidExpression, nil, "cannot lower expression of type %T", e)
	}
}

func (l *Lowerer) lowerExtract(n *ast.ExtractExpr, subs []ir.Expr) (ir.Expr, *errs.Error) {
	call, ok := n.Call.(*ast.CallExpr)
	if !ok {
		return nil, errs.New(errs.InvalidExpression, n.Loc, "%%N extraction is only valid on a call")
	}
	if isResourceBuiltin(call.Name) || mathBuiltins[call.Name] {
		vals, err := l.lowerCallToStrands(call, subs)
		if err != nil {
			return nil, err
		}
		if n.Index < 0 || n.Index >= len(vals) {
			return nil, errs.New(errs.RangeOutOfBounds, n.Loc, "%s.%d out of range for width %d", call.Name, n.Index, len(vals))
		}
		return vals[n.Index], nil
	}
	width, ok := l.spindleWidth[call.Name]
	if !ok {
		return nil, errs.New(errs.UnknownSpindle, call.Loc, "unknown spindle %q", call.Name)
	}
	if n.Index < 0 || n.Index >= width {
		return nil, errs.New(errs.RangeOutOfBounds, n.Loc, "%s.%d out of range for width %d", call.Name, n.Index, width)
	}
	args, err := l.lowerArgs(call.Args, subs)
	if err != nil {
		return nil, err
	}
	return &ir.Extract{Call: &ir.Call{Spindle: call.Name, Args: args}, Index: n.Index}, nil
}

func (l *Lowerer) lowerArgs(args []ast.Expr, subs []ir.Expr) ([]ir.Expr, *errs.Error) {
	out := make([]ir.Expr, len(args))
	for i, a := range args {
		e, err := l.lowerExpr(a, subs)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (l *Lowerer) lowerCallToStrands(n *ast.CallExpr, subs []ir.Expr) ([]ir.Expr, *errs.Error) {
	if isResourceBuiltin(n.Name) {
		return l.lowerResourceBuiltin(n, subs)
	}
	if mathBuiltins[n.Name] {
		args, err := l.lowerArgs(n.Args, subs)
		if err != nil {
			return nil, err
		}
		return []ir.Expr{&ir.Builtin{Name: n.Name, Args: args}}, nil
	}
	width, ok := l.spindleWidth[n.Name]
	if !ok {
		return nil, errs.New(errs.UnknownSpindle, n.Loc, "unknown spindle or builtin %q", n.Name)
	}
	args, err := l.lowerArgs(n.Args, subs)
	if err != nil {
		return nil, err
	}
	call := &ir.Call{Spindle: n.Name, Args: args}
	if width == 1 {
		return []ir.Expr{call}, nil
	}
	out := make([]ir.Expr, width)
	for i := 0; i < width; i++ {
		out[i] = &ir.Extract{Call: call, Index: i}
	}
	return out, nil
}

// lowerResourceBuiltin lowers a fixed-width hardware/resource call into
// one builtin node per channel (spec.md §4.3.4): each node carries the
// interned resource id (if any), the shared arguments, and its own
// channel number as the trailing argument.
func (l *Lowerer) lowerResourceBuiltin(n *ast.CallExpr, subs []ir.Expr) ([]ir.Expr, *errs.Error) {
	width := resourceBuiltinWidth[n.Name]
	args := n.Args
	var resourceIdx ir.Expr
	if resourcePathBuiltins[n.Name] {
		if len(args) == 0 {
			return nil, errs.New(errs.InvalidExpression, n.Loc, "%s requires a path argument", n.Name)
		}
		str, ok := args[0].(*ast.StringLit)
		if !ok {
			return nil, errs.New(errs.InvalidExpression, n.Loc, "%s path argument must be a string literal", n.Name)
		}
		resourceIdx = &ir.Num{Value: float64(l.internResource(n.Name, str.Value))}
		args = args[1:]
	}
	lowered, err := l.lowerArgs(args, subs)
	if err != nil {
		return nil, err
	}
	if n.Name == "load" && len(lowered) == 0 {
		lowered = []ir.Expr{
			&ir.Index{Bundle: meBundleName, IndexExpr: &ir.Param{Name: "x"}},
			&ir.Index{Bundle: meBundleName, IndexExpr: &ir.Param{Name: "y"}},
		}
	}
	baseArgs := lowered
	if resourceIdx != nil {
		baseArgs = append([]ir.Expr{resourceIdx}, lowered...)
	}
	out := make([]ir.Expr, width)
	for c := 0; c < width; c++ {
		callArgs := make([]ir.Expr, len(baseArgs)+1)
		copy(callArgs, baseArgs)
		callArgs[len(baseArgs)] = &ir.Num{Value: float64(c)}
		out[c] = &ir.Builtin{Name: n.Name, Args: callArgs}
	}
	return out, nil
}

func (l *Lowerer) internResource(builtin, path string) int {
	if builtin == "text" {
		if idx, ok := l.textResourceIndex[path]; ok {
			return idx
		}
		idx := len(l.textResources)
		l.textResources = append(l.textResources, path)
		l.textResourceIndex[path] = idx
		return idx
	}
	if idx, ok := l.resourceIndex[path]; ok {
		return idx
	}
	idx := len(l.resources)
	l.resources = append(l.resources, path)
	l.resourceIndex[path] = idx
	return idx
}

// lowerStrandAccess resolves `base.accessor` / bare `.accessor` (spec.md
// §4.3 "Strand access resolution").
func (l *Lowerer) lowerStrandAccess(n *ast.StrandAccess, subs []ir.Expr) (ir.Expr, *errs.Error) {
	if n.Base == nil {
		if subs == nil {
			return nil, errs.New(errs.BareStrandOutsidePattern, n.Loc, "bare strand access is only valid inside a chain pattern")
		}
		idx, err := l.resolveAccessorIndex(n.Accessor, len(subs), nil)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(subs) {
			return nil, errs.New(errs.RangeOutOfBounds, n.Loc, "strand index %d out of range for width %d", idx, len(subs))
		}
		return subs[idx], nil
	}
	if ident, ok := n.Base.(*ast.Ident); ok {
		if ident.Name == meBundleName {
			if n.Accessor.Named == "" {
				return nil, errs.New(errs.InvalidExpression, n.Loc, "me must be accessed by name")
			}
			if _, ok := meIndex[n.Accessor.Named]; !ok {
				return nil, errs.New(errs.UnknownStrand, n.Loc, "me has no field %q", n.Accessor.Named)
			}
			return &ir.Index{Bundle: meBundleName, IndexExpr: &ir.Param{Name: n.Accessor.Named}}, nil
		}
		if width, ok := l.lookupWidth(ident.Name); ok {
			idx, err := l.resolveAccessorIndex(n.Accessor, width, l.lookupStrandIndex(ident.Name))
			if err != nil {
				return nil, err
			}
			return &ir.Index{Bundle: ident.Name, IndexExpr: &ir.Num{Value: float64(idx)}}, nil
		}
		if l.curSpindle != "" && ident.Name == l.curSpindle {
			// Self-reference to this spindle's own (single) return value,
			// only meaningful inside a temporal remap; see lowerRemapScalar.
			return &ir.Index{Bundle: ident.Name, IndexExpr: &ir.Num{Value: 0}}, nil
		}
		return nil, errs.New(errs.UnknownBundle, ident.Loc, "unknown bundle %q", ident.Name)
	}
	w, werr := l.exprWidth(n.Base)
	if werr != nil {
		return nil, werr
	}
	vals, err := l.lowerToStrands(n.Base, w, subs)
	if err != nil {
		return nil, err
	}
	idx, err := l.resolveAccessorIndex(n.Accessor, len(vals), nil)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(vals) {
		return nil, errs.New(errs.RangeOutOfBounds, n.Loc, "strand index %d out of range for width %d", idx, len(vals))
	}
	return vals[idx], nil
}

func (l *Lowerer) resolveAccessorIndex(acc ast.Accessor, width int, names map[string]int) (int, *errs.Error) {
	if acc.Named != "" {
		if names != nil {
			if i, ok := names[acc.Named]; ok {
				return i, nil
			}
		}
		return 0, errs.New(errs.UnknownStrand, nil, "unknown strand %q", acc.Named)
	}
	if acc.HasIndex {
		i := acc.Index
		if i < 0 {
			i = width + i
		}
		if i < 0 || i >= width {
			return 0, errs.New(errs.RangeOutOfBounds, nil, "strand index %d out of range for width %d", acc.Index, width)
		}
		return i, nil
	}
	if acc.Computed != nil {
		i, err := l.constInt(acc.Computed)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			i = width + i
		}
		if i < 0 || i >= width {
			return 0, errs.New(errs.RangeOutOfBounds, nil, "computed strand index %d out of range for width %d", i, width)
		}
		return i, nil
	}
	return 0, errs.New(errs.InvalidExpression, nil, "strand accessor missing a selector")
}

func (l *Lowerer) lowerChain(n *ast.ChainExpr, subs []ir.Expr) ([]ir.Expr, *errs.Error) {
	baseWidth, werr := l.exprWidth(n.Base)
	if werr != nil {
		return nil, werr
	}
	cur, err := l.lowerToStrands(n.Base, baseWidth, subs)
	if err != nil {
		return nil, err
	}
	for _, stage := range n.Stages {
		var next []ir.Expr
		for _, out := range stage.Outputs {
			vals, err := l.expandChainOutput(out, cur)
			if err != nil {
				return nil, err
			}
			next = append(next, vals...)
		}
		cur = next
	}
	return cur, nil
}

func (l *Lowerer) expandChainOutput(out ast.Expr, subs []ir.Expr) ([]ir.Expr, *errs.Error) {
	if r, ok := out.(*ast.RangeExpr); ok {
		lo, hi, err := l.resolveRangeBounds(r, len(subs))
		if err != nil {
			return nil, err
		}
		if hi < lo || lo < 0 || hi >= len(subs) {
			return nil, errs.New(errs.RangeOutOfBounds, r.Loc, "range %d..%d out of bounds for width %d", lo, hi, len(subs))
		}
		vals := make([]ir.Expr, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			vals = append(vals, subs[i])
		}
		return vals, nil
	}
	e, err := l.lowerExpr(out, subs)
	if err != nil {
		return nil, err
	}
	return []ir.Expr{e}, nil
}

// lowerRemapSubs lowers each (dom ~ expr) pair, requiring dom to resolve
// to index(bundle, num(i)) (spec.md §4.3 "Remap").
func (l *Lowerer) lowerRemapSubs(rsubs []ast.RemapSub, chainSubs []ir.Expr) (map[string]ir.Expr, *errs.Error) {
	out := map[string]ir.Expr{}
	for _, rs := range rsubs {
		domExpr, err := l.lowerExpr(rs.Dom, chainSubs)
		if err != nil {
			return nil, err
		}
		idx, ok := domExpr.(*ir.Index)
		if !ok {
			return nil, errs.New(errs.InvalidRemapArg, rs.Dom.Location(), "remap target must be a strand access")
		}
		num, ok := idx.IndexExpr.(*ir.Num)
		if !ok {
			return nil, errs.New(errs.InvalidRemapArg, rs.Dom.Location(), "remap target %q must resolve to a literal strand index", idx.Bundle)
		}
		repl, err := l.lowerExpr(rs.Expr, chainSubs)
		if err != nil {
			return nil, err
		}
		out[idx.Bundle+"."+strconv.Itoa(int(num.Value))] = repl
	}
	return out, nil
}

// lowerRemapScalar lowers a remap over a single strand (spec.md §4.3
// "For a bare-strand base, apply the substitution directly in place").
// A remap whose target is `me.t`/`me.i` shifted by a constant is the
// temporal-remap-to-cache pattern (spec.md §4.7 rule 1); this lowerer
// recognizes it eagerly rather than deferring to a later rewrite pass.
func (l *Lowerer) lowerRemapScalar(n *ast.RemapExpr, subs []ir.Expr) (ir.Expr, *errs.Error) {
	if len(n.Subs) == 1 {
		if domExpr, err := l.lowerExpr(n.Subs[0].Dom, subs); err == nil {
			if idx, ok := domExpr.(*ir.Index); ok && idx.Bundle == meBundleName {
				if _, isParam := idx.IndexExpr.(*ir.Param); isParam {
					subExpr, err2 := l.lowerExpr(n.Subs[0].Expr, subs)
					if err2 != nil {
						return nil, err2
					}
					tap, ok2 := extractTapOffset(idx, subExpr)
					if !ok2 {
						return nil, errs.New(errs.InvalidRemapArg, n.Loc, "temporal remap must shift me.t/me.i by a constant")
					}
					target, err3 := l.lowerTemporalBase(n.Base, subs)
					if err3 != nil {
						return nil, err3
					}
					return &ir.Builtin{Name: "cache", Args: []ir.Expr{target, &ir.Num{Value: float64(tap)}}}, nil
				}
			}
		}
	}
	subMap, err := l.lowerRemapSubs(n.Subs, subs)
	if err != nil {
		return nil, err
	}
	base, err := l.lowerExpr(n.Base, subs)
	if err != nil {
		return nil, err
	}
	return substituteIndices(base, subMap), nil
}

// lowerRemapToStrands handles a remap whose base names a whole bundle,
// producing one possibly-substituted strand per width (spec.md §4.3
// "For a bundle-backed base, produce remap(base, map)").
func (l *Lowerer) lowerRemapToStrands(n *ast.RemapExpr, subs []ir.Expr) ([]ir.Expr, *errs.Error) {
	ident, ok := n.Base.(*ast.Ident)
	if !ok || ident.Name == meBundleName {
		e, err := l.lowerRemapScalar(n, subs)
		if err != nil {
			return nil, err
		}
		return []ir.Expr{e}, nil
	}
	width, ok := l.lookupWidth(ident.Name)
	if !ok {
		return nil, errs.New(errs.UnknownBundle, ident.Loc, "unknown bundle %q", ident.Name)
	}
	subMap, err := l.lowerRemapSubs(n.Subs, subs)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Expr, width)
	for i := 0; i < width; i++ {
		key := ident.Name + "." + strconv.Itoa(i)
		if rep, ok := subMap[key]; ok {
			out[i] = rep
		} else {
			out[i] = &ir.Index{Bundle: ident.Name, IndexExpr: &ir.Num{Value: float64(i)}}
		}
	}
	return out, nil
}

// lowerTemporalBase lowers the base of a temporal remap: a self-reference
// inside the defining spindle becomes the cache-target sentinel, resolved
// later when the spindle call is inlined (rewrite package); any other
// base lowers normally, since it already names a concrete stateful
// strand whose current value the cache wraps.
func (l *Lowerer) lowerTemporalBase(e ast.Expr, subs []ir.Expr) (ir.Expr, *errs.Error) {
	if sa, ok := e.(*ast.StrandAccess); ok {
		if ident, ok2 := sa.Base.(*ast.Ident); ok2 && l.curSpindle != "" && ident.Name == l.curSpindle {
			return &ir.Param{Name: cacheTargetParam}, nil
		}
	}
	return l.lowerExpr(e, subs)
}

func extractTapOffset(dom *ir.Index, sub ir.Expr) (int, bool) {
	if isSameMeRef(dom, sub) {
		return 0, true
	}
	if bo, ok := sub.(*ir.BinaryOp); ok && bo.Op == "-" {
		if isSameMeRef(dom, bo.Left) {
			if num, ok2 := bo.Right.(*ir.Num); ok2 {
				return -int(num.Value), true
			}
		}
	}
	return 0, false
}

func isSameMeRef(dom *ir.Index, e ir.Expr) bool {
	idx, ok := e.(*ir.Index)
	if !ok || idx.Bundle != dom.Bundle {
		return false
	}
	p1, ok1 := idx.IndexExpr.(*ir.Param)
	p2, ok2 := dom.IndexExpr.(*ir.Param)
	return ok1 && ok2 && p1.Name == p2.Name
}

func substituteIndices(e ir.Expr, subMap map[string]ir.Expr) ir.Expr {
	if len(subMap) == 0 {
		return e
	}
	return ir.Transform(func(x ir.Expr) ir.Expr {
		if idx, ok := x.(*ir.Index); ok {
			if num, ok2 := idx.IndexExpr.(*ir.Num); ok2 {
				key := idx.Bundle + "." + strconv.Itoa(int(num.Value))
				if rep, ok3 := subMap[key]; ok3 {
					return rep
				}
			}
		}
		return x
	}, e)
}
