// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package lower

import (
	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/internal/errs"
)

// exprWidth infers the natural width of an AST expression (spec.md §4.3,
// "Width inference"). It is a separate recursive walk from lowerToStrands
// on purpose (spec.md §9 design note): collapsing the two makes the
// lowerer's control flow much harder to follow.
func (l *Lowerer) exprWidth(e ast.Expr) (int, *errs.Error) {
	switch n := e.(type) {
	case *ast.BundleLit:
		total := 0
		for _, elem := range n.Elems {
			w, err := l.exprWidth(elem)
			if err != nil {
				return 0, err
			}
			total += w
		}
		return total, nil
	case *ast.ChainExpr:
		if len(n.Stages) == 0 {
			return l.exprWidth(n.Base)
		}
		last := n.Stages[len(n.Stages)-1]
		return l.chainStageWidth(last)
	case *ast.Ident:
		if n.Name == meBundleName {
			return meWidth, nil
		}
		if w, ok := l.lookupWidth(n.Name); ok {
			return w, nil
		}
		if l.inSpindleParams(n.Name) {
			return 1, nil
		}
		// A bare identifier that names neither a bundle nor a param may
		// still be a zero-arg spindle call written without parens, or a
		// forward reference resolved in pass 2; treat as width 1 and let
		// lowering surface unknownIdentifier if it truly doesn't resolve.
		return 1, nil
	case *ast.CallExpr:
		return l.callWidth(n.Name)
	case *ast.ExtractExpr:
		return 1, nil
	default:
		return 1, nil
	}
}

// chainStageWidth counts the scalar outputs a chain stage produces,
// accounting for range expansion (spec.md §4.3.2): a range literal inside
// one output expression expands to multiple scalars. len(subs) is not
// known here, so ranges are resolved against an input width of 0: only a
// range whose endpoints are both non-negative literals is counted
// exactly.
func (l *Lowerer) chainStageWidth(stage ast.ChainStage) (int, *errs.Error) {
	total := 0
	for _, out := range stage.Outputs {
		n, err := l.rangeCountIn(out, 0)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// rangeCountIn returns how many scalars a single chain-stage output
// expression expands to: 1 unless it is itself a bare RangeExpr, in which
// case it is the range's length against subsWidth.
func (l *Lowerer) rangeCountIn(e ast.Expr, subsWidth int) (int, *errs.Error) {
	r, ok := e.(*ast.RangeExpr)
	if !ok {
		return 1, nil
	}
	lo, hi, err := l.resolveRangeBounds(r, subsWidth)
	if err != nil {
		return 0, err
	}
	if hi < lo {
		return 0, nil
	}
	return hi - lo + 1, nil
}

func (l *Lowerer) callWidth(name string) (int, *errs.Error) {
	if w, ok := resourceBuiltinWidth[name]; ok {
		return w, nil
	}
	if mathBuiltins[name] {
		return 1, nil
	}
	if w, ok := l.spindleWidth[name]; ok {
		return w, nil
	}
	return 0, errs.New(errs.UnknownSpindle, nil, "unknown spindle or builtin %q", name)
}

const meBundleName = "me"
