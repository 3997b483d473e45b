// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package lower

import (
	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/internal/errs"
)

// resolveRangeBounds resolves a..b against subsWidth (spec.md §4.3.2): an
// omitted endpoint defaults to 0 or subsWidth-1; a negative endpoint
// counts from the end.
func (l *Lowerer) resolveRangeBounds(r *ast.RangeExpr, subsWidth int) (int, int, *errs.Error) {
	lo, hi := 0, subsWidth-1
	if r.Lo != nil {
		v, err := l.constInt(r.Lo)
		if err != nil {
			return 0, 0, err
		}
		if v < 0 {
			v = subsWidth + v
		}
		lo = v
	}
	if r.Hi != nil {
		v, err := l.constInt(r.Hi)
		if err != nil {
			return 0, 0, err
		}
		if v < 0 {
			v = subsWidth + v
		}
		hi = v
	}
	return lo, hi, nil
}

func (l *Lowerer) constInt(e ast.Expr) (int, *errs.Error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		return int(n.Value), nil
	case *ast.UnaryExpr:
		if n.Op == "-" {
			v, err := l.constInt(n.X)
			if err != nil {
				return 0, err
			}
			return -v, nil
		}
	}
	return 0, errs.New(errs.InvalidExpression, e.Location(), "range endpoint must be a constant integer")
}
