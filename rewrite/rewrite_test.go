// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rewrite

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/ir"
	"github.com/weft-lang/weft/lower"
)

func mustRewrite(t *testing.T, src string) *ir.Program {
	t.Helper()
	p, err := ast.Parse(src, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	prog, lerr := lower.Lower(p)
	if lerr != nil {
		t.Fatalf("lower error: %v", lerr)
	}
	out, rerr := Run(prog)
	if rerr != nil {
		t.Fatalf("rewrite error: %v", rerr)
	}
	return out
}

// exprHasCall reports whether e (or any subexpression) still contains a
// Call or Extract node, i.e. whether inlining left something behind.
func exprHasCall(e ir.Expr) bool {
	found := false
	ir.Walk(func(x ir.Expr) bool {
		if found {
			return false
		}
		switch x.(type) {
		case *ir.Call, *ir.Extract:
			found = true
			return false
		}
		return true
	}, e)
	return found
}

func TestInlineSingleReturnSpindle(t *testing.T) {
	src := `
spindle square(x) { return.0 = x * x }
sig.v = square(me.x)
`
	prog := mustRewrite(t, src)
	b := prog.Bundles["sig"]
	if b == nil || len(b.Strands) != 1 {
		t.Fatalf("missing sig bundle: %+v", prog.Bundles)
	}
	if exprHasCall(b.Strands[0].Expr) {
		t.Errorf("sig.v still contains a call after inlining: %#v", b.Strands[0].Expr)
	}
	arg := &ir.Index{Bundle: ir.MeBundle, IndexExpr: &ir.Param{Name: "x"}}
	want := &ir.BinaryOp{Op: "*", Left: arg, Right: arg}
	if diff := cmp.Diff(want, b.Strands[0].Expr); diff != "" {
		t.Fatalf("inlined sig.v mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineSubstitutesCacheTargetWithCallSite(t *testing.T) {
	src := `
spindle lp(x, a) { return.0 = x * a + lp.v(me.t ~ me.t - 1) * (1 - a) }
sig.v = lp(me.x, 0.1)
`
	prog := mustRewrite(t, src)
	expr := prog.Bundles["sig"].Strands[0].Expr
	if exprHasCall(expr) {
		t.Fatalf("sig.v still contains a call after inlining: %#v", expr)
	}
	var cacheBuiltin *ir.Builtin
	ir.Walk(func(x ir.Expr) bool {
		if b, ok := x.(*ir.Builtin); ok && b.Name == "cache" {
			cacheBuiltin = b
			return false
		}
		return true
	}, expr)
	if cacheBuiltin == nil {
		t.Fatalf("expected a cache builtin inside inlined sig.v, got %#v", expr)
	}
	target, ok := cacheBuiltin.Args[0].(*ir.Index)
	if !ok || target.Bundle != "sig" {
		t.Errorf("cache target = %#v, want an Index into sig (the call site)", cacheBuiltin.Args[0])
	}
}

func TestInlineMultiReturnSpindle(t *testing.T) {
	src := `
spindle split(x) {
	return.0 = x + 1
	return.1 = x - 1
}
out[a,b] = split(me.x)
`
	prog := mustRewrite(t, src)
	b := prog.Bundles["out"]
	if b == nil || len(b.Strands) != 2 {
		t.Fatalf("missing out bundle: %+v", prog.Bundles)
	}
	for _, st := range b.Strands {
		if exprHasCall(st.Expr) {
			t.Errorf("out.%s still contains a call: %#v", st.Name, st.Expr)
		}
	}
}

func TestInlinePreservesMeFieldAccessNotShadowedByParamName(t *testing.T) {
	// The spindle's own parameter is named "x", matching the me.x field
	// name; inlining must not substitute the me.x access just because a
	// parameter happens to share its name.
	src := `
spindle addX(x) { return.0 = x + me.x }
sig.v = addX(1.0)
`
	prog := mustRewrite(t, src)
	expr := prog.Bundles["sig"].Strands[0].Expr
	bin, ok := expr.(*ir.BinaryOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("sig.v = %#v, want a BinaryOp +", expr)
	}
	lhs, ok := bin.Left.(*ir.Num)
	if !ok || lhs.Value != 1.0 {
		t.Errorf("left operand = %#v, want the inlined argument 1.0", bin.Left)
	}
	rhs, ok := bin.Right.(*ir.Index)
	if !ok || rhs.Bundle != ir.MeBundle {
		t.Errorf("right operand = %#v, want an untouched me.x access", bin.Right)
	}
}
