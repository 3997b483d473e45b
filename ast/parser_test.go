// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSimpleBundle(t *testing.T) {
	prog, err := Parse(`display[r,g,b] = [me.x, me.y, fract(me.t)]`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*BundleDecl)
	if !ok {
		t.Fatalf("expected *BundleDecl, got %T", prog.Statements[0])
	}
	if decl.Name != "display" {
		t.Errorf("name = %q", decl.Name)
	}
	if len(decl.Outputs) != 3 || decl.Outputs[0].Name != "r" || decl.Outputs[2].Name != "b" {
		t.Errorf("outputs = %+v", decl.Outputs)
	}
	lit, ok := decl.Expr.(*BundleLit)
	if !ok || len(lit.Elems) != 3 {
		t.Fatalf("expr = %#v", decl.Expr)
	}
}

func TestParseShorthandBundle(t *testing.T) {
	prog, err := Parse(`freq.v = 440.0`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decl := prog.Statements[0].(*BundleDecl)
	if decl.Name != "freq" || len(decl.Outputs) != 1 || decl.Outputs[0].Name != "v" {
		t.Fatalf("got %+v", decl)
	}
	num, ok := decl.Expr.(*NumberLit)
	if !ok || num.Value != 440.0 {
		t.Fatalf("expr = %#v", decl.Expr)
	}
}

func TestParseSpindleDef(t *testing.T) {
	src := `spindle lp(x, a) { return.0 = x * a + lp.v(me.t ~ me.t - 1) * (1 - a) }`
	prog, err := Parse(src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, ok := prog.Statements[0].(*SpindleDef)
	if !ok {
		t.Fatalf("expected *SpindleDef, got %T", prog.Statements[0])
	}
	if def.Name != "lp" || len(def.Params) != 2 {
		t.Fatalf("got %+v", def)
	}
	if len(def.Returns) != 1 || def.Returns[0].Index != 0 {
		t.Fatalf("returns = %+v", def.Returns)
	}
	add, ok := def.Returns[0].Expr.(*BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("return expr = %#v", def.Returns[0].Expr)
	}
	remap, ok := add.Right.(*BinaryExpr)
	if !ok {
		t.Fatalf("expected right side to be a binary *, got %#v", add.Right)
	}
	_ = remap
}

func TestParseRemapDetection(t *testing.T) {
	e, err := ParseExpr(`lp.v(me.t ~ me.t - 1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remap, ok := e.(*RemapExpr)
	if !ok {
		t.Fatalf("expected *RemapExpr, got %#v", e)
	}
	if len(remap.Subs) != 1 {
		t.Fatalf("subs = %+v", remap.Subs)
	}
	base, ok := remap.Base.(*StrandAccess)
	if !ok || base.Accessor.Named != "v" {
		t.Fatalf("base = %#v", remap.Base)
	}
}

func TestParseCallIsNotRemap(t *testing.T) {
	e, err := ParseExpr(`sin(me.t)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call, ok := e.(*CallExpr)
	if !ok || call.Name != "sin" {
		t.Fatalf("expected *CallExpr sin, got %#v", e)
	}
}

func TestParseChainExpression(t *testing.T) {
	e, err := ParseExpr(`a -> {.0 + .1, .1 * .2, .2 - .0}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain, ok := e.(*ChainExpr)
	if !ok {
		t.Fatalf("expected *ChainExpr, got %#v", e)
	}
	if len(chain.Stages) != 1 || len(chain.Stages[0].Outputs) != 3 {
		t.Fatalf("stages = %+v", chain.Stages)
	}
	first, ok := chain.Stages[0].Outputs[0].(*BinaryExpr)
	if !ok {
		t.Fatalf("first output = %#v", chain.Stages[0].Outputs[0])
	}
	lhs, ok := first.Left.(*StrandAccess)
	if !ok || lhs.Base != nil || !lhs.Accessor.HasIndex || lhs.Accessor.Index != 0 {
		t.Fatalf("lhs = %#v", first.Left)
	}
}

func TestParseRangeLiteral(t *testing.T) {
	e, err := ParseExpr(`..`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rng, ok := e.(*RangeExpr)
	if !ok || rng.Lo != nil || rng.Hi != nil {
		t.Fatalf("got %#v", e)
	}
}

func TestParseNegativeIndex(t *testing.T) {
	e, err := ParseExpr(`.-1`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acc, ok := e.(*StrandAccess)
	if !ok || !acc.Accessor.HasIndex || acc.Accessor.Index != -1 {
		t.Fatalf("got %#v", e)
	}
}

func TestParseExtractExpr(t *testing.T) {
	e, err := ParseExpr(`load("x.png").0`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ex, ok := e.(*ExtractExpr)
	if !ok || ex.Index != 0 {
		t.Fatalf("got %#v", e)
	}
	call, ok := ex.Call.(*CallExpr)
	if !ok || call.Name != "load" {
		t.Fatalf("call = %#v", ex.Call)
	}
}

func TestParseBundleOutputNames(t *testing.T) {
	prog, err := Parse(`pixel[r,g,b,a] = [me.x, me.y, 0.0, 1.0]`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decl := prog.Statements[0].(*BundleDecl)
	var got []string
	for _, o := range decl.Outputs {
		got = append(got, o.Name)
	}
	want := []string{"r", "g", "b", "a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrorCarriesFileLocation(t *testing.T) {
	_, err := Parse(`a = `, "main.weft")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if err.Location == nil || err.Location.File != "main.weft" {
		t.Fatalf("expected location with file set, got %+v", err.Location)
	}
}
