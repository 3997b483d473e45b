// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWalkCountsNodes(t *testing.T) {
	e := &BinaryOp{
		Op:   "+",
		Left: &Index{Bundle: "freq", IndexExpr: &Num{Value: 0}},
		Right: &Builtin{Name: "sin", Args: []Expr{
			&Index{Bundle: MeBundle, IndexExpr: &Param{Name: "t"}},
		}},
	}
	n := 0
	Walk(func(Expr) bool { n++; return true }, e)
	if n != 6 {
		t.Fatalf("visited %d nodes, want 6", n)
	}
}

func TestWalkStopsOnFalse(t *testing.T) {
	e := &BinaryOp{Op: "+", Left: &Num{Value: 1}, Right: &Num{Value: 2}}
	n := 0
	Walk(func(x Expr) bool {
		n++
		_, isBinary := x.(*BinaryOp)
		return !isBinary
	}, e)
	if n != 1 {
		t.Fatalf("visited %d nodes, want 1 (stopped at root)", n)
	}
}

func TestTransformReplacesLeaves(t *testing.T) {
	e := &BinaryOp{Op: "+", Left: &Num{Value: 1}, Right: &Num{Value: 2}}
	out := Transform(func(x Expr) Expr {
		if n, ok := x.(*Num); ok {
			return &Num{Value: n.Value * 10}
		}
		return x
	}, e)
	want := &BinaryOp{Op: "+", Left: &Num{Value: 10}, Right: &Num{Value: 20}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("transformed tree mismatch (-want +got):\n%s", diff)
	}
	// original untouched
	if e.Left.(*Num).Value != 1 {
		t.Fatalf("Transform mutated the original tree")
	}
}

func TestFreeBundleRefsExcludesMeAndSelf(t *testing.T) {
	e := &BinaryOp{
		Op:   "+",
		Left: &Index{Bundle: MeBundle, IndexExpr: &Param{Name: "t"}},
		Right: &BinaryOp{
			Op:   "*",
			Left: &Index{Bundle: "sig", IndexExpr: &Num{Value: 0}},
			Right: &Index{Bundle: "freq", IndexExpr: &Num{Value: 2}},
		},
	}
	refs := FreeBundleRefs(e, "sig")
	if refs["me"] {
		t.Error("me should be excluded")
	}
	if refs["sig"] || refs["sig.0"] {
		t.Error("self-bundle refs should be excluded")
	}
	if !refs["freq.2"] {
		t.Errorf("expected freq.2 in refs, got %+v", refs)
	}
}
