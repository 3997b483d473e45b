// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"encoding/json"
	"testing"
)

func samples() *Program {
	return &Program{
		Bundles: map[string]*Bundle{
			"display": {
				Name: "display",
				Strands: []Strand{
					{Name: "r", Index: 0, Expr: &Index{Bundle: MeBundle, IndexExpr: &Param{Name: "x"}}},
					{Name: "g", Index: 1, Expr: &Index{Bundle: MeBundle, IndexExpr: &Param{Name: "y"}}},
					{Name: "b", Index: 2, Expr: &Builtin{Name: "fract", Args: []Expr{
						&Index{Bundle: MeBundle, IndexExpr: &Param{Name: "t"}},
					}}},
				},
			},
		},
		Spindles: map[string]*Spindle{
			"lp": {
				Name:   "lp",
				Params: []string{"x", "a"},
				Locals: map[string]*Bundle{},
				Returns: []Expr{
					&BinaryOp{
						Op:   "+",
						Left: &BinaryOp{Op: "*", Left: &Param{Name: "x"}, Right: &Param{Name: "a"}},
						Right: &BinaryOp{
							Op:   "*",
							Left: &Extract{Call: &Call{Spindle: "lp", Args: []Expr{&Param{Name: "x"}, &Param{Name: "a"}}}, Index: 0},
							Right: &BinaryOp{
								Op:   "-",
								Left: &Num{Value: 1},
								Right: &Param{Name: "a"},
							},
						},
					},
				},
			},
		},
		Resources:     []string{"tex.png"},
		TextResources: []string{"shader.txt"},
		Order: []OrderEntry{
			{Bundle: "display", Strands: []string{"r", "g", "b"}},
		},
	}
}

func TestProgramJSONRoundTrip(t *testing.T) {
	want := samples()
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := &Program{}
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data2, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	var a, b any
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data2, &b); err != nil {
		t.Fatal(err)
	}
	if !deepEqual(a, b) {
		t.Fatalf("round-trip mismatch:\nfirst:  %s\nsecond: %s", data, data2)
	}
}

func TestExprKindTags(t *testing.T) {
	cases := []struct {
		expr Expr
		kind string
	}{
		{&Num{Value: 1}, "num"},
		{&Param{Name: "x"}, "param"},
		{&Index{Bundle: "me", IndexExpr: &Param{Name: "x"}}, "index"},
		{&BinaryOp{Op: "+", Left: &Num{Value: 1}, Right: &Num{Value: 2}}, "binaryOp"},
		{&UnaryOp{Op: "-", X: &Num{Value: 1}}, "unaryOp"},
		{&Builtin{Name: "sin", Args: []Expr{&Num{Value: 1}}}, "builtin"},
		{&Call{Spindle: "lp", Args: nil}, "call"},
		{&Extract{Call: &Call{Spindle: "lp"}, Index: 0}, "extract"},
		{&Remap{Base: &Num{Value: 1}, Substitutions: map[string]Expr{}}, "remap"},
		{&CacheRead{CacheIndex: 0, TapOffset: -1}, "cacheRead"},
	}
	for _, c := range cases {
		raw, err := MarshalExpr(c.expr)
		if err != nil {
			t.Fatalf("%T: %v", c.expr, err)
		}
		var head struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			t.Fatal(err)
		}
		if head.Kind != c.kind {
			t.Errorf("%T: kind = %q, want %q", c.expr, head.Kind, c.kind)
		}
		back, err := UnmarshalExpr(raw)
		if err != nil {
			t.Fatalf("unmarshal %T: %v", c.expr, err)
		}
		if _, ok := back.(Expr); !ok {
			t.Fatalf("unmarshal %T produced non-Expr", c.expr)
		}
	}
}

func TestCacheDescriptorJSON(t *testing.T) {
	d := CacheDescriptor{Index: 0, Bundle: "lp", StrandIndex: 0, Domain: DomainAudio, HistorySize: 1, Tap: -1, HasSelfReference: true}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back CacheDescriptor
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Fatalf("got %+v, want %+v", back, d)
	}
}

func deepEqual(a, b any) bool {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok != bok {
		return false
	}
	if aok {
		if len(am) != len(bm) {
			return false
		}
		for k, v := range am {
			bv, ok := bm[k]
			if !ok || !deepEqual(v, bv) {
				return false
			}
		}
		return true
	}
	al, aok := a.([]any)
	bl, bok := b.([]any)
	if aok != bok {
		return false
	}
	if aok {
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !deepEqual(al[i], bl[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
