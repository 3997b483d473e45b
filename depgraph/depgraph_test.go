// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package depgraph

import (
	"testing"

	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/lower"
)

func buildGraph(t *testing.T, src string) *Graph {
	t.Helper()
	p, err := ast.Parse(src, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	prog, lerr := lower.Lower(p)
	if lerr != nil {
		t.Fatalf("lower error: %v", lerr)
	}
	g, gerr := Build(prog)
	if gerr != nil {
		t.Fatalf("build error: %v", gerr)
	}
	return g
}

func TestDependenciesAndOrder(t *testing.T) {
	src := `
freq.v = 440.0
phase.v = freq.v * me.t
play.l = sin(phase.v)
`
	g := buildGraph(t, src)
	if deps := g.Dependencies("phase"); len(deps) != 1 || deps[0] != "freq" {
		t.Fatalf("phase deps = %v", deps)
	}
	if deps := g.Dependencies("play"); len(deps) != 1 || deps[0] != "phase" {
		t.Fatalf("play deps = %v", deps)
	}
	if deps := g.Dependencies("freq"); len(deps) != 0 {
		t.Fatalf("freq deps = %v, want none", deps)
	}
	if dependents := g.Dependents("freq"); len(dependents) != 1 || dependents[0] != "phase" {
		t.Fatalf("freq dependents = %v", dependents)
	}

	order := g.Order()
	rank := map[string]int{}
	for i, name := range order {
		rank[name] = i
	}
	if rank["freq"] >= rank["phase"] || rank["phase"] >= rank["play"] {
		t.Fatalf("order = %v, want freq before phase before play", order)
	}
}

func TestIgnoresMeAndSelf(t *testing.T) {
	g := buildGraph(t, `display[x, y] = [me.x + me.t, display.x]`)
	if deps := g.Dependencies("display"); len(deps) != 0 {
		t.Fatalf("display deps = %v, want none (me and self-references are not bundle edges)", deps)
	}
}

func TestCircularDependency(t *testing.T) {
	src := `
a.v = b.v
b.v = a.v
`
	p, err := ast.Parse(src, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, lerr := lower.Lower(p)
	if lerr == nil {
		t.Fatalf("expected lowering itself to reject the cycle")
	}
	if e, ok := lerr.(*errs.Error); !ok || e.Code != errs.CircularDependency {
		t.Fatalf("expected CircularDependency from lower, got %v", lerr)
	}
}
