// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package annotate

import (
	"testing"

	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/depgraph"
	"github.com/weft-lang/weft/ir"
	"github.com/weft-lang/weft/lower"
)

func runAnnotate(t *testing.T, src string) (*ir.Program, *Annotations) {
	t.Helper()
	p, err := ast.Parse(src, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	prog, lerr := lower.Lower(p)
	if lerr != nil {
		t.Fatalf("lower error: %v", lerr)
	}
	g, gerr := depgraph.Build(prog)
	if gerr != nil {
		t.Fatalf("depgraph error: %v", gerr)
	}
	return prog, Run(prog, g)
}

func TestDomainPropagation(t *testing.T) {
	src := `
freq.v = 440.0
phase.v = freq.v * me.t
play.l = sin(phase.v)
display.r = me.x
`
	_, a := runAnnotate(t, src)
	if a.Domain["play"] != ir.DomainAudio {
		t.Errorf("play domain = %v, want audio", a.Domain["play"])
	}
	if a.Domain["phase"] != ir.DomainAudio {
		t.Errorf("phase domain = %v, want audio", a.Domain["phase"])
	}
	if a.Domain["freq"] != ir.DomainAudio {
		t.Errorf("freq domain = %v, want audio", a.Domain["freq"])
	}
	if a.Domain["display"] != ir.DomainVisual {
		t.Errorf("display domain = %v, want visual", a.Domain["display"])
	}
}

func TestDomainNeutralWhenSharedAcrossSinks(t *testing.T) {
	src := `
shared.v = 1.0
play.l = shared.v
display.r = shared.v
`
	_, a := runAnnotate(t, src)
	if a.Domain["shared"] != ir.DomainNeutral {
		t.Errorf("shared domain = %v, want neutral", a.Domain["shared"])
	}
}

func TestStatefulPropagatesThroughSpindleCall(t *testing.T) {
	src := `
spindle lp(x, a) { return.0 = x * a + lp.v(me.t ~ me.t - 1) * (1 - a) }
sig.v = lp(me.x, 0.1)
display.r = sig.v
`
	_, a := runAnnotate(t, src)
	if !a.SpindleStateful["lp"] {
		t.Errorf("spindle lp should be stateful (self-referential temporal remap)")
	}
	if !a.Stateful["sig"] {
		t.Errorf("sig should be stateful (calls stateful spindle lp)")
	}
}

func TestExternalUsedInputs(t *testing.T) {
	src := `cam[r,g,b] = camera(me.x, me.y)`
	_, a := runAnnotate(t, src)
	if !a.External["cam"] {
		t.Errorf("cam should be external")
	}
	if !a.UsedInputs["cam"]["camera"] {
		t.Errorf("cam used-inputs = %v, want camera", a.UsedInputs["cam"])
	}
	if a.Domain["cam"] != ir.DomainVisual {
		t.Errorf("cam domain = %v, want visual (forced by camera builtin, no sink consumes it)", a.Domain["cam"])
	}
}
