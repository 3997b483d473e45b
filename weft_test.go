// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package weft

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weft-lang/weft/ir"
)

func TestCompileEndToEnd(t *testing.T) {
	src := `
spindle lp(x, a) { return.0 = x * a + lp.v(me.t ~ me.t - 1) * (1 - a) }
freq.v = 440.0
phase.v = me.i / me.sampleRate * freq.v * 6.28318
sig.v = lp(me.x, 0.1)
play[0] = sin(phase.v) * 0.3
display[r,g,b] = [sig.v, me.y, me.x]
`
	plan, err := Compile(src, "test.weft")
	require.NoError(t, err)
	require.NotNil(t, plan.Program)
	require.GreaterOrEqual(t, len(plan.Swatches), 2, "expected at least 2 swatches (visual + audio)")
	require.Len(t, plan.CacheDescriptors, 1, "expected 1 cache descriptor for lp's self-reference")

	d := plan.CacheDescriptors[0]
	require.Equal(t, "sig", d.Bundle)
	require.Equal(t, -1, d.Tap)
	require.NotNil(t, plan.SourceMap)

	var sawDisplay, sawPlay bool
	for _, s := range plan.Swatches {
		for _, b := range s.Bundles {
			if b == "display" {
				sawDisplay = true
				require.Equal(t, ir.DomainVisual, s.Backend)
				require.True(t, s.IsSink)
			}
			if b == "play" {
				sawPlay = true
				require.Equal(t, ir.DomainAudio, s.Backend)
				require.True(t, s.IsSink)
			}
		}
	}
	require.True(t, sawDisplay, "missing display swatch in plan: %+v", plan.Swatches)
	require.True(t, sawPlay, "missing play swatch in plan: %+v", plan.Swatches)
}

func TestCompileReportsParseErrorWithLocation(t *testing.T) {
	_, err := Compile("display.r = ", "test.weft")
	require.Error(t, err)
	require.Contains(t, err.Error(), "test.weft:")
}

func TestCompileReportsUnknownBundleError(t *testing.T) {
	_, err := Compile("a.v = b.v", "test.weft")
	require.Error(t, err)
}

func TestInterpretAgainstCompiledPlan(t *testing.T) {
	plan, err := Compile(`display.r = me.x * 2.0`, "test.weft")
	require.NoError(t, err)

	expr := plan.Program.Bundles["display"].Strands[0].Expr
	got := Interpret(plan.Program, expr, map[string]float64{"x": 3})
	require.Equal(t, 6.0, got)
}
