// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package interp

import (
	"math"

	"github.com/weft-lang/weft/ir"
)

// evalBinary implements spec.md §4.9's binary operator contract: "/" and
// "%" return 0 on a zero divisor, "^" is pow, comparisons yield 1.0/0.0,
// "&&"/"||" treat any non-zero operand as true.
func evalBinary(op string, l, r float64) float64 {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	case "%":
		if r == 0 {
			return 0
		}
		return math.Mod(l, r)
	case "^":
		return math.Pow(l, r)
	case "==":
		return boolToFloat(l == r)
	case "!=":
		return boolToFloat(l != r)
	case "<":
		return boolToFloat(l < r)
	case ">":
		return boolToFloat(l > r)
	case "<=":
		return boolToFloat(l <= r)
	case ">=":
		return boolToFloat(l >= r)
	case "&&":
		return boolToFloat(l != 0 && r != 0)
	case "||":
		return boolToFloat(l != 0 || r != 0)
	default:
		return 0
	}
}

func evalUnary(op string, x float64) float64 {
	switch op {
	case "-":
		return -x
	case "!":
		return boolToFloat(x == 0)
	default:
		return x
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// hardwareBuiltins return a synthetic or zero value (spec.md §4.9): the
// core never captures camera/microphone/file input itself (spec.md
// §6.5), so there is nothing truthful to return here; 0 for every
// channel is the documented interpreter stand-in.
var hardwareBuiltins = map[string]bool{
	"microphone": true, "sample": true, "text": true, "key": true,
	"mouse": true, "camera": true, "texture": true, "load": true,
}

// evalBuiltin dispatches a builtin call. select and cache get bespoke
// handling (short-circuit and no-history respectively); every other
// scalar math/utility function is evaluated from its already-evaluated
// float arguments.
func evalBuiltin(prog *ir.Program, n *ir.Builtin, ctx evalCtx) float64 {
	switch n.Name {
	case "select":
		return evalSelect(prog, n, ctx)
	case "cache":
		// No history is available in the interpreter (spec.md §4.9); the
		// target reference goes through the normal evaluator. In a lowered
		// program it is the unbound __cacheTarget sentinel, which yields 0;
		// once rewritten it names the strand being evaluated, and the
		// re-entry guard yields 0 for that self reference.
		if len(n.Args) == 0 {
			return 0
		}
		return eval(prog, n.Args[0], ctx)
	}
	if hardwareBuiltins[n.Name] {
		return 0
	}
	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		args[i] = eval(prog, a, ctx)
	}
	if fn, ok := scalarBuiltins[n.Name]; ok {
		return fn(args)
	}
	return 0
}

// evalSelect short-circuits: only the index argument and the one chosen
// branch are evaluated (spec.md §9's resolved open question).
func evalSelect(prog *ir.Program, n *ir.Builtin, ctx evalCtx) float64 {
	if len(n.Args) < 2 {
		return 0
	}
	branches := n.Args[1:]
	idx := int(eval(prog, n.Args[0], ctx))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(branches) {
		idx = len(branches) - 1
	}
	return eval(prog, branches[idx], ctx)
}

// scalarBuiltins is the fixed table of pure math/utility functions
// spec.md §4.9 names, keyed the way the teacher's builtin registry keys
// its own functions by name.
var scalarBuiltins = map[string]func([]float64) float64{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"sqrt":  unary(math.Sqrt),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log2":  unary(math.Log2),
	"sign":  unary(signf),
	"fract": unary(fractf),
	"noise": unary(noisef),

	"atan2": binary(math.Atan2),
	"pow":   binary(math.Pow),
	"mod":   binary(modf),
	"min":   binary(math.Min),
	"max":   binary(math.Max),

	"step":       ternaryOrLess(stepf),
	"clamp":      ternary(clampf),
	"lerp":       ternary(lerpf),
	"mix":        ternary(lerpf),
	"smoothstep": ternary(smoothstepf),
	"osc":        ternaryOrLess(oscf),
}

func unary(fn func(float64) float64) func([]float64) float64 {
	return func(a []float64) float64 {
		if len(a) < 1 {
			return 0
		}
		return fn(a[0])
	}
}

func binary(fn func(float64, float64) float64) func([]float64) float64 {
	return func(a []float64) float64 {
		if len(a) < 2 {
			return 0
		}
		return fn(a[0], a[1])
	}
}

func ternary(fn func(float64, float64, float64) float64) func([]float64) float64 {
	return func(a []float64) float64 {
		if len(a) < 3 {
			return 0
		}
		return fn(a[0], a[1], a[2])
	}
}

// ternaryOrLess tolerates a 2-arg call (e.g. `osc(rate, shape)` with an
// implicit 0 phase) for builtins whose third argument has a sensible
// default.
func ternaryOrLess(fn func(float64, float64, float64) float64) func([]float64) float64 {
	return func(a []float64) float64 {
		var v [3]float64
		copy(v[:], a)
		return fn(v[0], v[1], v[2])
	}
}

func signf(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func fractf(x float64) float64 {
	return x - math.Floor(x)
}

func modf(l, r float64) float64 {
	if r == 0 {
		return 0
	}
	return l - r*math.Floor(l/r)
}

func clampf(x, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func lerpf(a, b, t float64) float64 {
	return a + (b-a)*t
}

func smoothstepf(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		return 0
	}
	t := clampf((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func stepf(edge, x, _ float64) float64 {
	return boolToFloat(x >= edge)
}

// oscf is a deterministic stand-in oscillator: a repeating ramp-to-sine
// blend, shape in [0,1] crossfading ramp (shape=0) to sine (shape=1).
func oscf(rate, shape, phase float64) float64 {
	t := fractf(rate + phase)
	ramp := 2*t - 1
	sine := math.Sin(2 * math.Pi * t)
	return lerpf(ramp, sine, clampf(shape, 0, 1))
}

// noisef is a cheap deterministic hash-based value noise, not
// cryptographic and not matching any particular reference noise
// function: previews only need repeatable, bounded output.
func noisef(x float64) float64 {
	n := math.Sin(x*127.1) * 43758.5453123
	return 2*fractf(n) - 1
}
