// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package lower

// meIndex is the fixed table mapping `me` field names to positional slots
// (spec.md §4.3.1). x and i intentionally share slot 0: the domain picks
// the meaning at codegen (spec.md §9 open question).
var meIndex = map[string]int{
	"x":          0,
	"y":          1,
	"u":          2,
	"v":          3,
	"w":          4,
	"h":          5,
	"t":          6,
	"i":          0,
	"rate":       7,
	"duration":   8,
	"sampleRate": 7,
}

// meWidth is the declared width of the me pseudo-bundle, used when an
// expression's width is inferred from a bare `me` identifier.
const meWidth = 7

// meFieldOrder is the canonical positional expansion of a bare `me`
// bundle literal (e.g. `[me]` or `a = me`): the width-7 slots only,
// since rate/duration/sampleRate are named-only fields layered on top
// of the positional table (spec.md §4.3.1).
var meFieldOrder = []string{"x", "y", "u", "v", "w", "h", "t"}

// resourceBuiltinWidth gives the fixed return width of hardware/resource
// builtins (spec.md §4.3, first paragraph under "Width inference").
var resourceBuiltinWidth = map[string]int{
	"texture":    3,
	"camera":     3,
	"load":       3,
	"mouse":      3,
	"microphone": 2,
	"sample":     2,
	"text":       1,
}

// resourcePathBuiltins take a string-literal path as their first argument,
// interned into Program.Resources (or TextResources for text).
var resourcePathBuiltins = map[string]bool{
	"texture": true,
	"load":    true,
	"sample":  true,
	"text":    true,
}

func isResourceBuiltin(name string) bool {
	_, ok := resourceBuiltinWidth[name]
	return ok
}

// mathBuiltins is the set of width-1 math/utility functions recognized by
// the interpreter (spec.md §4.9); used by the lowerer only to decide that
// an unknown call name with no matching spindle is still a legal node to
// emit (its width is 1 and it is lowered to a builtin rather than a call).
var mathBuiltins = map[string]bool{
	"sin": true, "cos": true, "tan": true, "asin": true, "acos": true, "atan": true,
	"abs": true, "floor": true, "ceil": true, "round": true, "sqrt": true,
	"exp": true, "log": true, "log2": true, "sign": true, "fract": true,
	"atan2": true, "pow": true, "mod": true, "min": true, "max": true,
	"step": true, "clamp": true, "lerp": true, "mix": true, "smoothstep": true,
	"osc": true, "noise": true, "select": true, "cache": true, "key": true,
}
