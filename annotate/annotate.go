// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package annotate computes the domain, purity and used-input
// annotations the partitioner (C6) and cache analyzer (C8) rely on
// (spec.md §4.5).
package annotate

import (
	"github.com/weft-lang/weft/depgraph"
	"github.com/weft-lang/weft/ir"
)

// visualForcing and audioForcing are the hardware builtins that force a
// bundle's domain (spec.md §4.5). text() is an external builtin but does
// not itself force a domain: text rendering is legal in either backend.
var visualForcing = map[string]bool{"camera": true, "texture": true, "mouse": true, "load": true}
var audioForcing = map[string]bool{"microphone": true, "sample": true}

func isHardwareBuiltin(name string) bool {
	return visualForcing[name] || audioForcing[name] || name == "text"
}

// DisplaySink and PlaySink name the two terminal bundles spec.md §2
// treats as domain roots.
const (
	DisplaySink = "display"
	PlaySink    = "play"
)

// Annotations holds the per-bundle and per-spindle results of the pass.
type Annotations struct {
	Domain     map[string]ir.Domain
	Stateful   map[string]bool
	External   map[string]bool
	UsedInputs map[string]map[string]bool // bundle -> hardware builtin names

	SpindleStateful   map[string]bool
	SpindleUsedInputs map[string]map[string]bool
}

// Run computes annotations for every bundle in prog, using g (built by
// depgraph.Build over the same prog) to find what each sink transitively
// reads.
func Run(prog *ir.Program, g *depgraph.Graph) *Annotations {
	a := &Annotations{
		Domain:            map[string]ir.Domain{},
		Stateful:          map[string]bool{},
		External:          map[string]bool{},
		UsedInputs:        map[string]map[string]bool{},
		SpindleStateful:   map[string]bool{},
		SpindleUsedInputs: map[string]map[string]bool{},
	}

	spindleStatefulState := map[string]int{} // 0 unvisited, 1 visiting, 2 done
	for name := range prog.Spindles {
		a.spindleStateful(prog, name, spindleStatefulState)
	}
	spindleInputsState := map[string]int{}
	for name := range prog.Spindles {
		a.spindleUsedInputs(prog, name, spindleInputsState)
	}

	for name, b := range prog.Bundles {
		stateful := false
		external := false
		used := map[string]bool{}
		for _, st := range b.Strands {
			if exprIsStateful(st.Expr, a.SpindleStateful) {
				stateful = true
			}
			collectUsedInputs(st.Expr, a.SpindleUsedInputs, used)
		}
		if len(used) > 0 {
			external = true
		}
		a.Stateful[name] = stateful
		a.External[name] = external
		a.UsedInputs[name] = used
	}

	visualReach := reachableFrom(g, prog, DisplaySink)
	audioReach := reachableFrom(g, prog, PlaySink)
	for name := range prog.Bundles {
		sinkVisual := visualReach[name]
		sinkAudio := audioReach[name]
		switch {
		case sinkVisual && sinkAudio:
			a.Domain[name] = ir.DomainNeutral
		case sinkVisual:
			a.Domain[name] = ir.DomainVisual
		case sinkAudio:
			a.Domain[name] = ir.DomainAudio
		default:
			a.Domain[name] = forcedDomain(a.UsedInputs[name])
		}
	}
	// display and play are the sinks by definition (spec.md §4.5): fix
	// their domain even in the pathological case where one transitively
	// reads the other and the reachability computation above would
	// otherwise call them neutral.
	if _, ok := prog.Bundles[DisplaySink]; ok {
		a.Domain[DisplaySink] = ir.DomainVisual
	}
	if _, ok := prog.Bundles[PlaySink]; ok {
		a.Domain[PlaySink] = ir.DomainAudio
	}
	return a
}

// forcedDomain resolves a bundle's domain from the hardware builtins it
// uses, when no sink consumes it at all (spec.md §4.5's forcing rule,
// applied only as a fallback once sink reachability has had its say).
func forcedDomain(used map[string]bool) ir.Domain {
	visual, audio := false, false
	for name := range used {
		if visualForcing[name] {
			visual = true
		}
		if audioForcing[name] {
			audio = true
		}
	}
	switch {
	case visual && audio:
		return ir.DomainNeutral
	case visual:
		return ir.DomainVisual
	case audio:
		return ir.DomainAudio
	default:
		return ir.DomainNeutral
	}
}

// reachableFrom returns the set of bundles (including sink itself)
// transitively read while evaluating sink, per g's dependency edges.
func reachableFrom(g *depgraph.Graph, prog *ir.Program, sink string) map[string]bool {
	visited := map[string]bool{}
	if _, ok := prog.Bundles[sink]; !ok {
		return visited
	}
	var walk func(string)
	walk = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, d := range g.Dependencies(name) {
			walk(d)
		}
	}
	walk(sink)
	return visited
}

// exprIsStateful reports whether e (or any subexpression) is a cache or
// cacheRead builtin, or calls a spindle already known to be stateful
// (spec.md §4.5). A self-referential temporal remap is not matched here
// directly: the lowerer (C3) already turns it into a "cache" builtin, so
// it is covered by the builtin case.
func exprIsStateful(e ir.Expr, spindleStateful map[string]bool) bool {
	found := false
	ir.Walk(func(x ir.Expr) bool {
		if found {
			return false
		}
		switch n := x.(type) {
		case *ir.Builtin:
			if n.Name == "cache" {
				found = true
				return false
			}
		case *ir.CacheRead:
			found = true
			return false
		case *ir.Call:
			if spindleStateful[n.Spindle] {
				found = true
				return false
			}
		}
		return true
	}, e)
	return found
}

// collectUsedInputs adds every hardware builtin name transitively
// referenced by e into used, following spindle calls via
// spindleUsedInputs.
func collectUsedInputs(e ir.Expr, spindleUsedInputs map[string]map[string]bool, used map[string]bool) {
	ir.Walk(func(x ir.Expr) bool {
		switch n := x.(type) {
		case *ir.Builtin:
			if isHardwareBuiltin(n.Name) {
				used[n.Name] = true
			}
		case *ir.Call:
			for name := range spindleUsedInputs[n.Spindle] {
				used[name] = true
			}
		}
		return true
	}, e)
}

// spindleStateful computes (and memoizes into a.SpindleStateful) whether
// calling name's spindle is stateful, recursing through any spindles it
// in turn calls. A spindle encountered while still being visited (mutual
// recursion) is conservatively treated as not-yet-stateful for that
// edge, since spec.md does not define temporal semantics across mutually
// recursive spindles.
func (a *Annotations) spindleStateful(prog *ir.Program, name string, state map[string]int) bool {
	switch state[name] {
	case 2:
		return a.SpindleStateful[name]
	case 1:
		return false
	}
	state[name] = 1
	sp, ok := prog.Spindles[name]
	stateful := false
	if ok {
		for _, ret := range sp.Returns {
			if exprIsStatefulSpindleAware(ret, a, prog, state) {
				stateful = true
				break
			}
		}
	}
	a.SpindleStateful[name] = stateful
	state[name] = 2
	return stateful
}

// exprIsStatefulSpindleAware is exprIsStateful specialized to resolve
// *ir.Call targets on demand (via spindleStateful) rather than from an
// already-finished map, since spindles may be processed in any order.
func exprIsStatefulSpindleAware(e ir.Expr, a *Annotations, prog *ir.Program, state map[string]int) bool {
	found := false
	ir.Walk(func(x ir.Expr) bool {
		if found {
			return false
		}
		switch n := x.(type) {
		case *ir.Builtin:
			if n.Name == "cache" {
				found = true
				return false
			}
		case *ir.CacheRead:
			found = true
			return false
		case *ir.Call:
			if a.spindleStateful(prog, n.Spindle, state) {
				found = true
				return false
			}
		}
		return true
	}, e)
	return found
}

func (a *Annotations) spindleUsedInputs(prog *ir.Program, name string, state map[string]int) map[string]bool {
	switch state[name] {
	case 2:
		return a.SpindleUsedInputs[name]
	case 1:
		return nil
	}
	state[name] = 1
	used := map[string]bool{}
	sp, ok := prog.Spindles[name]
	if ok {
		for _, ret := range sp.Returns {
			ir.Walk(func(x ir.Expr) bool {
				switch n := x.(type) {
				case *ir.Builtin:
					if isHardwareBuiltin(n.Name) {
						used[n.Name] = true
					}
				case *ir.Call:
					for in := range a.spindleUsedInputs(prog, n.Spindle, state) {
						used[in] = true
					}
				}
				return true
			}, ret)
		}
	}
	a.SpindleUsedInputs[name] = used
	state[name] = 2
	return used
}
