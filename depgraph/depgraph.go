// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package depgraph builds the bundle-level dependency graph used by the
// annotation pass and the partitioner (spec.md §4.4): for each bundle,
// the set of bundle names its strand expressions reference, ignoring
// `me` and self-references, plus a topological sort over that graph.
package depgraph

import (
	"sort"

	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/ir"
)

// Graph is the bundle-level dependency graph of a lowered program.
type Graph struct {
	deps       map[string]map[string]bool
	dependents map[string]map[string]bool
	order      []string
}

// Build walks every bundle's strand expressions and assembles the graph,
// failing with errs.CircularDependency if no topological order exists
// (spec.md §4.3.5's cycle detection, reused here over the full IR rather
// than just the declarations seen during lowering).
func Build(prog *ir.Program) (*Graph, *errs.Error) {
	g := &Graph{
		deps:       map[string]map[string]bool{},
		dependents: map[string]map[string]bool{},
	}
	for name := range prog.Bundles {
		g.deps[name] = map[string]bool{}
		g.dependents[name] = map[string]bool{}
	}
	for name, b := range prog.Bundles {
		for _, st := range b.Strands {
			for ref := range ir.FreeBundleRefs(st.Expr, name) {
				base := ref
				for i := 0; i < len(ref); i++ {
					if ref[i] == '.' {
						base = ref[:i]
						break
					}
				}
				if _, ok := prog.Bundles[base]; !ok {
					continue // a spindle param or unresolved name, not a bundle edge
				}
				g.deps[name][base] = true
				if g.dependents[base] == nil {
					g.dependents[base] = map[string]bool{}
				}
				g.dependents[base][name] = true
			}
		}
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// Dependencies returns the bundles b's strand expressions directly read
// from, sorted for determinism.
func (g *Graph) Dependencies(b string) []string {
	return sortedKeys(g.deps[b])
}

// Dependents returns the bundles that directly read from b.
func (g *Graph) Dependents(b string) []string {
	return sortedKeys(g.dependents[b])
}

// Order returns bundle names in topological order: a bundle always
// follows every bundle it depends on.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Graph) topoSort() ([]string, *errs.Error) {
	var order []string
	state := map[string]int{} // 0 unvisited, 1 visiting, 2 done
	var visit func(name string) *errs.Error
	visit = func(name string) *errs.Error {
		switch state[name] {
		case 2:
			return nil
		case 1:
			return errs.New(errs.CircularDependency, nil, "circular dependency involving bundle %q", name)
		}
		state[name] = 1
		for _, d := range sortedKeys(g.deps[name]) {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[name] = 2
		order = append(order, name)
		return nil
	}
	for _, name := range sortedKeys(namesOf(g.deps)) {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func namesOf(m map[string]map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
