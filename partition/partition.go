// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package partition groups a lowered program's bundles into backend
// swatches and determines the cross-domain buffer interfaces between
// them (spec.md §4.6).
package partition

import (
	"sort"

	"github.com/google/uuid"

	"github.com/weft-lang/weft/annotate"
	"github.com/weft-lang/weft/depgraph"
	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/ir"
)

// Run partitions prog's bundles into swatches, one per connected
// component of each backend, with cross-domain buffers wired between
// them. g and ann must come from depgraph.Build/annotate.Run over prog.
//
// Neutral bundles are always buffered into the domain that does not
// produce them, never duplicated (spec.md §9: "duplication would
// change cache identity"). This implementation picks the visual side as
// the producer of every neutral bundle and buffers it into audio
// swatches that consume it; spec.md and the stripped-down original
// implementation leave the producer-side choice unspecified, so this is
// a documented, deterministic tie-break rather than a guess.
func Run(prog *ir.Program, g *depgraph.Graph, ann *annotate.Annotations) ([]*ir.Swatch, *errs.Error) {
	bucket := map[string]ir.Domain{}
	for name := range prog.Bundles {
		switch ann.Domain[name] {
		case ir.DomainAudio:
			bucket[name] = ir.DomainAudio
		default:
			bucket[name] = ir.DomainVisual // visual and neutral both produce on the visual side
		}
	}

	components := connectedComponents(prog, g, bucket)

	swatches := make([]*ir.Swatch, 0, len(components))
	swatchOf := map[string]*ir.Swatch{}
	for _, comp := range components {
		backend := bucket[comp[0]]
		s := &ir.Swatch{
			ID:      uuid.NewString(),
			Backend: backend,
			Bundles: comp,
		}
		for _, name := range comp {
			if name == annotate.DisplaySink || name == annotate.PlaySink {
				s.IsSink = true
			}
		}
		swatches = append(swatches, s)
		for _, name := range comp {
			swatchOf[name] = s
		}
	}

	for name, domain := range ann.Domain {
		if domain != ir.DomainNeutral {
			continue
		}
		producer := swatchOf[name]
		if producer == nil {
			continue
		}
		for _, dep := range g.Dependents(name) {
			consumer := swatchOf[dep]
			if consumer == nil || consumer == producer {
				continue
			}
			addUnique(&producer.OutputBuffers, name)
			addUnique(&consumer.InputBuffers, name)
		}
	}

	sort.Slice(swatches, func(i, j int) bool {
		if swatches[i].Backend != swatches[j].Backend {
			return swatches[i].Backend < swatches[j].Backend
		}
		return swatches[i].Bundles[0] < swatches[j].Bundles[0]
	})

	if err := checkSwatchOrder(swatches); err != nil {
		return nil, err
	}
	return swatches, nil
}

// connectedComponents groups bundles sharing a bucket into connected
// components over the undirected dependency graph restricted to edges
// within the same bucket (spec.md §4.6: "subdivided if multiple
// disconnected ... subgraphs exist").
func connectedComponents(prog *ir.Program, g *depgraph.Graph, bucket map[string]ir.Domain) [][]string {
	visited := map[string]bool{}
	var components [][]string
	names := make([]string, 0, len(prog.Bundles))
	for name := range prog.Bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, start := range names {
		if visited[start] {
			continue
		}
		var comp []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			neighbors := append(append([]string{}, g.Dependencies(cur)...), g.Dependents(cur)...)
			sort.Strings(neighbors)
			for _, n := range neighbors {
				if bucket[n] != bucket[start] || visited[n] {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}
		sort.Strings(comp)
		components = append(components, comp)
	}
	return components
}

func addUnique(list *[]string, name string) {
	for _, existing := range *list {
		if existing == name {
			return
		}
	}
	*list = append(*list, name)
}

// checkSwatchOrder verifies the swatch-level graph induced by
// input/output buffers is acyclic (spec.md §4.6: "execution order among
// swatches is a topological sort over the swatch-level graph").
func checkSwatchOrder(swatches []*ir.Swatch) *errs.Error {
	producesBuffer := map[string]*ir.Swatch{}
	for _, s := range swatches {
		for _, out := range s.OutputBuffers {
			producesBuffer[out] = s
		}
	}
	state := map[*ir.Swatch]int{}
	var visit func(s *ir.Swatch) *errs.Error
	visit = func(s *ir.Swatch) *errs.Error {
		switch state[s] {
		case 2:
			return nil
		case 1:
			return errs.New(errs.CircularDependency, nil, "circular cross-domain buffer dependency involving swatch %q", s.ID)
		}
		state[s] = 1
		for _, in := range s.InputBuffers {
			if producer, ok := producesBuffer[in]; ok {
				if err := visit(producer); err != nil {
					return err
				}
			}
		}
		state[s] = 2
		return nil
	}
	for _, s := range swatches {
		if err := visit(s); err != nil {
			return err
		}
	}
	return nil
}
