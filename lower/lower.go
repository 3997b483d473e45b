// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package lower implements the WEFT lowerer (spec.md §4.3): it turns an
// ast.Program into an ir.Program, resolving widths, strand accessors,
// chains, ranges, remaps and resource paths along the way.
package lower

import (
	"sort"

	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/ir"
)

// declaration tracks one source-order bundle declaration while pass 2
// lowers it, before the final topological sort assembles Program.Order.
type declaration struct {
	bundle  string
	strands []string // names set by this declaration, "" for positional
	exprs   map[int]ir.Expr
}

// Lowerer holds the registration-pass state shared by both passes
// (spec.md §4.3: "Two passes over the AST").
type Lowerer struct {
	bundleWidth       map[string]int
	bundleStrandIndex map[string]map[string]int // bundle -> strand name -> index
	bundleStrands     map[string]map[int]ir.Strand
	spindleWidth      map[string]int
	spindleParams     map[string][]string
	spindleReturns    map[string][]ir.Expr

	resourceIndex     map[string]int
	resources         []string
	textResourceIndex map[string]int
	textResources     []string

	curSpindle string
	curParams  map[string]bool

	// Local scope for the spindle body currently being lowered (spec.md
	// §3.1 "body (bundle declarations visible only inside, plus ...)").
	// nil outside a spindle body.
	localWidth       map[string]int
	localStrandIndex map[string]map[string]int
	localStrands     map[string]map[int]ir.Strand

	// spindleLocalBundles carries each spindle's finished local bundles
	// from lowerSpindleDef through to assemble, since the lowering scope
	// itself is torn down (restored to the enclosing scope) once the
	// spindle body is done.
	spindleLocalBundles map[string]map[string]*ir.Bundle

	decls []*declaration
}

// registerOutputs assigns a strand slot to each output of one bundle
// declaration, mutating idx (name -> slot) and returning the resulting
// bundle width. A positional output takes its own index. A named output
// whose name is already registered reuses that slot (a redeclaration
// overwriting an existing strand); any other named output is appended
// starting from width, so that successive
// `bundle.strand = expr` statements grow the bundle one strand at a time
// (spec.md §8 "redeclared bundles merge strand-by-strand in declaration
// order").
func registerOutputs(idx map[string]int, width int, outputs []ast.Output) int {
	next := width
	for _, out := range outputs {
		slot := next
		switch {
		case out.HasIx:
			slot = out.Index
		case out.Name != "":
			if existing, ok := idx[out.Name]; ok {
				slot = existing
			}
		}
		if out.Name != "" {
			idx[out.Name] = slot
		}
		if slot >= next {
			next = slot + 1
		}
	}
	return next
}

// lookupWidth resolves a bundle name against the current spindle-local
// scope first, falling back to the global (top-level) bundles.
func (l *Lowerer) lookupWidth(name string) (int, bool) {
	if l.localWidth != nil {
		if w, ok := l.localWidth[name]; ok {
			return w, true
		}
	}
	w, ok := l.bundleWidth[name]
	return w, ok
}

func (l *Lowerer) lookupStrandIndex(name string) map[string]int {
	if l.localStrandIndex != nil {
		if idx, ok := l.localStrandIndex[name]; ok {
			return idx
		}
	}
	return l.bundleStrandIndex[name]
}

// Lower runs both passes and returns a complete ir.Program, or the first
// error encountered (spec.md §7: passes return their first error).
func Lower(prog *ast.Program) (*ir.Program, error) {
	l := &Lowerer{
		bundleWidth:         map[string]int{},
		bundleStrandIndex:   map[string]map[string]int{},
		bundleStrands:       map[string]map[int]ir.Strand{},
		spindleWidth:        map[string]int{},
		spindleParams:       map[string][]string{},
		spindleReturns:      map[string][]ir.Expr{},
		spindleLocalBundles: map[string]map[string]*ir.Bundle{},
		resourceIndex:       map[string]int{},
		textResourceIndex:   map[string]int{},
	}
	if err := l.register(prog); err != nil {
		return nil, err
	}
	if err := l.lowerAll(prog); err != nil {
		return nil, err
	}
	return l.assemble()
}

func (l *Lowerer) inSpindleParams(name string) bool {
	return l.curParams != nil && l.curParams[name]
}

// register is pass 1 (spec.md §4.3 "Pass 1 — registration").
func (l *Lowerer) register(prog *ast.Program) *errs.Error {
	for _, stmt := range prog.Statements {
		switch n := stmt.(type) {
		case *ast.BundleDecl:
			idx, ok := l.bundleStrandIndex[n.Name]
			if !ok {
				idx = map[string]int{}
				l.bundleStrandIndex[n.Name] = idx
			}
			next := registerOutputs(idx, l.bundleWidth[n.Name], n.Outputs)
			if next > l.bundleWidth[n.Name] {
				l.bundleWidth[n.Name] = next
			}
		case *ast.SpindleDef:
			if _, exists := l.spindleWidth[n.Name]; exists {
				return errs.New(errs.DuplicateSpindle, n.Loc, "spindle %q defined more than once", n.Name)
			}
			seen := map[int]bool{}
			maxIdx := -1
			for _, r := range n.Returns {
				seen[r.Index] = true
				if r.Index > maxIdx {
					maxIdx = r.Index
				}
			}
			for i := 0; i <= maxIdx; i++ {
				if !seen[i] {
					return errs.New(errs.MissingReturnIndex, n.Loc, "spindle %q is missing return.%d", n.Name, i)
				}
			}
			l.spindleWidth[n.Name] = maxIdx + 1
			l.spindleParams[n.Name] = n.Params
		}
	}
	return nil
}

// lowerAll is pass 2 (spec.md §4.3 "Pass 2 — lowering").
func (l *Lowerer) lowerAll(prog *ast.Program) *errs.Error {
	for _, stmt := range prog.Statements {
		switch n := stmt.(type) {
		case *ast.BundleDecl:
			if err := l.lowerBundleDecl(n); err != nil {
				return err
			}
		case *ast.SpindleDef:
			if err := l.lowerSpindleDef(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Lowerer) lowerBundleDecl(n *ast.BundleDecl) *errs.Error {
	values, err := l.lowerToStrands(n.Expr, len(n.Outputs), nil)
	if err != nil {
		return err
	}
	if len(values) != len(n.Outputs) {
		return errs.New(errs.WidthMismatch, n.Loc, "bundle %q declares %d outputs but its expression produces %d", n.Name, len(n.Outputs), len(values))
	}
	slots, ok := l.bundleStrands[n.Name]
	if !ok {
		slots = map[int]ir.Strand{}
		l.bundleStrands[n.Name] = slots
	}
	d := &declaration{bundle: n.Name, exprs: map[int]ir.Expr{}}
	idx := l.bundleStrandIndex[n.Name]
	for i, out := range n.Outputs {
		slot := out.Index
		if !out.HasIx {
			slot = idx[out.Name]
		}
		slots[slot] = ir.Strand{Name: out.Name, Index: slot, Expr: values[i]}
		d.strands = append(d.strands, out.Name)
		d.exprs[slot] = values[i]
	}
	l.decls = append(l.decls, d)
	return nil
}

// lowerLocalDecl lowers one bundle declaration inside a spindle body into
// the current localStrands scope (spec.md §3.1: locals are "visible only
// inside" the spindle, so they never contribute to Program.Order).
func (l *Lowerer) lowerLocalDecl(n *ast.BundleDecl) *errs.Error {
	values, err := l.lowerToStrands(n.Expr, len(n.Outputs), nil)
	if err != nil {
		return err
	}
	if len(values) != len(n.Outputs) {
		return errs.New(errs.WidthMismatch, n.Loc, "local bundle %q declares %d outputs but its expression produces %d", n.Name, len(n.Outputs), len(values))
	}
	slots, ok := l.localStrands[n.Name]
	if !ok {
		slots = map[int]ir.Strand{}
		l.localStrands[n.Name] = slots
	}
	idx := l.localStrandIndex[n.Name]
	for i, out := range n.Outputs {
		slot := out.Index
		if !out.HasIx {
			slot = idx[out.Name]
		}
		slots[slot] = ir.Strand{Name: out.Name, Index: slot, Expr: values[i]}
	}
	return nil
}

func (l *Lowerer) lowerSpindleDef(n *ast.SpindleDef) *errs.Error {
	prevSpindle, prevParams := l.curSpindle, l.curParams
	prevLocalWidth, prevLocalIdx, prevLocalStrands := l.localWidth, l.localStrandIndex, l.localStrands
	l.curSpindle = n.Name
	l.curParams = map[string]bool{}
	for _, p := range n.Params {
		l.curParams[p] = true
	}
	l.localWidth = map[string]int{}
	l.localStrandIndex = map[string]map[string]int{}
	l.localStrands = map[string]map[int]ir.Strand{}
	defer func() {
		l.curSpindle, l.curParams = prevSpindle, prevParams
		l.localWidth, l.localStrandIndex, l.localStrands = prevLocalWidth, prevLocalIdx, prevLocalStrands
	}()

	for _, ld := range n.Locals {
		idx, ok := l.localStrandIndex[ld.Name]
		if !ok {
			idx = map[string]int{}
			l.localStrandIndex[ld.Name] = idx
		}
		next := registerOutputs(idx, l.localWidth[ld.Name], ld.Outputs)
		if next > l.localWidth[ld.Name] {
			l.localWidth[ld.Name] = next
		}
	}
	for _, ld := range n.Locals {
		if err := l.lowerLocalDecl(ld); err != nil {
			return err
		}
	}
	locals := map[string]*ir.Bundle{}
	for name, slots := range l.localStrands {
		width := l.localWidth[name]
		strands := make([]ir.Strand, width)
		for i := 0; i < width; i++ {
			strands[i] = slots[i]
			strands[i].Index = i
		}
		locals[name] = &ir.Bundle{Name: name, Strands: strands}
	}
	l.spindleLocalBundles[n.Name] = locals

	returns := make([]ir.Expr, len(n.Returns))
	for _, r := range n.Returns {
		e, err := l.lowerExpr(r.Expr, nil)
		if err != nil {
			return err
		}
		returns[r.Index] = e
	}
	l.spindleReturns[n.Name] = returns
	return nil
}

// assemble builds the final ir.Program from accumulated per-bundle strand
// maps and the topologically sorted declaration order (spec.md §4.3.5).
func (l *Lowerer) assemble() (*ir.Program, error) {
	prog := &ir.Program{
		Bundles:       map[string]*ir.Bundle{},
		Spindles:      map[string]*ir.Spindle{},
		Resources:     l.resources,
		TextResources: l.textResources,
	}
	for name, slots := range l.bundleStrands {
		width := l.bundleWidth[name]
		strands := make([]ir.Strand, width)
		for i := 0; i < width; i++ {
			strands[i] = slots[i]
			strands[i].Index = i
		}
		prog.Bundles[name] = &ir.Bundle{Name: name, Strands: strands}
	}
	for name, params := range l.spindleParams {
		if _, ok := prog.Spindles[name]; !ok {
			prog.Spindles[name] = &ir.Spindle{Name: name, Params: params, Locals: map[string]*ir.Bundle{}}
		}
	}
	for name, fn := range l.spindleReturns {
		s, ok := prog.Spindles[name]
		if !ok {
			s = &ir.Spindle{Name: name, Params: l.spindleParams[name], Locals: map[string]*ir.Bundle{}}
			prog.Spindles[name] = s
		}
		s.Returns = fn
		if locals, ok := l.spindleLocalBundles[name]; ok {
			s.Locals = locals
		}
	}

	order, err := l.topoSort()
	if err != nil {
		return nil, err
	}
	prog.Order = order
	return prog, nil
}

// topoSort orders declarations so that a bundle's dependencies precede it
// (spec.md §4.3.5), detecting cycles via depth-first visitation.
func (l *Lowerer) topoSort() ([]ir.OrderEntry, *errs.Error) {
	deps := map[string]map[string]bool{}
	for bundle, slots := range l.bundleStrands {
		refs := map[string]bool{}
		for _, st := range slots {
			for ref := range ir.FreeBundleRefs(st.Expr, bundle) {
				base := ref
				if dot := indexOfByte(ref, '.'); dot >= 0 {
					base = ref[:dot]
				}
				refs[base] = true
			}
		}
		deps[bundle] = refs
	}

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
		names := make([]string, 0, len(deps[name]))
		for d := range deps[name] {
			names = append(names, d)
		}
		sort.Strings(names)
		for _, d := range names {
			if _, ok := l.bundleStrands[d]; !ok {
				continue // not a bundle (spindle param, unresolved — surfaced elsewhere)
			}
			if err := visit(d); err != nil {
				return err
			}
		}
		state[name] = 2
		order = append(order, name)
		return nil
	}
	allNames := make([]string, 0, len(l.bundleStrands))
	for name := range l.bundleStrands {
		allNames = append(allNames, name)
	}
	sort.Strings(allNames)
	for _, name := range allNames {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	rank := map[string]int{}
	for i, name := range order {
		rank[name] = i
	}
	sorted := make([]*declaration, len(l.decls))
	copy(sorted, l.decls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank[sorted[i].bundle] < rank[sorted[j].bundle]
	})

	entries := make([]ir.OrderEntry, len(sorted))
	for i, d := range sorted {
		entries[i] = ir.OrderEntry{Bundle: d.bundle, Strands: d.strands}
	}
	return entries, nil
}

func indexOfByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
