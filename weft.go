// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package weft is the program facade (C10, spec.md §4.10): the single
// entry point external tools and the CLI use to turn WEFT source into a
// compiled Plan, without reaching into the individual compiler passes
// themselves.
package weft

import (
	"github.com/weft-lang/weft/annotate"
	"github.com/weft-lang/weft/ast"
	"github.com/weft-lang/weft/cache"
	"github.com/weft-lang/weft/depgraph"
	"github.com/weft-lang/weft/internal/location"
	"github.com/weft-lang/weft/internal/wlog"
	"github.com/weft-lang/weft/interp"
	"github.com/weft-lang/weft/ir"
	"github.com/weft-lang/weft/lex"
	"github.com/weft-lang/weft/lower"
	"github.com/weft-lang/weft/partition"
	"github.com/weft-lang/weft/rewrite"
)

// Plan is the immutable result of a successful Compile (spec.md §4.10,
// §6.2). Nothing in the pipeline mutates a Plan's contents after
// Compile returns (spec.md §5).
type Plan struct {
	Program          *ir.Program
	Swatches         []*ir.Swatch
	CacheDescriptors []ir.CacheDescriptor
	SourceMap        *location.Map
}

// Option configures a Compile call.
type Option func(*compileConfig)

type compileConfig struct {
	includePaths []string
	log          wlog.Logger
}

// IncludePaths sets the search path for #include directives (spec.md
// §1's preprocessor), tried in order after the including file's own
// directory.
func IncludePaths(paths ...string) Option {
	return func(c *compileConfig) {
		c.includePaths = paths
	}
}

// WithLogger attaches a logger for diagnostic output during compilation.
// Compile never logs user-facing errors this way; errors are always
// returned, never just logged (spec.md §7).
func WithLogger(l wlog.Logger) Option {
	return func(c *compileConfig) {
		c.log = l
	}
}

// Compile turns source into a Plan (spec.md §6.4's
// `compile(source, path) -> Result<Plan, CompileError>`). Compile is
// stateless beyond the supplied options and never panics on user input:
// every pass returns its first error with full source location instead
// (spec.md §7).
func Compile(source, path string, opts ...Option) (*Plan, error) {
	cfg := &compileConfig{log: wlog.NoOp()}
	for _, opt := range opts {
		opt(cfg)
	}

	expanded, sourceMap, perr := lex.Preprocess(source, path, cfg.includePaths)
	if perr != nil {
		return nil, perr
	}
	cfg.log.Debugf("preprocessed %s: %d bytes", path, len(expanded))

	prog, perr := ast.Parse(expanded, path)
	if perr != nil {
		return nil, perr
	}

	lowered, lerr := lower.Lower(prog)
	if lerr != nil {
		return nil, lerr
	}
	cfg.log.Debugf("lowered %d bundles, %d spindles", len(lowered.Bundles), len(lowered.Spindles))

	graph, gerr := depgraph.Build(lowered)
	if gerr != nil {
		return nil, gerr
	}

	ann := annotate.Run(lowered, graph)

	swatches, swerr := partition.Run(lowered, graph, ann)
	if swerr != nil {
		return nil, swerr
	}
	cfg.log.Debugf("partitioned into %d swatches", len(swatches))

	rewritten, rerr := rewrite.Run(lowered)
	if rerr != nil {
		return nil, rerr
	}

	final, descriptors, cerr := cache.Run(rewritten, ann)
	if cerr != nil {
		return nil, cerr
	}
	cfg.log.Debugf("cache analysis produced %d cache nodes", len(descriptors))

	return &Plan{
		Program:          final,
		Swatches:         swatches,
		CacheDescriptors: descriptors,
		SourceMap:        sourceMap,
	}, nil
}

// Parse exposes the parser directly for tooling (spec.md §6.4's
// secondary `parse(source) -> Result<Ast, ParseError>` entry point),
// without running the rest of the pipeline.
func Parse(source, path string) (*ast.Program, error) {
	prog, err := ast.Parse(source, path)
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// Interpret evaluates expr against program using the CPU reference
// interpreter (spec.md §6.4's `interpret(program, expr, coords) -> f64`),
// for tests and offline previews. program may be at any pipeline stage
// from lower.Lower onward.
func Interpret(program *ir.Program, expr ir.Expr, coordinates map[string]float64) float64 {
	return interp.New(program).Eval(expr, coordinates)
}
