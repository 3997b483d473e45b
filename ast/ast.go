// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ast defines the WEFT abstract syntax tree (spec.md §3.1) and
// the recursive-descent parser that produces it (spec.md §4.2).
package ast

import "github.com/weft-lang/weft/internal/location"

// Program is the top-level parse result: an ordered list of statements.
// Order matters — redeclared bundles merge strand-by-strand in
// declaration order (spec.md §8 "Boundary behaviors").
type Program struct {
	Statements []Statement
}

// Statement is either a *BundleDecl or a *SpindleDef.
type Statement interface {
	stmtNode()
}

// Output names a single output slot of a bundle declaration: either a
// bare name (Name != "") or a positional index (Name == "", Index set).
type Output struct {
	Name  string
	Index int
	HasIx bool
}

// BundleDecl is a bundle declaration: `name[out...] = expr` or the
// shorthand `name.strand = expr` (spec.md §3.1, §6.1).
type BundleDecl struct {
	Name    string
	Outputs []Output
	Expr    Expr
	Loc     *location.Location
}

func (*BundleDecl) stmtNode() {}

// ReturnStmt is one `return.N = expr` assignment inside a spindle body.
type ReturnStmt struct {
	Index int
	Expr  Expr
	Loc   *location.Location
}

// SpindleDef is a pure multi-return function definition (spec.md §3.1).
type SpindleDef struct {
	Name    string
	Params  []string
	Locals  []*BundleDecl
	Returns []*ReturnStmt
	Loc     *location.Location
}

func (*SpindleDef) stmtNode() {}

// Expr is the sum type of WEFT expressions (spec.md §3.1).
type Expr interface {
	exprNode()
	Location() *location.Location
}

type exprBase struct {
	Loc *location.Location
}

func (e exprBase) Location() *location.Location { return e.Loc }

// NumberLit is a numeric literal.
type NumberLit struct {
	exprBase
	Value float64
}

func (*NumberLit) exprNode() {}

// StringLit is a string literal, legal only as the first argument to
// resource builtins (spec.md §3.1).
type StringLit struct {
	exprBase
	Value string
}

func (*StringLit) exprNode() {}

// Ident is a bare identifier: a bundle name, a spindle parameter, or the
// `me` pseudo-bundle.
type Ident struct {
	exprBase
	Name string
}

func (*Ident) exprNode() {}

// BundleLit is a bundle literal `[e, ...]`.
type BundleLit struct {
	exprBase
	Elems []Expr
}

func (*BundleLit) exprNode() {}

// Accessor selects one strand of a bundle: a name, an integer (possibly
// negative), or a computed expression `.(expr)`.
type Accessor struct {
	Named    string
	HasIndex bool
	Index    int
	Computed Expr
}

// StrandAccess is `base.accessor` or, when Base == nil, a bare `.accessor`
// (legal only inside a chain pattern, spec.md §4.3.3).
type StrandAccess struct {
	exprBase
	Base     Expr // nil for bare access
	Accessor Accessor
}

func (*StrandAccess) exprNode() {}

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a unary operator application (`-` or `!`).
type UnaryExpr struct {
	exprBase
	Op string
	X  Expr
}

func (*UnaryExpr) exprNode() {}

// CallExpr is a spindle (or builtin-looking) call `name(args...)`.
type CallExpr struct {
	exprBase
	Name string
	Args []Expr
}

func (*CallExpr) exprNode() {}

// ExtractExpr is `call.N`, selecting return slot N of a multi-return call.
type ExtractExpr struct {
	exprBase
	Call  Expr
	Index int
}

func (*ExtractExpr) exprNode() {}

// RemapSub is one `dom ~ expr` pair inside a remap.
type RemapSub struct {
	Dom  Expr
	Expr Expr
}

// RemapExpr is `base(dom1~e1, ...)`.
type RemapExpr struct {
	exprBase
	Base Expr
	Subs []RemapSub
}

func (*RemapExpr) exprNode() {}

// ChainStage is one `{ ... }` pattern block of a chain expression.
type ChainStage struct {
	Outputs []Expr
}

// ChainExpr is `base -> {...} -> {...}`.
type ChainExpr struct {
	exprBase
	Base   Expr
	Stages []ChainStage
}

func (*ChainExpr) exprNode() {}

// RangeExpr is `a..b`; either bound may be nil (omitted) or negative.
type RangeExpr struct {
	exprBase
	Lo Expr // nil if omitted
	Hi Expr // nil if omitted
}

func (*RangeExpr) exprNode() {}
