// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package errs defines the error taxonomy shared by every compilation
// pass (spec.md §7). Passes never panic on user input; each returns its
// first error with a full source location.
package errs

import (
	"fmt"
	"strings"

	"github.com/weft-lang/weft/internal/location"
)

// Code classifies an Error. See spec.md §7 for the full taxonomy.
type Code int

const (
	LexErr Code = iota
	ParseErr
	UnknownBundle
	UnknownStrand
	UnknownSpindle
	UnknownIdentifier
	DuplicateSpindle
	MissingReturnIndex
	WidthMismatch
	RangeOutOfBounds
	RangeOutsidePattern
	BareStrandOutsidePattern
	InvalidRemapArg
	CircularDependency
	InvalidExpression
	Internal
)

var codeNames = map[Code]string{
	LexErr:                   "lexError",
	ParseErr:                 "parseError",
	UnknownBundle:            "unknownBundle",
	UnknownStrand:            "unknownStrand",
	UnknownSpindle:           "unknownSpindle",
	UnknownIdentifier:        "unknownIdentifier",
	DuplicateSpindle:         "duplicateSpindle",
	MissingReturnIndex:       "missingReturnIndex",
	WidthMismatch:            "widthMismatch",
	RangeOutOfBounds:         "rangeOutOfBounds",
	RangeOutsidePattern:      "rangeOutsidePattern",
	BareStrandOutsidePattern: "bareStrandOutsidePattern",
	InvalidRemapArg:          "invalidRemapArg",
	CircularDependency:       "circularDependency",
	InvalidExpression:        "invalidExpression",
	Internal:                 "internal",
}

// String renders the kind name used in "line:column: kind: message".
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

// Error is a single diagnostic produced by a pass.
type Error struct {
	Code     Code
	Location *location.Location
	Message  string
}

// New returns a new Error.
func New(code Code, loc *location.Location, f string, a ...interface{}) *Error {
	return &Error{Code: code, Location: loc, Message: fmt.Sprintf(f, a...)}
}

// Internalf returns an Internal error carrying the originating pass and
// bundle name for diagnosis, per spec.md §7: pipeline invariant
// violations must never surface as ordinary user errors.
func Internalf(pass, bundle string, f string, a ...interface{}) *Error {
	return &Error{
		Code:    Internal,
		Message: fmt.Sprintf("pass=%s bundle=%s: %s", pass, bundle, fmt.Sprintf(f, a...)),
	}
}

func (e *Error) Error() string {
	if e.Location == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Code, e.Message)
}

// Errors is a collection of Error values returned from a pass. A pass
// returns its first error; Errors exists for callers (e.g. the CLI) that
// want to accumulate several before reporting; the compiler facade
// returns a single *Error.
type Errors []*Error

func (e Errors) Error() string {
	if len(e) == 0 {
		return "no error(s)"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	s := make([]string, len(e))
	for i, err := range e {
		s[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred:\n%s", len(e), strings.Join(s, "\n"))
}

// IsCode returns true if err is an *Error with the given code.
func IsCode(code Code, err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
