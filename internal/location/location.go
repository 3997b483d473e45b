// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package location records positions in WEFT source code, plus the line
// map produced by the #include pre-pass so reported positions can be
// translated back to the file that actually contains them.
package location

import "fmt"

// Location is a single point in (possibly preprocessed) source text.
type Location struct {
	Text []byte // original text fragment, set for tokens
	File string // source file, may be empty for in-memory sources
	Row  int    // 1-based line
	Col  int    // 1-based column
}

// New returns a new Location.
func New(text []byte, file string, row, col int) *Location {
	return &Location{Text: text, File: file, Row: row, Col: col}
}

// String renders "file:row:col" or "row:col" when no file is known.
func (loc *Location) String() string {
	if loc == nil {
		return "<unknown>"
	}
	if loc.File != "" {
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Row, loc.Col)
	}
	return fmt.Sprintf("%d:%d", loc.Row, loc.Col)
}

// Errorf returns an error formatted with the location prefixed.
func (loc *Location) Errorf(f string, a ...interface{}) error {
	return fmt.Errorf("%s: %s", loc, fmt.Sprintf(f, a...))
}

// Map translates a (row, col) in preprocessed/expanded source back to the
// file and row that originally produced it. It is built by the #include
// pre-pass (spec.md §1, §6.3) as it concatenates included files into one
// source string.
type Map struct {
	// entries is sorted by ExpandedRow ascending; Resolve scans it in order.
	entries []mapEntry
}

type mapEntry struct {
	ExpandedRow int
	File        string
	OriginalRow int
}

// NewMap returns an empty Map that maps every row to the given root file
// with no offset, until entries are added with Add.
func NewMap(rootFile string) *Map {
	return &Map{entries: []mapEntry{{ExpandedRow: 1, File: rootFile, OriginalRow: 1}}}
}

// Add records that starting at expandedRow, rows originate from file at
// originalRow (incrementing together from that point on, until the next
// Add call). Add calls must be made in increasing ExpandedRow order.
func (m *Map) Add(expandedRow int, file string, originalRow int) {
	m.entries = append(m.entries, mapEntry{ExpandedRow: expandedRow, File: file, OriginalRow: originalRow})
}

// Resolve maps a row in the expanded source to the original file and row.
func (m *Map) Resolve(row, col int) *Location {
	if m == nil || len(m.entries) == 0 {
		return &Location{Row: row, Col: col}
	}
	best := m.entries[0]
	for _, e := range m.entries {
		if e.ExpandedRow > row {
			break
		}
		best = e
	}
	return &Location{File: best.File, Row: best.OriginalRow + (row - best.ExpandedRow), Col: col}
}
