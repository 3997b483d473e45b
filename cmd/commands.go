// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cmd implements weftc, the WEFT compiler's command line
// interface: parsing, compiling to a Plan, interpreting a strand for a
// single coordinate, printing version information, and watching a
// source file for recompilation (spec.md §6.3, §9).
package cmd

import (
	"github.com/spf13/cobra"
)

// RootCommand is the weftc root command. Each subcommand registers
// itself onto it from its own init().
var RootCommand = &cobra.Command{
	Use:   "weftc",
	Short: "WEFT compiler and tools",
	Long:  "weftc parses, compiles, and interprets WEFT reactive audio/visual dataflow programs.",
}
