// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weft-lang/weft"
	"github.com/weft-lang/weft/cmd/internal/env"
)

type interpretParams struct {
	includes repeatedStringFlag
	coords   repeatedStringFlag
}

var configuredInterpretParams = interpretParams{}

var interpretCommand = &cobra.Command{
	Use:   "interpret <path> <bundle>",
	Short: "Evaluate every strand of a bundle in a compiled WEFT program",
	Long: `Compile a WEFT source file and evaluate every strand of the
named bundle using the CPU reference interpreter, for a single point in
coordinate space (spec.md §4.9, §6.4).

Coordinates are given with repeated --coord name=value flags, e.g.
--coord x=0.5 --coord y=0.25 --coord t=12.

Examples
--------

	$ weftc interpret shader.weft display --coord x=0.5 --coord y=0.5
`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("specify a source file and a bundle name")
		}
		return env.CmdFlags.CheckEnvironmentVariables(cmd)
	},
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(interpret(args[0], args[1], &configuredInterpretParams, os.Stdout, os.Stderr))
	},
}

func interpret(path, bundle string, params *interpretParams, stdout, stderr io.Writer) int {
	src, err := readSource(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	coords, err := parseCoords(params.coords.v)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	plan, cerr := weft.Compile(src, path, weft.IncludePaths(params.includes.v...))
	if cerr != nil {
		fmt.Fprintln(stderr, cerr)
		return 1
	}

	b, ok := plan.Program.Bundles[bundle]
	if !ok {
		fmt.Fprintf(stderr, "unknown bundle %q\n", bundle)
		return 1
	}

	for _, st := range b.Strands {
		got := weft.Interpret(plan.Program, st.Expr, coords)
		name := st.Name
		if name == "" {
			name = strconv.Itoa(st.Index)
		}
		fmt.Fprintf(stdout, "%s.%s = %v\n", bundle, name, got)
	}

	return 0
}

func parseCoords(raw []string) (map[string]float64, error) {
	coords := make(map[string]float64, len(raw))
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --coord %q, expected name=value", kv)
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --coord %q: %w", kv, err)
		}
		coords[parts[0]] = v
	}
	return coords, nil
}

func init() {
	addIncludePathFlag(interpretCommand.Flags(), &configuredInterpretParams.includes)
	interpretCommand.Flags().VarP(&configuredInterpretParams.coords, "coord", "", "set a coordinate as name=value. This flag can be repeated.")
	RootCommand.AddCommand(interpretCommand)
}
