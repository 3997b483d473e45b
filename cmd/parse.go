// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/weft-lang/weft"
	"github.com/weft-lang/weft/cmd/formats"
	"github.com/weft-lang/weft/cmd/internal/env"
	"github.com/weft-lang/weft/util"
)

type parseParams struct {
	format *util.EnumFlag
}

var configuredParseParams = parseParams{
	format: formats.Flag(formats.Pretty, formats.JSON),
}

var parseCommand = &cobra.Command{
	Use:   "parse <path>",
	Short: "Parse a WEFT source file",
	Long:  `Parse a WEFT source file and print its abstract syntax tree.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no source file specified")
		}
		return env.CmdFlags.CheckEnvironmentVariables(cmd)
	},
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(parse(args, &configuredParseParams, os.Stdout, os.Stderr))
	},
}

func parse(args []string, params *parseParams, stdout, stderr io.Writer) int {
	src, err := readSource(args[0])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	prog, perr := weft.Parse(src, args[0])
	if perr != nil {
		fmt.Fprintln(stderr, perr)
		return 1
	}

	switch params.format.String() {
	case formats.JSON:
		bs, err := json.MarshalIndent(prog, "", "  ")
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, string(bs))
	default:
		fmt.Fprintf(stdout, "%#v\n", prog)
	}

	return 0
}

func init() {
	addOutputFormat(parseCommand.Flags(), configuredParseParams.format)
	RootCommand.AddCommand(parseCommand)
}
