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
	"github.com/weft-lang/weft/cmd/internal/watch"
	"github.com/weft-lang/weft/util"
)

type compileParams struct {
	format   *util.EnumFlag
	includes repeatedStringFlag
	logLevel string
	watch    bool
	emitPlan bool
}

var configuredCompileParams = compileParams{
	format: formats.Flag(formats.Pretty, formats.JSON),
}

var compileCommand = &cobra.Command{
	Use:   "compile <path>",
	Short: "Compile a WEFT source file",
	Long: `Compile a WEFT source file through the full pipeline: preprocess,
parse, lower, build the dependency graph, annotate domains, partition
into swatches, rewrite spindle calls, and run cache analysis.

If compilation succeeds, compile prints nothing unless --emit-plan is
set. If it fails, compile prints the first error with its source
location and exits with a non-zero status.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no source file specified")
		}
		return env.CmdFlags.CheckEnvironmentVariables(cmd)
	},
	Run: func(_ *cobra.Command, args []string) {
		if configuredCompileParams.watch {
			os.Exit(compileWatch(args[0], &configuredCompileParams, os.Stdout, os.Stderr))
			return
		}
		os.Exit(compile(args[0], &configuredCompileParams, os.Stdout, os.Stderr))
	},
}

func compile(path string, params *compileParams, stdout, stderr io.Writer) int {
	src, err := readSource(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	plan, cerr := weft.Compile(src, path,
		weft.IncludePaths(params.includes.v...),
		weft.WithLogger(newLogger(params.logLevel)),
	)
	if cerr != nil {
		outputError(stderr, params.format.String(), cerr)
		return 1
	}

	if params.emitPlan {
		return emitPlan(plan, params.format.String(), stdout, stderr)
	}

	return 0
}

func compileWatch(path string, params *compileParams, stdout, stderr io.Writer) int {
	log := newLogger(params.logLevel)
	return watch.Run(path, log, func() error {
		if rc := compile(path, params, stdout, stderr); rc != 0 {
			return fmt.Errorf("compile failed with exit code %d", rc)
		}
		return nil
	})
}

func emitPlan(plan *weft.Plan, format string, stdout, stderr io.Writer) int {
	switch format {
	case formats.JSON:
		bs, err := json.MarshalIndent(struct {
			Swatches         any `json:"swatches"`
			CacheDescriptors any `json:"cacheDescriptors"`
		}{plan.Swatches, plan.CacheDescriptors}, "", "  ")
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, string(bs))
	default:
		for _, s := range plan.Swatches {
			fmt.Fprintf(stdout, "swatch %s (%s) bundles=%v sink=%v\n", s.ID, s.Backend, s.Bundles, s.IsSink)
		}
		for _, d := range plan.CacheDescriptors {
			fmt.Fprintf(stdout, "cache %d: %s.%d tap=%d history=%d domain=%s\n", d.Index, d.Bundle, d.StrandIndex, d.Tap, d.HistorySize, d.Domain)
		}
	}
	return 0
}

func outputError(out io.Writer, format string, err error) {
	switch format {
	case formats.JSON:
		bs, merr := json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
		if merr != nil {
			fmt.Fprintln(out, err)
			return
		}
		fmt.Fprintln(out, string(bs))
	default:
		fmt.Fprintln(out, err)
	}
}

func init() {
	addOutputFormat(compileCommand.Flags(), configuredCompileParams.format)
	addIncludePathFlag(compileCommand.Flags(), &configuredCompileParams.includes)
	addLogLevelFlag(compileCommand.Flags(), &configuredCompileParams.logLevel)
	addWatchFlag(compileCommand.Flags(), &configuredCompileParams.watch)
	compileCommand.Flags().BoolVar(&configuredCompileParams.emitPlan, "emit-plan", false, "print the compiled swatches and cache descriptors")
	RootCommand.AddCommand(compileCommand)
}
