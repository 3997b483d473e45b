// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/weft-lang/weft/util"
)

// repeatedStringFlag collects a string-valued flag that may be passed
// more than once, e.g. -I path1 -I path2.
type repeatedStringFlag struct {
	v []string
}

func (f *repeatedStringFlag) Type() string {
	return "string"
}

func (f *repeatedStringFlag) String() string {
	return strings.Join(f.v, ",")
}

func (f *repeatedStringFlag) Set(s string) error {
	f.v = append(f.v, s)
	return nil
}

func addOutputFormat(fs *pflag.FlagSet, format *util.EnumFlag) {
	fs.VarP(format, "format", "f", "set output format")
}

func addIncludePathFlag(fs *pflag.FlagSet, paths *repeatedStringFlag) {
	fs.VarP(paths, "include", "I", "set #include search path(s). This flag can be repeated.")
}

func addLogLevelFlag(fs *pflag.FlagSet, level *string) {
	fs.StringVarP(level, "log-level", "", "warn", "set log level: debug, info, warn, error")
}

func addWatchFlag(fs *pflag.FlagSet, watch *bool) {
	fs.BoolVarP(watch, "watch", "w", false, "recompile whenever the source file changes")
}
