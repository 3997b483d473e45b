// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package formats names the weftc output formats shared by the parse,
// compile, and interpret subcommands.
package formats

import "github.com/weft-lang/weft/util"

type option = string

const (
	Pretty option = "pretty"
	JSON   option = "json"
)

// Flag returns an enum flag for the given formats, where the first
// provided format is the default.
func Flag(formats ...option) *util.EnumFlag {
	return util.NewEnumFlag(formats[0], formats)
}
