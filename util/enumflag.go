// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package util holds small CLI-support helpers shared across weftc's
// subcommands: an enumerated pflag.Value and a retry backoff used by
// the watch command.
package util

import (
	"fmt"
	"strings"
)

// EnumFlag implements the pflag.Value interface to provide enumerated
// command line parameter values, e.g. --format=pretty|json.
type EnumFlag struct {
	value string
	vs    []string
}

// NewEnumFlag returns a new EnumFlag with a default value and the set
// of values it will accept.
func NewEnumFlag(defaultValue string, vs []string) *EnumFlag {
	return &EnumFlag{value: defaultValue, vs: vs}
}

func (f *EnumFlag) String() string {
	return f.value
}

func (f *EnumFlag) Set(s string) error {
	for _, v := range f.vs {
		if v == s {
			f.value = s
			return nil
		}
	}
	return fmt.Errorf("invalid value %q, expected one of %s", s, strings.Join(f.vs, ","))
}

func (f *EnumFlag) Type() string {
	return fmt.Sprintf("<%s>", strings.Join(f.vs, ","))
}
