// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/weft-lang/weft/internal/wlog"
)

func readSource(path string) (string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(bs), nil
}

func newLogger(level string) wlog.Logger {
	l := wlog.New()
	if err := l.SetLevel(level); err != nil {
		l.Warnf("invalid log level %q, leaving default: %v", level, err)
	}
	l.SetOutput(os.Stderr)
	return l
}
