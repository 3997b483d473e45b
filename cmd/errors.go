// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import "fmt"

// ExitError carries a process exit code out of a command's Run function,
// so callers driving the CLI programmatically (e.g. tests) can inspect
// it instead of parsing stderr.
type ExitError struct {
	Exit int
}

func newExitError(exit int) error {
	return &ExitError{Exit: exit}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Exit)
}
