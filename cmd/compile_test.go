// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-lang/weft/cmd/formats"
)

func TestCompileOKProducesNoOutput(t *testing.T) {
	path := writeTempSource(t, `display.r = me.x`)
	var stdout, stderr bytes.Buffer
	params := compileParams{format: formats.Flag(formats.Pretty, formats.JSON)}

	rc := compile(path, &params, &stdout, &stderr)
	require.Equal(t, 0, rc, "stderr: %s", stderr.String())
	assert.Empty(t, stdout.String(), "expected no output on success without --emit-plan")
}

func TestCompileEmitsPlanSummary(t *testing.T) {
	path := writeTempSource(t, `
freq.v = 440.0
display.r = freq.v
play[0] = freq.v
`)
	var stdout, stderr bytes.Buffer
	params := compileParams{format: formats.Flag(formats.Pretty, formats.JSON), emitPlan: true}

	rc := compile(path, &params, &stdout, &stderr)
	require.Equal(t, 0, rc, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "swatch")
}

func TestCompileReportsErrorForUnknownBundle(t *testing.T) {
	path := writeTempSource(t, `a.v = b.v`)
	var stdout, stderr bytes.Buffer
	params := compileParams{format: formats.Flag(formats.Pretty, formats.JSON)}

	rc := compile(path, &params, &stdout, &stderr)
	assert.NotEqual(t, 0, rc, "expected a non-zero exit code for an unknown bundle reference")
	assert.NotEmpty(t, stderr.String(), "expected an error message on stderr")
}

func TestCompileReportsMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	params := compileParams{format: formats.Flag(formats.Pretty, formats.JSON)}

	rc := compile(filepath.Join(t.TempDir(), "missing.weft"), &params, &stdout, &stderr)
	assert.NotEqual(t, 0, rc, "expected a non-zero exit code for a missing file")
}
