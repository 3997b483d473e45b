// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/weft-lang/weft/cmd/formats"
	"github.com/weft-lang/weft/util"
)

func writeTempSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.weft")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing temp source: %v", err)
	}
	return path
}

func TestParsePrettyOK(t *testing.T) {
	path := writeTempSource(t, `display.r = me.x`)
	var stdout, stderr bytes.Buffer
	params := parseParams{format: formats.Flag(formats.Pretty, formats.JSON)}

	if rc := parse([]string{path}, &params, &stdout, &stderr); rc != 0 {
		t.Fatalf("parse returned %d, stderr: %s", rc, stderr.String())
	}
	if stdout.Len() == 0 {
		t.Errorf("expected non-empty output")
	}
}

func TestParseJSONOK(t *testing.T) {
	path := writeTempSource(t, `display.r = me.x`)
	var stdout, stderr bytes.Buffer
	params := parseParams{format: util.NewEnumFlag(formats.JSON, []string{formats.Pretty, formats.JSON})}

	if rc := parse([]string{path}, &params, &stdout, &stderr); rc != 0 {
		t.Fatalf("parse returned %d, stderr: %s", rc, stderr.String())
	}
	if stdout.Bytes()[0] != '{' && stdout.Bytes()[0] != '[' {
		t.Errorf("expected JSON output, got %q", stdout.String())
	}
}

func TestParseReportsSyntaxError(t *testing.T) {
	path := writeTempSource(t, `display.r = `)
	var stdout, stderr bytes.Buffer
	params := parseParams{format: formats.Flag(formats.Pretty, formats.JSON)}

	if rc := parse([]string{path}, &params, &stdout, &stderr); rc == 0 {
		t.Fatalf("expected a non-zero exit code for a syntax error")
	}
	if stderr.Len() == 0 {
		t.Errorf("expected an error message on stderr")
	}
}

func TestParseReportsMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	params := parseParams{format: formats.Flag(formats.Pretty, formats.JSON)}

	if rc := parse([]string{filepath.Join(t.TempDir(), "missing.weft")}, &params, &stdout, &stderr); rc == 0 {
		t.Fatalf("expected a non-zero exit code for a missing file")
	}
}
