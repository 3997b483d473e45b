// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package lex

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/internal/location"
)

// Preprocess resolves #include "path" directives into a single source
// string plus a line map, per spec.md §1: "a thin textual pre-pass that
// produces a single source string plus a line map." Includes are
// resolved relative to includePaths, searched in order; the directory of
// the including file is always searched first. Cyclic includes are
// rejected.
func Preprocess(source, path string, includePaths []string) (string, *location.Map, *errs.Error) {
	var out strings.Builder
	lm := location.NewMap(path)
	visiting := map[string]bool{}
	row := 1
	if err := expand(source, path, includePaths, visiting, &out, lm, &row); err != nil {
		return "", nil, err
	}
	return out.String(), lm, nil
}

func expand(source, file string, includePaths []string, visiting map[string]bool, out *strings.Builder, lm *location.Map, row *int) *errs.Error {
	if visiting[file] {
		return errs.New(errs.CircularDependency, nil, "circular #include involving %s", file)
	}
	visiting[file] = true
	defer delete(visiting, file)

	dir := filepath.Dir(file)
	scanner := bufio.NewScanner(strings.NewReader(source))
	origRow := 1
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#include") {
			incPath, ok := parseIncludeDirective(trimmed)
			if !ok {
				return errs.New(errs.ParseErr, location.New(nil, file, origRow, 1), "malformed #include directive: %s", line)
			}
			resolved, found := resolveInclude(incPath, dir, includePaths)
			if !found {
				return errs.New(errs.ParseErr, location.New(nil, file, origRow, 1), "include not found: %s", incPath)
			}
			data, rerr := os.ReadFile(resolved)
			if rerr != nil {
				return errs.New(errs.ParseErr, location.New(nil, file, origRow, 1), "reading include %s: %v", resolved, rerr)
			}
			lm.Add(*row, resolved, 1)
			if err := expand(string(data), resolved, includePaths, visiting, out, lm, row); err != nil {
				return err
			}
			lm.Add(*row, file, origRow+1)
		} else {
			out.WriteString(line)
			out.WriteByte('\n')
			*row++
		}
		origRow++
	}
	return nil
}

func parseIncludeDirective(trimmed string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "#include"))
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

func resolveInclude(incPath, dir string, includePaths []string) (string, bool) {
	candidates := append([]string{dir}, includePaths...)
	for _, c := range candidates {
		full := filepath.Join(c, incPath)
		if _, err := os.Stat(full); err == nil {
			return full, true
		}
	}
	return "", false
}
