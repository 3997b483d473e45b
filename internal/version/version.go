// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package version holds build-time metadata stamped in by the release
// process via -ldflags, mirroring the teacher's version package.
package version

import "runtime"

// Version is the semantic version of this build, overridden at link
// time with -X github.com/weft-lang/weft/internal/version.Version=....
var Version = "0.0.0-dev"

// Vcs is the commit hash this build was produced from.
var Vcs = "unknown"

// Timestamp is the build time in RFC3339.
var Timestamp = "unknown"

// Hostname is the hostname of the machine that produced this build.
var Hostname = "unknown"

// GoVersion is the Go toolchain version used to produce this build.
var GoVersion = runtime.Version()
