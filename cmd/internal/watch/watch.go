// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package watch implements weftc's --watch mode (spec.md §9): recompile
// a source file whenever it changes on disk. Files it #includes are not
// watched.
// It is grounded on the teacher's filewatcher package, trimmed down
// from watching a whole bundle tree plus a storage transaction to
// watching a single file and re-running one callback.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/weft-lang/weft/internal/wlog"
	"github.com/weft-lang/weft/util"
)

// Run watches path's directory and reruns recompile whenever path itself
// is created, written, removed or renamed,
// until recompile fails maxConsecutiveFailures times in a row or the
// watcher itself errors out irrecoverably. It always runs recompile
// once up front. Run blocks; it returns a process exit code.
func Run(path string, log wlog.Logger, recompile func() error) int {
	if err := recompile(); err != nil {
		log.Errorf("initial compile failed: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorf("watch: %v", err)
		return 1
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		log.Errorf("watch: %v", err)
		return 1
	}
	log.WithField("path", dir).Debug("watching directory for changes")

	const maxConsecutiveFailures = 8
	failures := 0

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			mask := fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
			if evt.Op&mask == 0 {
				continue
			}
			if filepath.Clean(evt.Name) != filepath.Clean(path) {
				continue
			}
			log.WithField("event", evt.String()).Debug("source changed, recompiling")

			if err := recompile(); err != nil {
				failures++
				log.Errorf("recompile failed (%d/%d): %v", failures, maxConsecutiveFailures, err)
				if failures >= maxConsecutiveFailures {
					return 1
				}
				time.Sleep(util.DefaultBackoff(float64(100*time.Millisecond), float64(5*time.Second), failures))
				continue
			}
			failures = 0

		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			log.Errorf("watch: %v", err)
		}
	}
}
