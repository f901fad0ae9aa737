// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package library

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchLag is the minimum time between two recompiles of the same
// source triggered by file events, which editors tend to emit in bursts.
var WatchLag = 100 * time.Millisecond

// Watch watches the directories of the known shader sources and the
// include directories, and recompiles every source whose file or any
// of its includes is written, until the context is done. Compile
// failures are logged by [Library.Compile] and do not stop watching.
// Sources compiled after Watch starts are watched only if their
// directory already is.
func (lb *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, dir := range lb.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("cannot watch shader directory", "dir", dir, "err", err)
		}
	}
	last := map[string]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			lb.watchUpdate(filepath.Clean(event.Name), last)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("shader watcher", "err", err)
		}
	}
}

// watchUpdate recompiles the sources that depend on the given file.
func (lb *Library) watchUpdate(file string, last map[string]time.Time) {
	now := time.Now()
	for _, p := range lb.dependents(file) {
		if t, ok := last[p]; ok && now.Sub(t) < WatchLag {
			continue
		}
		last[p] = now
		slog.Info("shader source changed, recompiling", "path", p, "file", file)
		lb.Compile(p, false, false)
	}
}
