// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch invalidates OperationCache entries when a file changes
// under the agent's working directory outside of the agent's own
// write_file/str_replace tools (§10, file-watch cache invalidation) — a
// user editing a file in their editor while a session is open must not
// leave a stale read_file/code_search result cached.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Invalidator is the subset of *cache.Cache this package depends on.
type Invalidator interface {
	InvalidatePath(path string)
}

// DefaultDebounce coalesces bursts of events (e.g. an editor's
// write-then-rename save pattern) into a single invalidation.
const DefaultDebounce = 100 * time.Millisecond

// Watcher recursively watches a directory tree and invalidates cache
// entries for any path that changes under it.
type Watcher struct {
	fsw      *fsnotify.Watcher
	basePath string
	cache    Invalidator
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// Config configures a Watcher.
type Config struct {
	BasePath string
	Cache    Invalidator
	Debounce time.Duration
	Logger   *slog.Logger
}

// New constructs a Watcher over cfg.BasePath. The filesystem watch itself
// is not established until Start is called.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		fsw:      fsw,
		basePath: cfg.BasePath,
		cache:    cfg.Cache,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Start adds basePath and all its subdirectories to the watch set and
// begins processing events in a background goroutine. Start is a no-op if
// the watcher is already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := w.addTree(w.basePath); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	go w.run(runCtx)

	w.logger.Info("watch started", "path", w.basePath)
	return nil
}

// Stop closes the underlying fsnotify watcher and stops event processing.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.cancel()
	w.running = false
	return w.fsw.Close()
}

// addTree registers base and every directory beneath it, skipping the
// usual VCS/build noise.
func (w *Watcher) addTree(base string) error {
	return filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if isIgnoredDir(info.Name()) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Warn("watch: failed to add directory", "path", path, "error", addErr)
		}
		return nil
	})
}

func isIgnoredDir(name string) bool {
	switch name {
	case ".git", "node_modules", "vendor":
		return true
	default:
		return false
	}
}

func (w *Watcher) run(ctx context.Context) {
	pending := make(map[string]struct{})
	var mu sync.Mutex
	var timer *time.Timer

	flush := func() {
		mu.Lock()
		paths := pending
		pending = make(map[string]struct{})
		mu.Unlock()

		for path := range paths {
			w.cache.InvalidatePath(path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			flush()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !isIgnoredDir(info.Name()) {
						if err := w.fsw.Add(event.Name); err != nil {
							w.logger.Warn("watch: failed to add new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			mu.Lock()
			pending[event.Name] = struct{}{}
			mu.Unlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, flush)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch: fsnotify error", "path", w.basePath, "error", err)
		}
	}
}
