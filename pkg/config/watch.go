package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the configuration file for changes and triggers reloads.
// Rapid write bursts (editors, atomic renames) are debounced into a single
// reload.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		debounce: 200 * time.Millisecond,
		watcher:  watcher,
		logger:   logger.With("component", "config.watcher"),
	}, nil
}

// Watch blocks until ctx is cancelled, invoking onReload with the freshly
// loaded configuration after every change to the file. A reload that fails
// to load or validate is logged and dropped; the previous configuration
// stays in effect.
func (w *Watcher) Watch(ctx context.Context, onReload func(*Config)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.watcher.Close()
	}()

	// Watch the directory, not the file: editors replace files by rename
	// and a watch on the old inode would go silent.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("Configuration watcher started", "path", w.path)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Configuration watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload(onReload)
		}
	}
}

func (w *Watcher) reload(onReload func(*Config)) {
	cfg, err := LoadWithEnvOverrides(w.path)
	if err != nil {
		w.logger.Error("Configuration reload failed, keeping previous configuration",
			"path", w.path, "error", err)
		return
	}

	w.logger.Info("Configuration reloaded", "path", w.path)
	onReload(cfg)
}
