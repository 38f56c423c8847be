package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/contentbuild/internal/logfields"
)

// Watcher reloads the configuration file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
}

// NewWatcher creates a watcher for path. Rapid successive writes are merged
// into one reload after debounce.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Watcher{path: path, debounce: debounce}
}

// Watch calls onReload with each successfully loaded new configuration until
// ctx is done. Invalid configurations are logged and skipped; saves that do
// not change the file content are ignored.
func (w *Watcher) Watch(ctx context.Context, onReload func(*Config)) error {
	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// The directory is watched because editors replace files on save.
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	slog.Info("Watching configuration", logfields.Path(absPath))

	last, _ := os.ReadFile(absPath)
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		data, err := os.ReadFile(absPath)
		if err != nil {
			slog.Warn("Config file unreadable", logfields.Path(absPath), logfields.Error(err))
			return
		}
		mu.Lock()
		same := bytes.Equal(data, last)
		last = data
		mu.Unlock()
		if same {
			return
		}
		cfg, err := Load(absPath)
		if err != nil {
			slog.Error("Failed to reload configuration", logfields.Path(absPath), logfields.Error(err))
			return
		}
		if ctx.Err() != nil {
			return
		}
		slog.Info("Configuration reloaded", logfields.Path(absPath))
		onReload(cfg)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	name := filepath.Base(absPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			slog.Debug("Config file change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, reload)
			mu.Unlock()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}
