package localfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/source"
)

// TriggerReason is passed to the trigger for filesystem changes.
const TriggerReason = "fsnotify"

// Watch reports content changes below Options.Dir until ctx is done. Events for
// files whose content fingerprint matches the last Fetch are ignored.
func (s *Source) Watch(ctx context.Context, trigger source.Trigger) error {
	absDir, err := filepath.Abs(s.opts.Dir)
	if err != nil {
		return fmt.Errorf("resolve content dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirsRecursive(watcher, absDir); err != nil {
		return err
	}
	slog.Info("Watching local content", logfields.Source(Name), logfields.Path(absDir))

	debounced, stop := debounce(s.opts.Debounce, func() { trigger(TriggerReason) })
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if s.relevant(watcher, absDir, ev) {
				debounced()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Content watcher error", logfields.Error(err))
		}
	}
}

// relevant decides whether an event should trigger a refresh.
func (s *Source) relevant(w *fsnotify.Watcher, root string, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if isHidden(part) {
			return false
		}
	}

	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, ev.Name)
			return true
		}
	}
	if !isContentFile(ev.Name) {
		// Removing or renaming a directory drops the files below it.
		return ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
	}

	if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
		if s.unchanged(rel, ev.Name) {
			slog.Debug("Ignoring unchanged content file", logfields.Path(rel))
			return false
		}
	}
	slog.Debug("Content change detected", logfields.Path(rel), slog.String("op", ev.Op.String()))
	return true
}

// unchanged reports whether the file still has the fingerprint seen by the last Fetch.
func (s *Source) unchanged(rel, path string) bool {
	prev, ok := s.fingerprintFor(rel)
	if !ok {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, fp, err := s.parseFile(rel, data)
	if err != nil {
		return false
	}
	return fp == prev
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// debounce returns a function that runs fn after d has passed without further calls.
func debounce(d time.Duration, fn func()) (call func(), stop func()) {
	var mu sync.Mutex
	var timer *time.Timer
	stopped := false

	call = func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, fn)
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
	}
	return call, stop
}
