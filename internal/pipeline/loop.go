package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/source"
)

// Trigger requests a refresh cycle. While a cycle is running at most one
// further request is kept; later ones are merged into it.
func (r *Runner) Trigger(reason string) {
	select {
	case r.pending <- reason:
	default:
		slog.Debug("Refresh already pending", logfields.Trigger(reason))
	}
}

// Run executes an initial cycle and then one cycle per pending trigger until
// ctx is done. Watchers are started with Trigger as their callback. Failed
// cycles are logged and do not stop the loop.
func (r *Runner) Run(ctx context.Context, watchers ...source.Watcher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range watchers {
		if w == nil {
			continue
		}
		wg.Add(1)
		go func(w source.Watcher) {
			defer wg.Done()
			if err := w.Watch(ctx, r.Trigger); err != nil && ctx.Err() == nil {
				slog.Error("Content watcher stopped", logfields.Error(err))
			}
		}(w)
	}
	defer wg.Wait()

	_, _ = r.RunOnce(ctx, TriggerInitial)

	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-r.pending:
			if ctx.Err() != nil {
				return nil
			}
			_, _ = r.RunOnce(ctx, reason)
		}
	}
}
