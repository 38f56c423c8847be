package contentful

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/scheduler"
	"git.home.luguber.info/inful/contentbuild/internal/source"
)

// TriggerReason is passed to the trigger when the Sync API reports changes.
const TriggerReason = "contentful-sync"

// syncState tracks the Sync API cursor.
type syncState struct {
	mu    sync.Mutex
	token string
}

// Watch polls the Sync API every Options.PollInterval and triggers a refresh
// when it reports changed or deleted items. It blocks until ctx is done.
func (s *Source) Watch(ctx context.Context, trigger source.Trigger) error {
	state := &syncState{}
	if _, err := s.syncOnce(ctx, state, true); err != nil {
		return err
	}

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	_, err = sched.Every(s.opts.PollInterval, "contentful-sync", func(context.Context) {
		changed, err := s.syncOnce(ctx, state, false)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("Contentful sync poll failed", logfields.Source(Name), logfields.Error(err))
			}
			return
		}
		if changed > 0 {
			slog.Info("Contentful content changed", logfields.Source(Name), slog.Int("items", changed))
			trigger(TriggerReason)
		}
	})
	if err != nil {
		return err
	}

	slog.Info("Watching Contentful", logfields.Source(Name), slog.Duration("interval", s.opts.PollInterval))
	sched.Start()
	<-ctx.Done()
	return sched.Stop()
}

// syncOnce drains one sync round and returns the number of changed items.
func (s *Source) syncOnce(ctx context.Context, state *syncState, initial bool) (int, error) {
	baseURL, token, err := s.readAccess(ctx)
	if err != nil {
		return 0, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	q := url.Values{}
	if initial || state.token == "" {
		q.Set("initial", "true")
	} else {
		q.Set("sync_token", state.token)
	}

	changed := 0
	for {
		var page syncPage
		err := s.client.do(ctx, request{
			method:  http.MethodGet,
			baseURL: baseURL,
			path:    s.environmentPath("sync"),
			query:   q,
			token:   token,
		}, &page)
		if err != nil {
			return 0, err
		}
		changed += len(page.Items)

		if page.NextPageURL != "" {
			next, err := syncTokenFrom(page.NextPageURL)
			if err != nil {
				return 0, err
			}
			q = url.Values{"sync_token": {next}}
			continue
		}
		next, err := syncTokenFrom(page.NextSyncURL)
		if err != nil {
			return 0, err
		}
		state.token = next
		if initial {
			return 0, nil
		}
		return changed, nil
	}
}

func syncTokenFrom(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.WrapError(err, errors.CategorySource, "invalid sync url").Build()
	}
	token := u.Query().Get("sync_token")
	if token == "" {
		return "", errors.SourceError("sync response has no sync token").
			WithContext("url", raw).
			Build()
	}
	return token, nil
}
