// Package source defines the content source contract used by the refresh cycle.
package source

import (
	"context"

	"git.home.luguber.info/inful/contentbuild/internal/content"
)

// Trigger requests a refresh cycle. reason is logged and recorded with the cycle.
type Trigger func(reason string)

// Source fetches the full ordered set of content entries.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]content.Entry, error)
}

// Watcher is implemented by sources that can report content changes.
// Watch blocks until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, trigger Trigger) error
}

// Static is a Source over a fixed entry list.
type Static struct {
	SourceName string
	Entries    []content.Entry
}

// Name implements Source.
func (s Static) Name() string {
	if s.SourceName == "" {
		return "static"
	}
	return s.SourceName
}

// Fetch returns deep copies of the configured entries.
func (s Static) Fetch(ctx context.Context) ([]content.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]content.Entry, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Clone()
	}
	return out, nil
}
