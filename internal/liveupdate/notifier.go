// Package liveupdate tells development clients that the build cache changed.
package liveupdate

import (
	"context"
	stderrors "errors"
	"time"
)

// Update describes one cache change.
type Update struct {
	CycleID string    `json:"cycle_id"`
	Hash    string    `json:"hash"`
	Pages   int       `json:"pages"`
	Time    time.Time `json:"time"`
}

// Notifier delivers updates to interested clients.
type Notifier interface {
	Notify(ctx context.Context, u Update) error
}

// Multi fans an update out to every notifier, collecting errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, u Update) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
