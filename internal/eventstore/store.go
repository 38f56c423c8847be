package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving cycle events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, cycleID, eventType string, payload []byte, metadata map[string]string) error

	// GetByCycleID retrieves all events for a specific cycle, oldest first.
	GetByCycleID(ctx context.Context, cycleID string) ([]Event, error)

	// GetRange retrieves events within a time range, oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Recent retrieves the most recent events, oldest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Record appends a typed event to store. A nil store is a no-op.
func Record(ctx context.Context, store Store, e Event) error {
	if store == nil || e == nil {
		return nil
	}
	return store.Append(ctx, e.CycleID(), e.Type(), e.Payload(), e.Metadata())
}
