package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

// Event type names.
const (
	TypeCycleStarted   = "CycleStarted"
	TypeEntriesFetched = "EntriesFetched"
	TypePagesDerived   = "PagesDerived"
	TypeCacheWritten   = "CacheWritten"
	TypeCycleCompleted = "CycleCompleted"
	TypeCycleFailed    = "CycleFailed"
)

func newBaseEvent(cycleID, eventType string, payload any) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, errors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("cycle_id", cycleID).
			Build()
	}
	return BaseEvent{
		EventCycleID:   cycleID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// CycleStarted is emitted when a refresh cycle begins.
type CycleStarted struct {
	BaseEvent
	Trigger string `json:"trigger"`
	Source  string `json:"source"`
}

// NewCycleStarted creates a CycleStarted event.
func NewCycleStarted(cycleID, trigger, source string) (*CycleStarted, error) {
	e := &CycleStarted{Trigger: trigger, Source: source}
	base, err := newBaseEvent(cycleID, TypeCycleStarted, map[string]any{
		"trigger": trigger,
		"source":  source,
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// EntriesFetched is emitted after the source returned its entries.
type EntriesFetched struct {
	BaseEvent
	Source   string        `json:"source"`
	Count    int           `json:"count"`
	Duration time.Duration `json:"duration_ms"`
}

// NewEntriesFetched creates an EntriesFetched event.
func NewEntriesFetched(cycleID, source string, count int, duration time.Duration) (*EntriesFetched, error) {
	e := &EntriesFetched{Source: source, Count: count, Duration: duration}
	base, err := newBaseEvent(cycleID, TypeEntriesFetched, map[string]any{
		"source":      source,
		"count":       count,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// PagesDerived is emitted after page routes and common props were derived.
type PagesDerived struct {
	BaseEvent
	Count   int  `json:"count"`
	HasSite bool `json:"has_site"`
}

// NewPagesDerived creates a PagesDerived event.
func NewPagesDerived(cycleID string, count int, hasSite bool) (*PagesDerived, error) {
	e := &PagesDerived{Count: count, HasSite: hasSite}
	base, err := newBaseEvent(cycleID, TypePagesDerived, map[string]any{
		"count":    count,
		"has_site": hasSite,
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// CacheWritten is emitted after the cache file was written or found unchanged.
type CacheWritten struct {
	BaseEvent
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Changed bool   `json:"changed"`
}

// NewCacheWritten creates a CacheWritten event.
func NewCacheWritten(cycleID, path, hash string, changed bool) (*CacheWritten, error) {
	e := &CacheWritten{Path: path, Hash: hash, Changed: changed}
	base, err := newBaseEvent(cycleID, TypeCacheWritten, map[string]any{
		"path":    path,
		"hash":    hash,
		"changed": changed,
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// CycleCompleted is emitted when a cycle finished successfully.
type CycleCompleted struct {
	BaseEvent
	Entries  int           `json:"entries"`
	Pages    int           `json:"pages"`
	Hash     string        `json:"hash"`
	Changed  bool          `json:"changed"`
	Duration time.Duration `json:"duration_ms"`
}

// NewCycleCompleted creates a CycleCompleted event.
func NewCycleCompleted(cycleID string, entries, pages int, hash string, changed bool, duration time.Duration) (*CycleCompleted, error) {
	e := &CycleCompleted{Entries: entries, Pages: pages, Hash: hash, Changed: changed, Duration: duration}
	base, err := newBaseEvent(cycleID, TypeCycleCompleted, map[string]any{
		"entries":     entries,
		"pages":       pages,
		"hash":        hash,
		"changed":     changed,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// CycleFailed is emitted when a stage aborted the cycle.
type CycleFailed struct {
	BaseEvent
	Stage    string        `json:"stage"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration_ms"`
}

// NewCycleFailed creates a CycleFailed event.
func NewCycleFailed(cycleID, stage, errMsg string, duration time.Duration) (*CycleFailed, error) {
	e := &CycleFailed{Stage: stage, Error: errMsg, Duration: duration}
	base, err := newBaseEvent(cycleID, TypeCycleFailed, map[string]any{
		"stage":       stage,
		"error":       errMsg,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}
