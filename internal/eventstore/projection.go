// Package eventstore records refresh cycle events in SQLite and projects them
// into cycle summaries.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Cycle summary states.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CycleSummary is a read model summarizing a completed or in-progress cycle.
type CycleSummary struct {
	CycleID      string        `json:"cycle_id"`
	Trigger      string        `json:"trigger,omitempty"`
	Source       string        `json:"source,omitempty"`
	Status       string        `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Entries      int           `json:"entries"`
	Pages        int           `json:"pages"`
	Hash         string        `json:"hash,omitempty"`
	Changed      bool          `json:"changed"`
	ErrorStage   string        `json:"error_stage,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// CycleHistoryProjection maintains an in-memory view of cycle history,
// reconstructed from events stored in the event store.
type CycleHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	cycles  map[string]*CycleSummary
	history []*CycleSummary // newest first
	maxSize int
}

// NewCycleHistoryProjection creates a new projection backed by the given store.
func NewCycleHistoryProjection(store Store, maxHistorySize int) *CycleHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &CycleHistoryProjection{
		store:   store,
		cycles:  make(map[string]*CycleSummary),
		history: make([]*CycleSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *CycleHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.cycles = make(map[string]*CycleSummary)
	p.history = make([]*CycleSummary, 0, p.maxSize)

	for _, event := range events {
		p.applyEventLocked(event)
	}

	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneLocked()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *CycleHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *CycleHistoryProjection) applyEventLocked(event Event) {
	cycleID := event.CycleID()
	if cycleID == "" {
		return
	}

	summary, exists := p.cycles[cycleID]
	if !exists {
		summary = &CycleSummary{
			CycleID:   cycleID,
			Status:    StatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.cycles[cycleID] = summary
	}

	switch event.Type() {
	case TypeCycleStarted:
		var payload struct {
			Trigger string `json:"trigger"`
			Source  string `json:"source"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Trigger = payload.Trigger
			summary.Source = payload.Source
		}
		summary.StartedAt = event.Timestamp()

	case TypeEntriesFetched:
		var payload struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Entries = payload.Count
		}

	case TypePagesDerived:
		var payload struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Pages = payload.Count
		}

	case TypeCacheWritten:
		var payload struct {
			Hash    string `json:"hash"`
			Changed bool   `json:"changed"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Hash = payload.Hash
			summary.Changed = payload.Changed
		}

	case TypeCycleCompleted:
		p.finishLocked(summary, event, StatusCompleted)

	case TypeCycleFailed:
		var payload struct {
			Stage string `json:"stage"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
		}
		p.finishLocked(summary, event, StatusFailed)
	}
}

func (p *CycleHistoryProjection) finishLocked(summary *CycleSummary, event Event, status string) {
	done := event.Timestamp()
	summary.CompletedAt = &done
	summary.Duration = done.Sub(summary.StartedAt)
	summary.Status = status

	for _, h := range p.history {
		if h.CycleID == summary.CycleID {
			return
		}
	}
	p.history = append([]*CycleSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneLocked()
}

// pruneLocked drops finished cycles that fell out of the bounded history.
func (p *CycleHistoryProjection) pruneLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.CycleID] = struct{}{}
	}
	for id, summary := range p.cycles {
		if summary.Status == StatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.cycles, id)
		}
	}
}

// History returns finished cycles, newest first.
func (p *CycleHistoryProjection) History() []CycleSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]CycleSummary, len(p.history))
	for i, h := range p.history {
		result[i] = *h
	}
	return result
}

// Cycle returns the summary for a specific cycle.
func (p *CycleHistoryProjection) Cycle(cycleID string) (CycleSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, ok := p.cycles[cycleID]
	if !ok {
		return CycleSummary{}, false
	}
	return *summary, true
}

// Last returns the most recently finished cycle.
func (p *CycleHistoryProjection) Last() (CycleSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return CycleSummary{}, false
	}
	return *p.history[0], true
}
