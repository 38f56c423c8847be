package metrics

import "time"

// Outcome enumerates final cycle states for counters.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
	// OutcomeUnchanged marks a successful cycle whose cache write was skipped.
	OutcomeUnchanged Outcome = "unchanged"
)

// ResultLabel enumerates stage result categories.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for cycles, stages and source requests.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveCycleDuration(d time.Duration)
	IncCycleOutcome(outcome Outcome)
	SetEntries(n int)
	SetPages(n int)
	IncSourceRequest(source string, status int)
	IncSourceRetry(source string)
	SetLiveClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveCycleDuration(time.Duration)         {}
func (NoopRecorder) IncCycleOutcome(Outcome)                    {}
func (NoopRecorder) SetEntries(int)                             {}
func (NoopRecorder) SetPages(int)                               {}
func (NoopRecorder) IncSourceRequest(string, int)               {}
func (NoopRecorder) IncSourceRetry(string)                      {}
func (NoopRecorder) SetLiveClients(int)                         {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
