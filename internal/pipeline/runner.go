// Package pipeline runs refresh cycles: fetch entries from a source, flatten
// asset URLs, derive pages and common props, write the cache and notify
// live-update clients.
package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/contentbuild/internal/content"
	"git.home.luguber.info/inful/contentbuild/internal/eventstore"
	"git.home.luguber.info/inful/contentbuild/internal/liveupdate"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/observability"
	"git.home.luguber.info/inful/contentbuild/internal/pages"
	"git.home.luguber.info/inful/contentbuild/internal/source"
	"git.home.luguber.info/inful/contentbuild/internal/target"
)

// Trigger reasons set by the runner itself.
const (
	TriggerInitial = "initial"
	TriggerManual  = "manual"
)

// Runner executes refresh cycles against one source.
type Runner struct {
	source   source.Source
	writer   *target.Writer
	deriver  *pages.Deriver
	flatten  bool
	recorder metrics.Recorder
	store    eventstore.Store
	notifier liveupdate.Notifier
	now      func() time.Time
	newID    func() string

	cycleMu sync.Mutex

	mu   sync.RWMutex
	last *Report

	pending chan string
}

// Option configures a Runner.
type Option func(*Runner)

// WithDeriver overrides the default page deriver.
func WithDeriver(d *pages.Deriver) Option {
	return func(r *Runner) {
		if d != nil {
			r.deriver = d
		}
	}
}

// WithFlattenAssetURLs toggles the flatten stage.
func WithFlattenAssetURLs(enabled bool) Option {
	return func(r *Runner) { r.flatten = enabled }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = metrics.OrNoop(rec) }
}

// WithEventStore records cycle events in store.
func WithEventStore(store eventstore.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithNotifier sends an update after each cycle that changed the cache.
func WithNotifier(n liveupdate.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// New creates a runner reading from src and writing through w.
func New(src source.Source, w *target.Writer, opts ...Option) *Runner {
	r := &Runner{
		source:   src,
		writer:   w,
		deriver:  pages.Default(),
		flatten:  true,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
		pending:  make(chan string, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns a copy of the last cycle report, or nil before the first cycle.
func (r *Runner) Status() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last.clone()
}

// RunOnce executes one refresh cycle. Cycles never overlap.
func (r *Runner) RunOnce(ctx context.Context, trigger string) (*Report, error) {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	if trigger == "" {
		trigger = TriggerManual
	}
	start := r.now()
	report := &Report{
		CycleID:   r.newID(),
		Trigger:   trigger,
		Source:    r.source.Name(),
		StartedAt: start,
	}
	if r.writer != nil {
		report.CachePath = r.writer.Path()
	}

	ctx = observability.WithCycleID(ctx, report.CycleID)
	ctx = observability.WithTrigger(ctx, trigger)
	ctx = observability.WithSource(ctx, report.Source)
	observability.InfoContext(ctx, "Refresh cycle started")
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewCycleStarted(report.CycleID, trigger, report.Source)
	})

	err := r.runStages(ctx, report)
	report.Duration = r.now().Sub(start)
	r.recorder.ObserveCycleDuration(report.Duration)

	if err != nil {
		report.Outcome = metrics.OutcomeFailed
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			report.Outcome = metrics.OutcomeCanceled
		}
		report.Error = err.Error()
		r.recorder.IncCycleOutcome(report.Outcome)
		r.record(context.WithoutCancel(ctx), func() (eventstore.Event, error) {
			return eventstore.NewCycleFailed(report.CycleID, report.FailedStage, report.Error, report.Duration)
		})
		observability.ErrorContext(ctx, "Refresh cycle failed",
			slog.String("failed_stage", report.FailedStage),
			logfields.DurationMS(ms(report.Duration)),
			logfields.Error(err))
		r.setLast(report)
		return report, err
	}

	report.Outcome = metrics.OutcomeSuccess
	if !report.Changed {
		report.Outcome = metrics.OutcomeUnchanged
	}
	r.recorder.IncCycleOutcome(report.Outcome)
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewCycleCompleted(report.CycleID, report.Entries, report.Pages, report.Hash, report.Changed, report.Duration)
	})
	observability.InfoContext(ctx, "Refresh cycle completed",
		logfields.Entries(report.Entries),
		logfields.Pages(report.Pages),
		logfields.Hash(report.Hash),
		slog.Bool("changed", report.Changed),
		logfields.DurationMS(ms(report.Duration)))
	r.setLast(report)
	return report, nil
}

func (r *Runner) runStages(ctx context.Context, report *Report) error {
	var (
		entries []content.Entry
		objects []content.Entry
		result  pages.Result
		written target.WriteResult
	)

	err := r.stage(ctx, report, StageFetch, func(ctx context.Context) error {
		var err error
		entries, err = r.source.Fetch(ctx)
		report.Entries = len(entries)
		return err
	})
	if err != nil {
		return err
	}
	r.recorder.SetEntries(report.Entries)
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewEntriesFetched(report.CycleID, report.Source, report.Entries, lastStage(report))
	})

	if err := r.stage(ctx, report, StageFlatten, func(context.Context) error {
		objects = entries
		if r.flatten {
			objects = target.FlattenAssetURLs(entries)
		}
		report.Objects = len(objects)
		return nil
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, report, StageDerive, func(context.Context) error {
		var err error
		result, err = r.deriver.Derive(objects)
		report.Pages = len(result.Pages)
		report.HasSite = result.Props.Site != nil
		return err
	}); err != nil {
		return err
	}
	r.recorder.SetPages(report.Pages)
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewPagesDerived(report.CycleID, report.Pages, report.HasSite)
	})

	if r.writer == nil {
		return nil
	}

	if err := r.stage(ctx, report, StageWrite, func(ctx context.Context) error {
		var err error
		written, err = r.writer.Write(ctx, target.NewCache(objects, result))
		report.Hash = written.Hash
		report.Changed = written.Changed
		return err
	}); err != nil {
		return err
	}
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewCacheWritten(report.CycleID, written.Path, written.Hash, written.Changed)
	})

	// The initial cycle always notifies so live clients get a baseline hash.
	if r.notifier == nil || (!report.Changed && report.Trigger != TriggerInitial) {
		return nil
	}
	return r.stage(ctx, report, StageNotify, func(ctx context.Context) error {
		return r.notifier.Notify(ctx, liveupdate.Update{
			CycleID: report.CycleID,
			Hash:    report.Hash,
			Pages:   report.Pages,
			Time:    r.now(),
		})
	})
}

// stage runs fn, timing and logging it. A failing stage marks the report.
func (r *Runner) stage(ctx context.Context, report *Report, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		report.FailedStage = name
		return err
	}
	ctx = observability.WithStage(ctx, name)
	start := r.now()
	err := fn(ctx)
	d := r.now().Sub(start)

	report.Stages = append(report.Stages, StageTiming{Name: name, Duration: d})
	r.recorder.ObserveStageDuration(name, d)
	if err != nil {
		report.FailedStage = name
		r.recorder.IncStageResult(name, metrics.ResultFailed)
		return err
	}
	r.recorder.IncStageResult(name, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Stage completed", logfields.DurationMS(ms(d)))
	return nil
}

// record appends an event; history is best effort and never fails a cycle.
func (r *Runner) record(ctx context.Context, build func() (eventstore.Event, error)) {
	if r.store == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = eventstore.Record(ctx, r.store, e)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record cycle event", logfields.Error(err))
	}
}

func (r *Runner) setLast(report *Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = report.clone()
}

func lastStage(report *Report) time.Duration {
	if len(report.Stages) == 0 {
		return 0
	}
	return report.Stages[len(report.Stages)-1].Duration
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
