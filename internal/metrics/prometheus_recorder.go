package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "contentbuild"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	cycleDuration  prom.Histogram
	cycleOutcome   *prom.CounterVec
	entries        prom.Gauge
	pages          prom.Gauge
	sourceRequests *prom.CounterVec
	sourceRetries  *prom.CounterVec
	liveClients    prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual cycle stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.cycleDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Total duration of fetch/derive/write cycles",
			Buckets:   prom.DefBuckets,
		})
		pr.cycleOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_outcomes_total",
			Help:      "Cycle outcomes by final status",
		}, []string{"outcome"})
		pr.entries = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Entries fetched in the last successful cycle",
		})
		pr.pages = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pages",
			Help:      "Pages derived in the last successful cycle",
		})
		pr.sourceRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Requests issued to content sources by HTTP status",
		}, []string{"source", "status"})
		pr.sourceRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_retries_total",
			Help:      "Retried source requests (transient failures)",
		}, []string{"source"})
		pr.liveClients = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "live_update_clients",
			Help:      "Connected live update clients",
		})
		reg.MustRegister(pr.stageDuration, pr.stageResults, pr.cycleDuration, pr.cycleOutcome,
			pr.entries, pr.pages, pr.sourceRequests, pr.sourceRetries, pr.liveClients)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveCycleDuration(d time.Duration) {
	if p == nil || p.cycleDuration == nil {
		return
	}
	p.cycleDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCycleOutcome(outcome Outcome) {
	if p == nil || p.cycleOutcome == nil {
		return
	}
	p.cycleOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetEntries(n int) {
	if p == nil || p.entries == nil {
		return
	}
	p.entries.Set(float64(n))
}

func (p *PrometheusRecorder) SetPages(n int) {
	if p == nil || p.pages == nil {
		return
	}
	p.pages.Set(float64(n))
}

func (p *PrometheusRecorder) IncSourceRequest(source string, status int) {
	if p == nil || p.sourceRequests == nil {
		return
	}
	p.sourceRequests.WithLabelValues(source, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncSourceRetry(source string) {
	if p == nil || p.sourceRetries == nil {
		return
	}
	p.sourceRetries.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) SetLiveClients(n int) {
	if p == nil || p.liveClients == nil {
		return
	}
	p.liveClients.Set(float64(n))
}
