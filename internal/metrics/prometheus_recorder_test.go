package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("fetch", 150*time.Millisecond)
	pr.ObserveCycleDuration(500 * time.Millisecond)
	pr.IncStageResult("fetch", ResultSuccess)
	pr.IncCycleOutcome(OutcomeSuccess)
	pr.IncCycleOutcome(OutcomeSuccess)
	pr.SetEntries(12)
	pr.SetPages(4)
	pr.IncSourceRequest("contentful", 429)
	pr.IncSourceRetry("contentful")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	if got := values["contentbuild_cycle_outcomes_total"]; got != 2 {
		t.Fatalf("cycle outcomes = %v, want 2", got)
	}
	if got := values["contentbuild_pages"]; got != 4 {
		t.Fatalf("pages gauge = %v, want 4", got)
	}
	if got := values["contentbuild_source_requests_total"]; got != 1 {
		t.Fatalf("source requests = %v, want 1", got)
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncCycleOutcome(OutcomeFailed)
	pr.SetLiveClients(3)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.SetPages(7)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "contentbuild_pages 7") {
		t.Fatalf("expected pages gauge in output:\n%s", rec.Body.String())
	}
}
