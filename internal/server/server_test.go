package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuild/internal/content"
	"git.home.luguber.info/inful/contentbuild/internal/liveupdate"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/pipeline"
	"git.home.luguber.info/inful/contentbuild/internal/source"
	"git.home.luguber.info/inful/contentbuild/internal/target"
)

type fixture struct {
	srv    *httptest.Server
	runner *pipeline.Runner
	hub    *liveupdate.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	hub := liveupdate.NewHub(rec)

	entries := []content.Entry{
		content.New("cfg", "Config", map[string]any{"title": "Site"}),
		content.New("home", "PageLayout", map[string]any{"slug": "/"}),
		content.New("about", "PageLayout", map[string]any{"slug": "about"}),
	}
	runner := pipeline.New(source.Static{Entries: entries}, target.NewWriter(cachePath),
		pipeline.WithRecorder(rec), pipeline.WithNotifier(hub))
	_, err := runner.RunOnce(context.Background(), pipeline.TriggerManual)
	require.NoError(t, err)

	s := New(Options{CachePath: cachePath, Status: runner, Hub: hub, Metrics: metrics.HTTPHandler(reg)})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &fixture{srv: srv, runner: runner, hub: hub}
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestPaths(t *testing.T) {
	f := newFixture(t)
	var body PathsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/paths", &body))
	assert.Equal(t, []string{"/", "/about"}, body.Paths)
}

func TestProps(t *testing.T) {
	f := newFixture(t)

	var props map[string]map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/props?path=/about/", &props))
	assert.Equal(t, "about", props["page"]["__metadata"].(map[string]any)["id"])
	assert.Equal(t, "Site", props["site"]["title"])

	var errBody map[string]any
	assert.Equal(t, http.StatusNotFound, getJSON(t, f.srv.URL+"/props?path=/nope", &errBody))
	assert.Equal(t, "not_found", errBody["code"])

	assert.Equal(t, http.StatusBadRequest, getJSON(t, f.srv.URL+"/props", nil))
}

func TestCache(t *testing.T) {
	f := newFixture(t)
	var cache target.Cache
	assert.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/cache", &cache))
	assert.Len(t, cache.Pages, 2)
	assert.Len(t, cache.Objects, 3)
}

func TestCacheMissing(t *testing.T) {
	s := New(Options{CachePath: filepath.Join(t.TempDir(), "none.json")})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/cache", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/paths", nil))

	var status StatusResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/status", &status))
	assert.Equal(t, "starting", status.Status)
	assert.Nil(t, status.LastCycle)

	resp, err := http.Get(srv.URL + "/livereload")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	var status StatusResponse
	assert.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/status", &status))
	assert.Equal(t, "ready", status.Status)
	require.NotNil(t, status.LastCycle)
	assert.Equal(t, 2, status.LastCycle.Pages)
	assert.Equal(t, f.runner.Status().CycleID, status.LastCycle.CycleID)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	var health HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/healthz", &health))
	assert.Equal(t, "ok", health.Status)

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "contentbuild_pages 2")
}

func TestLiveReloadThroughMiddleware(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/livereload", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	// the cycle run in the fixture is replayed
	for {
		line, err = r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			break
		}
	}
	assert.Contains(t, line, f.runner.Status().Hash)

	script, err := http.Get(f.srv.URL + "/livereload.js")
	require.NoError(t, err)
	defer script.Body.Close()
	assert.Equal(t, "application/javascript", script.Header.Get("Content-Type"))
}

func TestStartStop(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:0", Hub: liveupdate.NewHub(nil)})
	require.NoError(t, s.Start(context.Background()))
	addr := s.Addr()
	require.NotEmpty(t, addr)

	var health HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, "http://"+addr+"/healthz", &health))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	_, err := http.Get("http://" + addr + "/healthz")
	assert.Error(t, err)
}

func TestStartBindFailure(t *testing.T) {
	s := New(Options{Addr: "256.0.0.1:99999"})
	assert.Error(t, s.Start(context.Background()))
}
