// Package server serves the build cache, cycle status, metrics and live-update
// stream to a site running in development mode.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/liveupdate"
	"git.home.luguber.info/inful/contentbuild/internal/pipeline"
	"git.home.luguber.info/inful/contentbuild/internal/server/middleware"
	"git.home.luguber.info/inful/contentbuild/internal/target"
	"git.home.luguber.info/inful/contentbuild/internal/version"
)

// StatusProvider reports the last refresh cycle.
type StatusProvider interface {
	Status() *pipeline.Report
}

// Options configures the server.
type Options struct {
	Addr      string
	CachePath string
	Status    StatusProvider
	Hub       *liveupdate.Hub
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Server is the development HTTP server.
type Server struct {
	opts         Options
	logger       *slog.Logger
	errorAdapter *errors.HTTPErrorAdapter
	started      time.Time

	mu   sync.Mutex
	http *http.Server
	addr string
}

// New creates a server. Call Start to listen.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:         opts,
		logger:       logger,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
		started:      time.Now(),
	}
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /paths", s.handlePaths)
	mux.HandleFunc("GET /props", s.handleProps)
	mux.HandleFunc("GET /cache", s.handleCache)
	mux.HandleFunc("GET /status", s.handleStatus)
	if s.opts.Hub != nil {
		mux.Handle("GET /livereload", s.opts.Hub)
		mux.HandleFunc("GET /livereload.js", handleScript)
	}
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	return middleware.Chain(s.logger, s.errorAdapter)(mux)
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to bind dev server").
			WithContext("addr", s.opts.Addr).
			Build()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.http = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Dev server stopped", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("Dev server listening", slog.String("addr", s.addr))
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop closes live-update streams and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.opts.Hub != nil {
		s.opts.Hub.Close()
	}
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "dev server shutdown").Build()
	}
	return nil
}

func (s *Server) loadCache() (*target.Cache, error) {
	if s.opts.CachePath == "" {
		return nil, errors.ConfigError("cache path not configured").Build()
	}
	return target.Load(s.opts.CachePath)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   version.Version,
		Uptime:    time.Since(s.started).Seconds(),
	})
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	cache, err := s.loadCache()
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: cache.StaticPaths()})
}

func (s *Server) handleProps(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("query parameter path is required").Build())
		return
	}
	cache, err := s.loadCache()
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	props, err := cache.PropsForPath(path)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if s.opts.CachePath == "" {
		s.errorAdapter.WriteErrorResponse(w, r, errors.ConfigError("cache path not configured").Build())
		return
	}
	if _, err := target.Load(s.opts.CachePath); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, s.opts.CachePath)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{Status: "starting", Uptime: time.Since(s.started).Seconds()}
	if s.opts.Status != nil {
		if last := s.opts.Status.Status(); last != nil {
			resp.LastCycle = last
			resp.Status = "ready"
			if last.Error != "" {
				resp.Status = "error"
			}
		}
	}
	if s.opts.Hub != nil {
		resp.LiveClients = s.opts.Hub.Clients()
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(liveupdate.Script))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write json response", slog.String("error", err.Error()))
	}
}
