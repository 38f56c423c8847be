package liveupdate

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
)

// DefaultHeartbeat is the SSE keep-alive interval.
const DefaultHeartbeat = 30 * time.Second

const clientBuffer = 8

// Hub serves server-sent events and broadcasts cache updates to connected clients.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*client
	recorder  metrics.Recorder
	heartbeat time.Duration
	closed    bool
	done      chan struct{}
	last      *Update
}

type client struct {
	id      int
	ch      chan Update
	dropped chan struct{}
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHeartbeat overrides the keep-alive interval.
func WithHeartbeat(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewHub creates a hub reporting its client count to recorder.
func NewHub(recorder metrics.Recorder, opts ...HubOption) *Hub {
	h := &Hub{
		clients:   map[int]*client{},
		recorder:  metrics.OrNoop(recorder),
		heartbeat: DefaultHeartbeat,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements the SSE endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	c := &client{ch: make(chan Update, clientBuffer), dropped: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "live update shutting down", http.StatusServiceUnavailable)
		return
	}
	c.id = h.nextID
	h.nextID++
	h.clients[c.id] = c
	n := len(h.clients)
	var replay *Update
	if h.last != nil {
		u := *h.last
		replay = &u
	}
	h.mu.Unlock()
	h.recorder.SetLiveClients(n)
	defer h.removeClient(c.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("live update write", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			slog.Debug("live update flush", logfields.Error(err))
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(": connected\n\n") {
		return
	}
	if replay != nil && !send(event(*replay)) {
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-c.dropped:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case u := <-c.ch:
			if !send(event(u)) {
				return
			}
		}
	}
}

func event(u Update) string {
	data, err := json.Marshal(u)
	if err != nil {
		return ""
	}
	return "data: " + string(data) + "\n\n"
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.dropped)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.recorder.SetLiveClients(n)
	}
}

// Notify broadcasts u to all clients. Clients whose buffers are full are dropped.
// Updates repeating the last hash are ignored.
func (h *Hub) Notify(_ context.Context, u Update) error {
	h.mu.Lock()
	if h.closed || u.Hash == "" || (h.last != nil && h.last.Hash == u.Hash) {
		h.mu.Unlock()
		return nil
	}
	last := u
	h.last = &last
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- u:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("live update broadcast",
		logfields.CycleID(u.CycleID),
		logfields.Hash(u.Hash),
		slog.Int("clients", len(snapshot)),
		slog.Int("dropped", dropped))
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.done)
	h.clients = map[int]*client{}
	h.mu.Unlock()
	h.recorder.SetLiveClients(0)
}

// Script is a browser snippet that reloads the page when the cache hash changes.
const Script = `(() => {
  if (window.__CONTENTBUILD_LU__) return;
  window.__CONTENTBUILD_LU__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.onmessage = (e) => {
      try {
        const u = JSON.parse(e.data);
        if (current === null) { current = u.hash; return; }
        if (u.hash && u.hash !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
