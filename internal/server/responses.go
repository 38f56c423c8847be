package server

import (
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/pipeline"
)

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// PathsResponse is returned by /paths.
type PathsResponse struct {
	Paths []string `json:"paths"`
}

// StatusResponse is returned by /status.
type StatusResponse struct {
	Status      string           `json:"status"`
	Uptime      float64          `json:"uptime"`
	LiveClients int              `json:"live_clients"`
	LastCycle   *pipeline.Report `json:"last_cycle,omitempty"`
}
