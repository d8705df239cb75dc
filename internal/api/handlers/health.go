// Package handlers provides HTTP request handlers for the reconkit API.
// This file implements health check and version endpoints.
package handlers

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/anstrom/reconkit/internal/scanning"
)

// Status constants.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Build information, set from the command layer.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// HealthHandler handles health check and status endpoints.
type HealthHandler struct {
	hosts     HostScanEngine
	ports     PortScanEngine
	capture   CaptureEngine
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(hosts HostScanEngine, ports PortScanEngine, capture CaptureEngine,
	logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		hosts:     hosts,
		ports:     ports,
		capture:   capture,
		logger:    logger.With("handler", "health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
	Engines   []scanning.Status `json:"engines"`
}

// LivenessResponse represents a simple liveness check response.
type LivenessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// VersionResponse represents version information.
type VersionResponse struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports engine state and the capture driver precondition. A
// missing capture driver degrades health without failing it: scans still work.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested", "remote_addr", r.RemoteAddr)

	response := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]string),
		Engines: []scanning.Status{
			h.hosts.Status(),
			h.ports.Status(),
			h.capture.Status(),
		},
	}

	gate := h.capture.Gate()
	if gate.Installed {
		response.Checks["capture_driver"] = "ok"
	} else {
		response.Status = StatusDegraded
		response.Checks["capture_driver"] = gate.Message
	}

	writeJSON(w, r, http.StatusOK, response)
}

// Liveness performs a simple liveness check without dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).String(),
	})
}

// Version provides version information.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, VersionResponse{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Timestamp: time.Now().UTC(),
	})
}
