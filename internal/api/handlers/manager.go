// Package handlers provides HTTP request handlers for the reconkit API.
// This package implements the command endpoints for host scans, port scans
// and packet capture, plus the event stream and health checks.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/anstrom/reconkit/internal/events"
)

// Engines bundles the engines the API drives.
type Engines struct {
	Hosts   HostScanEngine
	Ports   PortScanEngine
	Capture CaptureEngine
}

// HandlerManager manages all API handlers and their dependencies.
type HandlerManager struct {
	logger *slog.Logger

	// Individual handler groups
	health  *HealthHandler
	scan    *ScanHandler
	capture *CaptureHandler
	stream  *EventStream
}

// New creates a new handler manager with all handler groups initialized.
func New(engines Engines, hub *events.Hub, logger *slog.Logger) *HandlerManager {
	return &HandlerManager{
		logger:  logger,
		health:  NewHealthHandler(engines.Hosts, engines.Ports, engines.Capture, logger),
		scan:    NewScanHandler(engines.Hosts, engines.Ports, logger),
		capture: NewCaptureHandler(engines.Capture, logger),
		stream:  NewEventStream(hub, logger),
	}
}

// Health handles GET /api/v1/health.
func (hm *HandlerManager) Health(w http.ResponseWriter, r *http.Request) {
	hm.health.Health(w, r)
}

// Liveness handles GET /api/v1/liveness.
func (hm *HandlerManager) Liveness(w http.ResponseWriter, r *http.Request) {
	hm.health.Liveness(w, r)
}

// Version handles GET /api/v1/version.
func (hm *HandlerManager) Version(w http.ResponseWriter, r *http.Request) {
	hm.health.Version(w, r)
}

// StartHostScan handles POST /api/v1/ip-scan/start.
func (hm *HandlerManager) StartHostScan(w http.ResponseWriter, r *http.Request) {
	hm.scan.StartHostScan(w, r)
}

// StopHostScan handles POST /api/v1/ip-scan/stop.
func (hm *HandlerManager) StopHostScan(w http.ResponseWriter, r *http.Request) {
	hm.scan.StopHostScan(w, r)
}

// HostScanStatus handles GET /api/v1/ip-scan/status.
func (hm *HandlerManager) HostScanStatus(w http.ResponseWriter, r *http.Request) {
	hm.scan.HostScanStatus(w, r)
}

// StartPortScan handles POST /api/v1/port-scan/start.
func (hm *HandlerManager) StartPortScan(w http.ResponseWriter, r *http.Request) {
	hm.scan.StartPortScan(w, r)
}

// StopPortScan handles POST /api/v1/port-scan/stop.
func (hm *HandlerManager) StopPortScan(w http.ResponseWriter, r *http.Request) {
	hm.scan.StopPortScan(w, r)
}

// PortScanStatus handles GET /api/v1/port-scan/status.
func (hm *HandlerManager) PortScanStatus(w http.ResponseWriter, r *http.Request) {
	hm.scan.PortScanStatus(w, r)
}

// ListInterfaces handles GET /api/v1/capture/interfaces.
func (hm *HandlerManager) ListInterfaces(w http.ResponseWriter, r *http.Request) {
	hm.capture.ListInterfaces(w, r)
}

// StartCapture handles POST /api/v1/capture/start.
func (hm *HandlerManager) StartCapture(w http.ResponseWriter, r *http.Request) {
	hm.capture.StartCapture(w, r)
}

// StopCapture handles POST /api/v1/capture/stop.
func (hm *HandlerManager) StopCapture(w http.ResponseWriter, r *http.Request) {
	hm.capture.StopCapture(w, r)
}

// CaptureStatus handles GET /api/v1/capture/status.
func (hm *HandlerManager) CaptureStatus(w http.ResponseWriter, r *http.Request) {
	hm.capture.CaptureStatus(w, r)
}

// Events handles GET /ws/events.
func (hm *HandlerManager) Events(w http.ResponseWriter, r *http.Request) {
	hm.stream.Events(w, r)
}

// CloseStreams disconnects every event stream client.
func (hm *HandlerManager) CloseStreams() {
	hm.stream.Close()
}

// GetLogger returns the logger instance.
func (hm *HandlerManager) GetLogger() *slog.Logger {
	return hm.logger
}
