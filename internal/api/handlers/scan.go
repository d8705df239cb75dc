// Package handlers provides HTTP request handlers for the reconkit API.
// This file implements the host scan and port scan command endpoints.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/reconkit/internal/scanning"
)

// ScanHandler handles the ip-scan and port-scan endpoints.
type ScanHandler struct {
	hosts     HostScanEngine
	ports     PortScanEngine
	logger    *slog.Logger
	validator *validator.Validate
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(hosts HostScanEngine, ports PortScanEngine, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		hosts:     hosts,
		ports:     ports,
		logger:    logger.With("handler", "scan"),
		validator: validator.New(),
	}
}

// StartHostScan handles POST /api/v1/ip-scan/start.
func (h *ScanHandler) StartHostScan(w http.ResponseWriter, r *http.Request) {
	var req scanning.HostScanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	req.Subnet = strings.TrimSpace(req.Subnet)

	runID, err := h.hosts.Start(req)
	if err != nil {
		h.logger.Debug("Host scan rejected", "subnet", req.Subnet, "error", err)
		writeEngineError(w, r, err)
		return
	}

	h.logger.Info("Host scan started", "run_id", runID, "subnet", req.Subnet, "deep", req.Deep)
	writeJSON(w, r, http.StatusAccepted, startResponse(scanning.KindIPScan, runID))
}

// StopHostScan handles POST /api/v1/ip-scan/stop.
func (h *ScanHandler) StopHostScan(w http.ResponseWriter, r *http.Request) {
	stopEngine(w, r, scanning.KindIPScan, h.hosts.Status(), h.hosts.Stop)
}

// HostScanStatus handles GET /api/v1/ip-scan/status.
func (h *ScanHandler) HostScanStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.hosts.Status())
}

// StartPortScan handles POST /api/v1/port-scan/start.
func (h *ScanHandler) StartPortScan(w http.ResponseWriter, r *http.Request) {
	var req scanning.PortScanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	req.Target = strings.TrimSpace(req.Target)

	runID, err := h.ports.Start(r.Context(), req)
	if err != nil {
		h.logger.Debug("Port scan rejected", "target", req.Target, "error", err)
		writeEngineError(w, r, err)
		return
	}

	h.logger.Info("Port scan started", "run_id", runID, "target", req.Target, "ports", req.Ports)
	writeJSON(w, r, http.StatusAccepted, startResponse(scanning.KindPortScan, runID))
}

// StopPortScan handles POST /api/v1/port-scan/stop.
func (h *ScanHandler) StopPortScan(w http.ResponseWriter, r *http.Request) {
	stopEngine(w, r, scanning.KindPortScan, h.ports.Status(), h.ports.Stop)
}

// PortScanStatus handles GET /api/v1/port-scan/status.
func (h *ScanHandler) PortScanStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.ports.Status())
}
