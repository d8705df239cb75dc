package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/reconkit/internal/capture"
	"github.com/anstrom/reconkit/internal/scanning"
)

// CaptureStartRequest is the body of POST /api/v1/capture/start.
type CaptureStartRequest struct {
	Interface string   `json:"interface,omitempty" validate:"max=256"`
	Protocols []string `json:"protocols,omitempty" validate:"dive,oneof=tcp udp icmp arp dns"`
	Filter    string   `json:"filter,omitempty" validate:"max=1024"`
}

// InterfacesResponse lists the capturable interfaces.
type InterfacesResponse struct {
	Interfaces []capture.Interface `json:"interfaces"`
	Count      int                 `json:"count"`
	Timestamp  time.Time           `json:"timestamp"`
}

// CaptureStatusResponse combines the run state with the driver precondition.
type CaptureStatusResponse struct {
	scanning.Status
	Driver capture.GateStatus `json:"driver"`
}

// CaptureHandler handles the capture endpoints.
type CaptureHandler struct {
	engine    CaptureEngine
	logger    *slog.Logger
	validator *validator.Validate
}

// NewCaptureHandler creates a new capture handler.
func NewCaptureHandler(engine CaptureEngine, logger *slog.Logger) *CaptureHandler {
	return &CaptureHandler{
		engine:    engine,
		logger:    logger.With("handler", "capture"),
		validator: validator.New(),
	}
}

// ListInterfaces handles GET /api/v1/capture/interfaces.
func (h *CaptureHandler) ListInterfaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListInterfaces(r.Context())
	if err != nil {
		h.logger.Warn("Interface listing failed", "error", err)
		writeEngineError(w, r, err)
		return
	}
	if list == nil {
		list = []capture.Interface{}
	}
	writeJSON(w, r, http.StatusOK, InterfacesResponse{
		Interfaces: list,
		Count:      len(list),
		Timestamp:  time.Now().UTC(),
	})
}

// StartCapture handles POST /api/v1/capture/start.
func (h *CaptureHandler) StartCapture(w http.ResponseWriter, r *http.Request) {
	// Every field is optional, so an empty body captures everything on
	// the default interface.
	var req CaptureStartRequest
	if r.ContentLength != 0 {
		if err := parseJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	for i, p := range req.Protocols {
		req.Protocols[i] = strings.ToLower(strings.TrimSpace(p))
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationError(err))
		return
	}

	runID, err := h.engine.Start(r.Context(), capture.StartRequest{
		Interface: req.Interface,
		Protocols: req.Protocols,
		Filter:    req.Filter,
	})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	h.logger.Info("Capture started", "run_id", runID, "interface", req.Interface)
	writeJSON(w, r, http.StatusAccepted, startResponse(capture.Kind, runID))
}

// StopCapture handles POST /api/v1/capture/stop.
func (h *CaptureHandler) StopCapture(w http.ResponseWriter, r *http.Request) {
	stopEngine(w, r, capture.Kind, h.engine.Status(), h.engine.Stop)
}

// CaptureStatus handles GET /api/v1/capture/status.
func (h *CaptureHandler) CaptureStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, CaptureStatusResponse{
		Status: h.engine.Status(),
		Driver: h.engine.Gate(),
	})
}
