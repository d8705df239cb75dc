// Package handlers provides HTTP request handlers for the reconkit API.
// This file contains the engine contracts the handlers drive and the
// response helpers shared by every handler group.
package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/reconkit/internal/api/middleware"
	"github.com/anstrom/reconkit/internal/capture"
	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/scanning"
)

const maxRequestSize = 64 * 1024

// HostScanEngine is the host discovery engine driven by the ip-scan routes.
type HostScanEngine interface {
	Start(req scanning.HostScanRequest) (string, error)
	Stop(ctx context.Context) error
	Status() scanning.Status
}

// PortScanEngine is the TCP connect engine driven by the port-scan routes.
type PortScanEngine interface {
	Start(ctx context.Context, req scanning.PortScanRequest) (string, error)
	Stop(ctx context.Context) error
	Status() scanning.Status
}

// CaptureEngine is the packet capture engine driven by the capture routes.
type CaptureEngine interface {
	ListInterfaces(ctx context.Context) ([]capture.Interface, error)
	Start(ctx context.Context, req capture.StartRequest) (string, error)
	Stop(ctx context.Context) error
	Status() scanning.Status
	Gate() capture.GateStatus
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// StartResponse acknowledges an accepted start request.
type StartResponse struct {
	Kind      string    `json:"kind"`
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StopResponse acknowledges a stop request. Stopping an idle engine
// succeeds with WasRunning false.
type StopResponse struct {
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	WasRunning bool      `json:"was_running"`
	Timestamp  time.Time `json:"timestamp"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log error but don't try to write another response
		slog.Error("Failed to encode JSON response",
			"request_id", middleware.GetRequestID(r),
			"error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, err error) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r),
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		response.Code = string(code)
	}

	writeJSON(w, r, statusCode, response)
}

// statusForError maps engine error codes onto HTTP statuses.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeValidation:
		return http.StatusBadRequest
	case errors.CodeAlreadyRunning:
		return http.StatusConflict
	case errors.CodeResourceUnavailable:
		return http.StatusServiceUnavailable
	case errors.CodeCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes err with the status its code maps to.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, statusForError(err), err)
}

// parseJSON parses JSON request body into the provided destination with security constraints.
func parseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("request body is empty")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return fmt.Errorf("request body too large (max %d bytes)", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// decodeAndValidate parses the body into dest and runs struct validation.
// Failures are written as 400 responses and reported as false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dest interface{}) bool {
	if err := parseJSON(w, r, dest); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return false
	}
	if err := v.Struct(dest); err != nil {
		writeError(w, r, http.StatusBadRequest, validationError(err))
		return false
	}
	return true
}

func validationError(err error) error {
	return fmt.Errorf("request validation failed: %w", err)
}

// stopEngine stops one engine and writes the acknowledgement.
func stopEngine(w http.ResponseWriter, r *http.Request, kind string, status scanning.Status,
	stop func(context.Context) error) {
	if err := stop(r.Context()); err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, StopResponse{
		Kind:       kind,
		Status:     "stopped",
		WasRunning: status.Running,
		Timestamp:  time.Now().UTC(),
	})
}

func startResponse(kind, runID string) StartResponse {
	return StartResponse{
		Kind:      kind,
		RunID:     runID,
		Status:    "started",
		Timestamp: time.Now().UTC(),
	}
}
