package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/reconkit/internal/api/middleware"
	"github.com/anstrom/reconkit/internal/errors"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, httptest.NewRequest("GET", "/", http.NoBody), http.StatusCreated, map[string]int{"count": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":3}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req_test"))

	t.Run("coded error", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeError(w, req, http.StatusConflict, errors.ErrAlreadyRunning("ip_scan"))

		resp := decodeError(t, w)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Conflict", resp.Error)
		assert.Equal(t, "ALREADY_RUNNING", resp.Code)
		assert.Contains(t, resp.Message, "ip_scan already running")
		assert.Equal(t, "req_test", resp.RequestID)
		assert.WithinDuration(t, time.Now(), resp.Timestamp, time.Minute)
	})

	t.Run("plain error has no code", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeError(w, req, http.StatusBadRequest, fmt.Errorf("bad input"))

		resp := decodeError(t, w)
		assert.Empty(t, resp.Code)
		assert.Equal(t, "bad input", resp.Message)
	})
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errors.ErrInvalidCIDR("10.0.0.0/33", nil), http.StatusBadRequest},
		{"already running", errors.ErrAlreadyRunning("port_scan"), http.StatusConflict},
		{"resource unavailable", errors.NewCaptureError(errors.CodeResourceUnavailable, "no npcap"), http.StatusServiceUnavailable},
		{"runtime io", errors.NewCaptureError(errors.CodeRuntimeIO, "spawn failed"), http.StatusInternalServerError},
		{"canceled stop wait", errors.WrapScanError(errors.CodeCanceled, "gave up", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"wrapped", fmt.Errorf("outer: %w", errors.ErrAlreadyRunning("capture")), http.StatusConflict},
		{"uncoded", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestParseJSON(t *testing.T) {
	type body struct {
		Subnet string `json:"subnet"`
	}

	tests := []struct {
		name    string
		req     *http.Request
		wantErr string
	}{
		{name: "valid", req: jsonRequest("POST", "/", `{"subnet":"10.0.0.0/24"}`)},
		{name: "empty body", req: httptest.NewRequest("POST", "/", http.NoBody), wantErr: "request body is empty"},
		{name: "malformed", req: jsonRequest("POST", "/", `{"subnet":`), wantErr: "invalid JSON"},
		{name: "unknown field", req: jsonRequest("POST", "/", `{"subnet":"x","extra":1}`), wantErr: "invalid JSON"},
		{
			name:    "too large",
			req:     jsonRequest("POST", "/", `{"subnet":"`+strings.Repeat("a", maxRequestSize)+`"}`),
			wantErr: "request body too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dest body
			err := parseJSON(httptest.NewRecorder(), tt.req, &dest)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "10.0.0.0/24", dest.Subnet)
		})
	}
}
