package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anstrom/reconkit/internal/api/handlers/mocks"
	"github.com/anstrom/reconkit/internal/capture"
	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/scanning"
)

func newCaptureHandler(t *testing.T) (*CaptureHandler, *mocks.MockCaptureEngine) {
	t.Helper()
	engine := mocks.NewMockCaptureEngine(gomock.NewController(t))
	return NewCaptureHandler(engine, createTestLogger()), engine
}

func TestListInterfaces(t *testing.T) {
	t.Run("lists interfaces", func(t *testing.T) {
		h, engine := newCaptureHandler(t)
		engine.EXPECT().ListInterfaces(gomock.Any()).Return([]capture.Interface{
			{Name: "eth0", Description: "Ethernet"},
			{Name: "lo"},
		}, nil)

		w := httptest.NewRecorder()
		h.ListInterfaces(w, httptest.NewRequest("GET", "/api/v1/capture/interfaces", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)
		var resp InterfacesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, "eth0", resp.Interfaces[0].Name)
	})

	t.Run("empty list encodes as array", func(t *testing.T) {
		h, engine := newCaptureHandler(t)
		engine.EXPECT().ListInterfaces(gomock.Any()).Return(nil, nil)

		w := httptest.NewRecorder()
		h.ListInterfaces(w, httptest.NewRequest("GET", "/api/v1/capture/interfaces", http.NoBody))
		assert.Contains(t, w.Body.String(), `"interfaces":[]`)
	})

	t.Run("driver missing", func(t *testing.T) {
		h, engine := newCaptureHandler(t)
		engine.EXPECT().ListInterfaces(gomock.Any()).
			Return(nil, errors.NewCaptureError(errors.CodeResourceUnavailable, "Npcap not detected."))

		w := httptest.NewRecorder()
		h.ListInterfaces(w, httptest.NewRequest("GET", "/api/v1/capture/interfaces", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "RESOURCE_UNAVAILABLE", decodeError(t, w).Code)
	})
}

func TestStartCapture(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		want       *capture.StartRequest
		err        error
		wantStatus int
	}{
		{
			name:       "protocols normalized",
			body:       `{"interface":"eth0","protocols":[" TCP","Dns"],"filter":"host 10.0.0.1"}`,
			want:       &capture.StartRequest{Interface: "eth0", Protocols: []string{"tcp", "dns"}, Filter: "host 10.0.0.1"},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "empty body captures on default interface",
			body:       "",
			want:       &capture.StartRequest{},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "unknown protocol",
			body:       `{"protocols":["sctp"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "open failure",
			body:       `{"interface":"nope0"}`,
			want:       &capture.StartRequest{Interface: "nope0"},
			err:        errors.WrapCaptureError(errors.CodeRuntimeIO, "unable to open capture", "nope0", nil),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "already running",
			body:       `{}`,
			want:       &capture.StartRequest{},
			err:        errors.ErrAlreadyRunning(capture.Kind),
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, engine := newCaptureHandler(t)
			if tt.want != nil {
				runID := "cap-1"
				if tt.err != nil {
					runID = ""
				}
				engine.EXPECT().Start(gomock.Any(), *tt.want).Return(runID, tt.err)
			}

			req := jsonRequest("POST", "/api/v1/capture/start", tt.body)
			w := httptest.NewRecorder()
			h.StartCapture(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusAccepted {
				var resp StartResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "cap-1", resp.RunID)
				assert.Equal(t, capture.Kind, resp.Kind)
			}
		})
	}
}

func TestCaptureStopAndStatus(t *testing.T) {
	h, engine := newCaptureHandler(t)
	engine.EXPECT().Status().Return(scanning.Status{Kind: capture.Kind, Running: true}).Times(2)
	engine.EXPECT().Stop(gomock.Any()).Return(nil)
	engine.EXPECT().Gate().Return(capture.GateStatus{Installed: true, Message: "libpcap available (non-Windows)."})

	w := httptest.NewRecorder()
	h.StopCapture(w, httptest.NewRequest("POST", "/api/v1/capture/stop", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.CaptureStatus(w, httptest.NewRequest("GET", "/api/v1/capture/status", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, capture.Kind, resp["kind"])
	assert.Equal(t, true, resp["running"])
	driver, ok := resp["driver"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, driver["installed"])
}
