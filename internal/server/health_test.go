package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler) (int, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	code, body := serve(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T) *HealthChecker
		wantCode    int
		wantChecks  map[string]any
		wantOverall string
	}{
		{
			name: "ready",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newTestServerContext(t))
			},
			wantCode:    http.StatusOK,
			wantChecks:  map[string]any{"ready": "ok", "shutdown": "ok", "credentials": "ok"},
			wantOverall: "ok",
		},
		{
			name: "not ready",
			setup: func(t *testing.T) *HealthChecker {
				h := NewHealthChecker(newTestServerContext(t))
				h.SetReady(false)
				return h
			},
			wantCode:    http.StatusServiceUnavailable,
			wantChecks:  map[string]any{"ready": "not ready", "shutdown": "ok", "credentials": "ok"},
			wantOverall: "not ready",
		},
		{
			name: "shutting down",
			setup: func(t *testing.T) *HealthChecker {
				sc := newTestServerContext(t)
				_ = sc.Shutdown()
				return NewHealthChecker(sc)
			},
			wantCode:    http.StatusServiceUnavailable,
			wantChecks:  map[string]any{"ready": "ok", "shutdown": "shutting down", "credentials": "ok"},
			wantOverall: "not ready",
		},
		{
			name: "missing credentials",
			setup: func(t *testing.T) *HealthChecker {
				sc, err := NewServerContext(context.Background(), testConfig(), staticCredentials{err: errors.New("missing")})
				require.NoError(t, err)
				return NewHealthChecker(sc)
			},
			wantCode:    http.StatusServiceUnavailable,
			wantChecks:  map[string]any{"ready": "ok", "shutdown": "ok", "credentials": "missing credentials"},
			wantOverall: "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, tt.setup(t).ReadinessHandler())
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOverall, body["status"])
			assert.Equal(t, tt.wantChecks, body["checks"])
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	h := NewHealthChecker(newTestServerContext(t))

	code, body := serve(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["credentials"])
	assert.Equal(t, false, body["flow_enabled"])
	assert.NotEmpty(t, body["uptime"])

	h.SetReady(false)
	code, body = serve(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])
}
