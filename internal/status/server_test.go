package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"willybot/internal/voice"
)

func newTestServer() *Server {
	return New(voice.NewRegistry(), zap.NewNop(), true)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStatusReportsActiveSessions(t *testing.T) {
	registry := voice.NewRegistry()
	registry.Swap("g1", &voice.Session{GuildID: "g1"})
	srv := New(registry, zap.NewNop(), true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		UptimeSeconds       int `json:"uptime_seconds"`
		ActiveVoiceSessions int `json:"active_voice_sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.ActiveVoiceSessions)
	assert.GreaterOrEqual(t, body.UptimeSeconds, 0)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// The default registry always carries the Go runtime collectors
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
