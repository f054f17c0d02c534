package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-sealing-service/api"
	"github.com/ruteri/tee-sealing-service/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
}

func newTestServer(t *testing.T, pprof bool) *Server {
	t.Helper()
	cfg := &api.HTTPServerConfig{
		ListenAddr:  "127.0.0.1:0",
		EnablePprof: pprof,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	metricsSrv, err := metrics.New("test", "")
	require.NoError(t, err)

	srv, err := New(cfg, metricsSrv, pingRoutes{})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_RegistersRoutes(t *testing.T) {
	srv := newTestServer(t, false)

	status, body := get(t, srv.Handler(), "/ping")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", body)

	status, body = get(t, srv.Handler(), "/livez")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"alive"}`, body)

	status, _ = get(t, srv.Handler(), "/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_DrainUndrain(t *testing.T) {
	srv := newTestServer(t, false)

	status, _ := get(t, srv.Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, status)

	status, body := get(t, srv.Handler(), "/drain")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"draining"}`, body)

	status, body = get(t, srv.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.JSONEq(t, `{"status":"not ready"}`, body)

	_, body = get(t, srv.Handler(), "/drain")
	assert.JSONEq(t, `{"status":"already draining"}`, body)

	_, body = get(t, srv.Handler(), "/undrain")
	assert.JSONEq(t, `{"status":"ready"}`, body)

	_, body = get(t, srv.Handler(), "/undrain")
	assert.JSONEq(t, `{"status":"already ready"}`, body)

	status, _ = get(t, srv.Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_Pprof(t *testing.T) {
	srv := newTestServer(t, true)

	status, _ := get(t, srv.Handler(), "/debug/pprof/")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_RequestMetrics(t *testing.T) {
	srv := newTestServer(t, false)
	get(t, srv.Handler(), "/ping")

	_, body := get(t, srv.metricsSrv.Handler(), "/metrics")
	assert.Contains(t, body, `test_http_requests_total{method="GET",route="/ping",status="OK"} 1`)
}
