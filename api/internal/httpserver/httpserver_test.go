package httpserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icf-classifier/api/internal/app"
	"icf-classifier/api/internal/config"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *app.App {
	t.Helper()
	cfg := &config.Config{
		LLMProvider:          "stub",
		OpenAIResponseFormat: "json_object",
		ModelTimeout:         5 * time.Second,
		MaxImages:            10,
		MaxImageBytes:        20 << 20,
		MaxBodyBytes:         1 << 20,
		RateLimit:            100,
		RateWindow:           time.Hour,
		CORSOrigins:          []string{"*"},
		DefaultLocale:        "ja",
	}
	if mutate != nil {
		mutate(cfg)
	}
	a, err := app.New(cfg)
	require.NoError(t, err)
	return a
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Probes(t *testing.T) {
	r := NewRouter(newTestApp(t, nil))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/hello", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "API is working!")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "icf_classifier_runs_in_flight")
}

func TestRouter_ClassifyWithStub(t *testing.T) {
	r := NewRouter(newTestApp(t, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/classify?render=1",
		bytes.NewBufferString(`{"patientData":{"age":"72","symptoms":"dysphagia"}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"overview":"dysphagia"`)
	assert.Contains(t, rec.Body.String(), "1. 健康状態")
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := NewRouter(newTestApp(t, func(c *config.Config) {
		c.CORSOrigins = []string{"https://app.example"}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/classify", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(r, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimitOnAPIOnly(t *testing.T) {
	r := NewRouter(newTestApp(t, func(c *config.Config) { c.RateLimit = 1 }))

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/hello", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/api/hello", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRouter_BodyLimit(t *testing.T) {
	r := NewRouter(newTestApp(t, func(c *config.Config) { c.MaxBodyBytes = 16 }))

	req := httptest.NewRequest(http.MethodPost, "/api/classify",
		bytes.NewBufferString(`{"patientData":{"symptoms":"far more than sixteen bytes"}}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, req).Code)
}

func TestRouter_StaticFrontEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("const icf = 1;"), 0o644))
	r := NewRouter(newTestApp(t, func(c *config.Config) { c.StaticDir = dir }))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "const icf = 1;")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestProbeRouter(t *testing.T) {
	r := NewProbeRouter("info")

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/api/hello", nil)).Code)
}
