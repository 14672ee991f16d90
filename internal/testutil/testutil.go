// Package testutil provides helpers for end-to-end tests that exercise the
// catalog server through its production middleware chain.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"styleassets/internal/api"
	"styleassets/internal/assets"
	"styleassets/internal/observability"
	"styleassets/internal/registry"
	"styleassets/internal/storage"
)

// ServerConfig holds configuration for creating a test server.
type ServerConfig struct {
	// EnableMetrics enables metrics collection and the /metrics endpoint.
	EnableMetrics bool
	// EnableRateLimit enables rate limiting middleware.
	EnableRateLimit bool
	// RateLimitConfig configures rate limiting if enabled.
	RateLimitConfig api.RateLimitConfig
}

// ServerComponents holds everything created for a test server.
type ServerComponents struct {
	// Server is the test HTTP server fronted by the middleware chain.
	Server *httptest.Server
	// Store is the seeded in-memory catalog.
	Store *storage.MemoryStore
	// Root is the temporary asset root.
	Root assets.Root
	// Metrics is the metrics collector, nil unless enabled.
	Metrics *observability.Metrics
	// Logger is the structured logger (output discarded).
	Logger observability.Logger
}

// StartServer creates a seeded catalog server behind the same middleware
// stack main wires up: metrics, path guard, request ID, logging and rate
// limiting. The server is closed and the store released when the test ends.
func StartServer(t *testing.T, cfg ServerConfig) *ServerComponents {
	t.Helper()

	store := storage.NewMemoryStore()
	root, err := assets.NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("new asset root: %v", err)
	}
	if err := registry.Seed(context.Background(), store, root); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	logger := observability.NewLogger(observability.Config{
		Level:  "debug",
		Format: "json",
		Output: io.Discard,
	})

	var metrics *observability.Metrics
	if cfg.EnableMetrics {
		metrics = observability.NewMetrics(observability.MetricsConfig{
			Namespace: "styleassets_test",
			Version:   "test",
		})
	}

	mux := http.NewServeMux()
	srv := api.NewServer(mux, store, root, logger, metrics)
	srv.RegisterRoutes()

	rateCfg := cfg.RateLimitConfig
	if !cfg.EnableRateLimit {
		rateCfg = api.RateLimitConfig{}
	}
	handler := api.ApplyMiddlewares(
		mux,
		observability.MetricsMiddleware(metrics),
		api.PathGuardMiddleware(),
		api.RequestIDMiddleware(),
		api.LoggingMiddleware(logger.Slog()),
		api.RateLimitMiddleware(rateCfg, nil, logger.Slog()),
	)

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		_ = store.Close()
	})

	return &ServerComponents{
		Server:  server,
		Store:   store,
		Root:    root,
		Metrics: metrics,
		Logger:  logger,
	}
}

// URL returns the full URL for a given path.
func (c *ServerComponents) URL(path string) string {
	return c.Server.URL + path
}

// Client returns the test server's HTTP client.
func (c *ServerComponents) Client() *http.Client {
	return c.Server.Client()
}

// InstallFontFile writes a stand-in font file for a seeded catalog entry so
// download paths have bytes to serve.
func (c *ServerComponents) InstallFontFile(t *testing.T, name string) {
	t.Helper()
	if err := c.Root.WriteFile(assets.DirFonts+"/"+name, []byte("fake-font-bytes")); err != nil {
		t.Fatalf("install font file: %v", err)
	}
}

// ReadJSONResponse decodes a JSON response body and closes it.
func ReadJSONResponse(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal response: %v\nbody: %s", err, string(data))
	}
}
