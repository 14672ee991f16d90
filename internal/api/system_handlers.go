package api

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	apidocs "styleassets/docs"
	"styleassets/internal/assets"
)

func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(apidocs.OpenAPISpec)
}

// handleHealth is the liveness probe: can the process read its asset root.
// The probe hits the filesystem on every request so a root that disappears
// at runtime flips the container unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.root.Healthy(); err != nil {
		s.logger.ErrorContext(r.Context(), "health check failed", appendRequestID(r.Context(), []any{
			"error", err.Error(),
		})...)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"service": "style-assets",
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "style-assets",
	})
}

// ReadinessResponse represents the JSON response for the readiness check endpoint.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReady checks if the application is ready to accept traffic.
// Unlike /health (liveness), this endpoint verifies that the asset layout
// and the catalog store are accessible.
// Returns 200 OK if all checks pass, 503 Service Unavailable otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	ctx := r.Context()
	checks := make(map[string]string)
	status := "ok"

	fail := func(check string, err error) {
		checks[check] = "error"
		status = "unhealthy"
		s.logger.ErrorContext(ctx, "readiness check failed", appendRequestID(ctx, []any{
			"check", check,
			"error", err.Error(),
		})...)
	}

	if err := s.root.Healthy(); err != nil {
		fail("asset_root", err)
	} else {
		checks["asset_root"] = "ok"
	}

	for _, sub := range assets.SubDirs() {
		info, err := s.root.Stat(sub)
		switch {
		case err != nil:
			fail(sub, err)
		case !info.IsDir():
			checks[sub] = "error"
			status = "unhealthy"
		default:
			checks[sub] = "ok"
		}
	}

	// Catalog check: use Ping if the store supports it, otherwise fall
	// back to listing fonts.
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if hc, ok := s.store.(pinger); ok {
		if err := hc.Ping(ctx); err != nil {
			fail("catalog", err)
		} else {
			checks["catalog"] = "ok"
		}
	} else {
		if _, err := s.store.ListFonts(ctx); err != nil {
			fail("catalog", err)
		} else {
			checks["catalog"] = "ok"
		}
	}

	resp := ReadinessResponse{
		Status: status,
		Checks: checks,
	}

	if status == "ok" {
		writeJSON(w, http.StatusOK, resp)
	} else {
		writeJSON(w, http.StatusServiceUnavailable, resp)
	}
}

func (s *Server) handleTestSentry(w http.ResponseWriter, r *http.Request) {
	// Test endpoint to verify Sentry is working
	testType := r.URL.Query().Get("type")

	switch testType {
	case "message":
		// Test message capture
		sentry.CaptureMessage("Sentry test message from style-assets")
		sentry.Flush(2 * time.Second)
		writeJSON(w, http.StatusOK, map[string]string{"status": "message sent to Sentry"})
	case "error":
		// Test error capture with 500 status
		s.writeErr(r.Context(), w, http.StatusInternalServerError, "test error for Sentry", "this is a test error to verify Sentry integration")
	case "panic":
		// Test panic recovery
		panic("test panic for Sentry")
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Sentry test endpoint",
			"usage":   "?type=message|error|panic",
		})
	}
}
