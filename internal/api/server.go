package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"

	"styleassets/internal/assets"
	"styleassets/internal/bundle"
	"styleassets/internal/domain"
	"styleassets/internal/events"
	"styleassets/internal/observability"
	"styleassets/internal/registry"
	"styleassets/internal/storage"
	"styleassets/internal/syncsvc"
)

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type Server struct {
	mux       *http.ServeMux
	store     storage.Store
	root      assets.Root
	logger    observability.Logger
	metrics   *observability.Metrics
	events    events.Publisher
	fonts     *registry.Fonts
	schemes   *registry.Schemes
	templates *registry.Templates
	validator *registry.Validator
	builder   *bundle.Builder
	engine    *syncsvc.Engine
	version   string
}

// NewServer creates a new HTTP server with the given dependencies.
// If logger is nil, a default logger will be used.
// If metrics is nil, metrics collection is disabled.
// Catalog services are built internally; the bundle builder, sync engine
// and event publisher start with no-frills defaults that the setters can
// replace before RegisterRoutes.
func NewServer(mux *http.ServeMux, store storage.Store, root assets.Root, logger observability.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	s := &Server{
		mux:     mux,
		store:   store,
		root:    root,
		logger:  logger,
		metrics: metrics,
		events:  events.NopPublisher{},
		version: "dev",
	}
	s.fonts = registry.NewFonts(store, root)
	s.schemes = registry.NewSchemes(store, root)
	s.templates = registry.NewTemplates(store, root)
	s.validator = registry.NewValidator(store, root)
	s.builder = bundle.NewBuilder(store, root, nil, logger.Slog())
	s.engine = syncsvc.NewEngine(syncsvc.DefaultPeers(), s.buildManifest, nil, logger.Slog())
	return s
}

// NewServerWithSlog creates a new HTTP server with a raw *slog.Logger.
// This is for backward compatibility with existing code.
func NewServerWithSlog(mux *http.ServeMux, store storage.Store, root assets.Root, slogger *slog.Logger) *Server {
	var logger observability.Logger
	if slogger != nil {
		logger = observability.NewLoggerFromSlog(slogger)
	} else {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	return NewServer(mux, store, root, logger, nil)
}

// SetVersion sets the version string reported by the index, manifest and
// readiness endpoints.
func (s *Server) SetVersion(v string) {
	if v != "" {
		s.version = v
	}
}

// SetPublisher replaces the event publisher. A nil publisher disables
// event publishing.
func (s *Server) SetPublisher(p events.Publisher) {
	if p == nil {
		p = events.NopPublisher{}
	}
	s.events = p
}

// SetBundleBuilder replaces the default bundle builder, typically to wire
// in an object-store mirror.
func (s *Server) SetBundleBuilder(b *bundle.Builder) {
	if b != nil {
		s.builder = b
	}
}

// SetSyncEngine replaces the default sync engine, typically to wire in a
// peer list from configuration.
func (s *Server) SetSyncEngine(e *syncsvc.Engine) {
	if e != nil {
		s.engine = e
	}
}

// SetSyncPeers rebuilds the sync engine with the given peer list, keeping
// this server's manifest as the sync source.
func (s *Server) SetSyncPeers(peers []syncsvc.Peer) {
	s.engine = syncsvc.NewEngine(peers, s.buildManifest, nil, s.logger.Slog())
}

func (s *Server) buildManifest(ctx context.Context) (domain.AssetManifest, error) {
	return registry.BuildManifest(ctx, s.store, s.version)
}

// publish emits a catalog change event. Failures are logged and swallowed:
// event delivery never fails the request that triggered it.
func (s *Server) publish(ctx context.Context, subject string, event any) {
	if err := s.events.Publish(ctx, subject, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", appendRequestID(ctx, []any{
			"subject", subject,
			"error", err.Error(),
		})...)
	}
}

func (s *Server) writeErr(ctx context.Context, w http.ResponseWriter, code int, msg string, detail string) {
	fields := []any{
		"status", code,
		"error", msg,
	}
	if detail != "" {
		fields = append(fields, "detail", detail)
	}
	fields = appendRequestID(ctx, fields)
	if code >= 500 {
		s.logger.ErrorContext(ctx, "request failed", fields...)
		sentry.CaptureMessage(fmt.Sprintf("HTTP %d: %s (detail: %s)", code, msg, detail))
	} else {
		s.logger.WarnContext(ctx, "request failed", fields...)
	}
	writeJSON(w, code, apiError{Error: msg, Detail: detail})
}

// writeStoreErr maps a storage-layer error to the appropriate HTTP status code
// and writes the error response. It uses errors.Is() to detect sentinel errors
// from the storage package, falling back to 500 Internal Server Error for unknown errors.
func (s *Server) writeStoreErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeErr(ctx, w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, storage.ErrConflict):
		s.writeErr(ctx, w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, storage.ErrValidation):
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
	default:
		s.writeErr(ctx, w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) { s.status = code; s.ResponseWriter.WriteHeader(code) }

// RegisterRoutes registers all HTTP routes on the mux. The static asset
// surface is the catch-all; the catalog API lives under /api.
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/openapi.yaml", s.handleOpenAPISpec)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/readyz", s.handleReady)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
	s.mux.HandleFunc("/api/test-sentry", s.handleTestSentry)

	s.mux.HandleFunc("/api/fonts", s.handleFonts)
	s.mux.HandleFunc("/api/fonts/", s.handleFontSubroutes)
	s.mux.HandleFunc("/api/color-schemes", s.handleSchemes)
	s.mux.HandleFunc("/api/color-schemes/", s.handleSchemeSubroutes)
	s.mux.HandleFunc("/api/templates", s.handleTemplates)
	s.mux.HandleFunc("/api/templates/", s.handleTemplateSubroutes)
	s.mux.HandleFunc("/api/bundles", s.handleBundles)
	s.mux.HandleFunc("/api/bundles/", s.handleBundleSubroutes)
	s.mux.HandleFunc("/api/assets/bundle", s.handleBundleCreate)
	s.mux.HandleFunc("/api/assets/validate", s.handleValidate)
	s.mux.HandleFunc("/api/assets/sync", s.handleSync)
	s.mux.HandleFunc("/api/assets/manifest", s.handleManifest)
	s.mux.HandleFunc("/api/assets/import", s.handleImport)

	// Service index at / plus the static asset tree (catch-all).
	s.mux.Handle("/", s.handleAssets())
}
