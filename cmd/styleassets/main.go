package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"styleassets/internal/api"
	"styleassets/internal/assets"
	"styleassets/internal/bundle"
	"styleassets/internal/events"
	"styleassets/internal/mirror"
	"styleassets/internal/observability"
	"styleassets/internal/registry"
	"styleassets/internal/syncsvc"
)

func main() {
	// Load .env for local development; a missing file is not an error.
	_ = godotenv.Load()

	// Initialize structured logger from environment configuration
	logCfg := observability.ConfigFromEnv()
	logger := observability.NewLogger(logCfg)

	addr := envOr("ADDR", ":5003")
	if p := os.Getenv("PORT"); p != "" { // Heroku-style
		addr = ":" + p
	}
	flag.StringVar(&addr, "addr", addr, "listen address (host:port)")
	migrate := flag.String("migrate", "", "run migrations: 'up' to apply, 'status' to show status")
	flag.Parse()

	// Initialize Sentry if DSN is provided
	sentryDSN := os.Getenv("SENTRY_DSN")
	sentryEnabled := false
	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			Environment:      envOr("SENTRY_ENVIRONMENT", "production"),
			Release:          envOr("APP_VERSION", "dev"),
			TracesSampleRate: 1.0, // Capture 100% of transactions for performance monitoring
			AttachStacktrace: true,
		})
		if err != nil {
			logger.Warn("sentry initialization failed", "error", err)
		} else {
			logger.Info("sentry initialized",
				"environment", envOr("SENTRY_ENVIRONMENT", "production"),
				"release", envOr("APP_VERSION", "dev"),
			)
			sentryEnabled = true
		}
	}

	// Handle migrations CLI before starting server
	if *migrate != "" {
		runMigrationsCLI(logger, *migrate)
		return
	}

	// Select storage based on build tags and env (see store_*.go in this package).
	store := selectStore(logger)

	// Prepare the on-disk asset tree and seed the stock catalog.
	root, err := assets.NewRoot(envOr("STYLEASSETS_DIR", "assets"))
	if err != nil {
		logger.Error("asset root unavailable", "error", err)
		os.Exit(1)
	}
	if err := root.EnsureLayout(); err != nil {
		logger.Error("asset layout setup failed", "dir", root.Dir(), "error", err)
		os.Exit(1)
	}
	if err := registry.Seed(context.Background(), store, root); err != nil {
		logger.Error("catalog seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("asset root ready", "dir", root.Dir())

	// Initialize metrics
	metricsCfg := observability.MetricsConfigFromEnv()
	var metrics *observability.Metrics
	if metricsCfg.Enabled {
		metrics = observability.NewMetrics(metricsCfg)
		logger.Info("metrics enabled",
			"namespace", metricsCfg.Namespace,
			"version", metricsCfg.Version,
		)
	} else {
		logger.Info("metrics disabled")
	}

	rateCfg := api.DefaultRateLimitConfig()
	if rpsVal := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rpsVal != "" {
		if parsed, err := strconv.ParseFloat(rpsVal, 64); err != nil {
			logger.Warn("invalid RATE_LIMIT_RPS; disabling rate limiting", "value", rpsVal, "error", err)
			rateCfg.RequestsPerSecond = 0
		} else if parsed <= 0 {
			logger.Warn("non-positive RATE_LIMIT_RPS; disabling rate limiting", "value", parsed)
			rateCfg.RequestsPerSecond = 0
		} else {
			rateCfg.RequestsPerSecond = parsed
		}
	}
	if burstVal := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burstVal != "" {
		if parsed, err := strconv.Atoi(burstVal); err != nil {
			logger.Warn("invalid RATE_LIMIT_BURST; using default", "value", burstVal, "error", err)
		} else if parsed <= 0 {
			logger.Warn("non-positive RATE_LIMIT_BURST; disabling rate limiting", "value", parsed)
			rateCfg.Burst = 0
		} else {
			rateCfg.Burst = parsed
		}
	}
	if !rateCfg.Enabled() {
		logger.Info("rate limiting disabled")
	} else {
		logger.Info("rate limiting configured",
			"requests_per_second", rateCfg.RequestsPerSecond,
			"burst", rateCfg.Burst,
		)
	}

	// Parse trusted proxies for X-Forwarded-For handling
	var proxyConfig *api.TrustedProxyConfig
	if proxiesEnv := os.Getenv("STYLEASSETS_TRUSTED_PROXIES"); proxiesEnv != "" {
		var err error
		proxyConfig, err = api.ParseTrustedProxies(proxiesEnv)
		if err != nil {
			logger.Error("invalid STYLEASSETS_TRUSTED_PROXIES", "error", err)
		} else {
			logger.Info("trusted proxies configured", "count", len(proxyConfig.CIDRs))
		}
	}

	mux := http.NewServeMux()
	srv := api.NewServer(mux, store, root, logger, metrics)
	srv.SetVersion(envOr("APP_VERSION", "dev"))

	// Optional NATS event publishing
	var publisher events.Publisher
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		p, err := events.NewNATSPublisher(natsURL, logger.Slog())
		if err != nil {
			logger.Warn("nats unavailable; event publishing disabled", "error", err)
		} else {
			publisher = p
			srv.SetPublisher(p)
			logger.Info("event publishing enabled", "url", natsURL)
		}
	} else {
		logger.Info("event publishing disabled (set NATS_URL to enable)")
	}

	// Optional S3 bundle mirroring
	mirrorCfg := mirror.ConfigFromEnv()
	if mirrorCfg.Enabled() {
		m, err := mirror.New(context.Background(), mirrorCfg)
		if err != nil {
			logger.Warn("bundle mirror unavailable", "bucket", mirrorCfg.Bucket, "error", err)
		} else {
			srv.SetBundleBuilder(bundle.NewBuilder(store, root, m, logger.Slog()))
			logger.Info("bundle mirroring enabled", "bucket", mirrorCfg.Bucket)
		}
	} else {
		logger.Info("bundle mirroring disabled (set STYLEASSETS_S3_BUCKET to enable)")
	}

	// Sync peers: explicit configuration wins over the well-known service list.
	if peersEnv := os.Getenv("STYLEASSETS_PEERS"); peersEnv != "" {
		peers, err := syncsvc.ParsePeers(peersEnv)
		if err != nil {
			logger.Error("invalid STYLEASSETS_PEERS", "error", err)
		} else {
			srv.SetSyncPeers(peers)
			logger.Info("sync peers configured", "count", len(peers))
		}
	} else {
		logger.Info("sync peers defaulted", "count", len(syncsvc.DefaultPeers()))
	}

	srv.RegisterRoutes()

	// Apply middleware stack (metrics, path guard, request ID, structured logging, rate limiting).
	// Order: metrics (outermost) -> pathGuard -> requestID -> logging -> rateLimiting (innermost before handler)
	handler := api.ApplyMiddlewares(
		mux,
		observability.MetricsMiddleware(metrics),
		api.PathGuardMiddleware(),
		api.RequestIDMiddleware(),
		api.LoggingMiddleware(logger.Slog()),
		api.RateLimitMiddleware(rateCfg, proxyConfig, logger.Slog()),
	)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Run server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("styleassets listening", "addr", addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown with 15-second timeout
	logger.Info("shutting down server", "timeout", "15s")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	} else {
		logger.Info("server stopped gracefully")
	}

	// Close database connection
	if err := store.Close(); err != nil {
		logger.Error("error closing store", "error", err)
	} else {
		logger.Info("database connection closed")
	}

	// Drain the event publisher
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("error closing event publisher", "error", err)
		}
	}

	// Flush Sentry events
	if sentryEnabled {
		logger.Info("flushing sentry events", "deadline", "2s")
		sentry.Flush(2 * time.Second)
	}

	logger.Info("shutdown complete")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// runMigrationsCLI executes migration commands.
func runMigrationsCLI(logger observability.Logger, cmd string) {
	switch cmd {
	case "up":
		// Initialize store (runs migrations automatically), then show status
		st := selectStore(logger)
		_ = st.Close()
		runMigrationsCLI(logger, "status")
	case "status":
		status := "migrations status not available in this build"
		// Try SQLite status first
		dsn := os.Getenv("SQLITE_DSN")
		if dsn == "" {
			dsn = "file:styleassets.db?cache=shared&_fk=1"
		}
		if s := sqliteStatus(dsn); s != "" {
			status = s
		}
		// Try PostgreSQL status
		if s := postgresStatus(); s != "" {
			status = s
		}
		logger.Info("migrations status", "status", status)
	default:
		logger.Warn("unknown migrate command", "command", cmd)
	}
}
