package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"styleassets/internal/domain"
)

const version = "dev"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config file (optional, can use env vars)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Load configuration
	cfg, err := LoadConfig(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("styleassets-agent starting",
		"version", version,
		"server_url", cfg.ServerURL,
		"asset_dir", cfg.AssetDir,
		"agent_name", cfg.AgentName,
		"kinds", cfg.Kinds,
		"peers", cfg.Peers,
		"sync_interval", cfg.SyncInterval,
		"probe_interval", cfg.ProbeInterval,
	)

	// Generate agent ID
	agentID := uuid.New()
	logger.Info("agent id generated", "agent_id", agentID)

	// Create API client
	client := NewClient(cfg.ServerURL, agentID, cfg.RequestTimeout, logger)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	// Run scheduler
	if err := runScheduler(ctx, cfg, client, logger); err != nil {
		logger.Error("scheduler failed", "error", err)
		os.Exit(1)
	}

	logger.Info("styleassets-agent stopped")
}

func runScheduler(ctx context.Context, cfg *Config, client *Client, logger *slog.Logger) error {
	syncTicker := time.NewTicker(cfg.SyncInterval)
	defer syncTicker.Stop()

	probeTicker := time.NewTicker(cfg.ProbeInterval)
	defer probeTicker.Stop()

	// Initial sync cycle and probe
	runSyncCycle(ctx, cfg, client, logger)
	if err := client.Probe(ctx); err != nil {
		logger.Error("health probe failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, stopping scheduler")
			return nil

		case <-syncTicker.C:
			runSyncCycle(ctx, cfg, client, logger)

		case <-probeTicker.C:
			if err := client.Probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
			}
		}
	}
}

// runSyncCycle drives one scheduled cycle: ask the server to push its
// catalog to its peers, then bring the local replica up to date.
func runSyncCycle(ctx context.Context, cfg *Config, client *Client, logger *slog.Logger) {
	report, err := client.TriggerSync(ctx, cfg.Peers, cfg.MaxRetries, cfg.RetryBackoff)
	if err != nil {
		logger.Error("peer sync trigger failed", "error", err)
	} else {
		logger.Info("peer sync completed",
			"success", report.Success,
			"synced", len(report.SyncedServices),
			"failed", len(report.FailedServices),
			"success_rate", report.Summary.SuccessRate,
		)
	}

	runReplication(ctx, cfg, client, logger)
}

// kindLayout maps a manifest asset kind to its API path segment and the
// subdirectory it replicates into.
type kindLayout struct {
	apiPath string
	subdir  string
	ids     func(m *domain.AssetManifest) []string
}

var kindLayouts = map[string]kindLayout{
	"fonts":         {"fonts", "fonts", func(m *domain.AssetManifest) []string { return m.Fonts }},
	"color_schemes": {"color-schemes", "color_schemes", func(m *domain.AssetManifest) []string { return m.ColorSchemes }},
	"templates":     {"templates", "templates", func(m *domain.AssetManifest) []string { return m.Templates }},
}

func runReplication(ctx context.Context, cfg *Config, client *Client, logger *slog.Logger) {
	logger.Info("starting replication", "server_url", cfg.ServerURL)

	manifest, err := client.FetchManifest(ctx, cfg.MaxRetries, cfg.RetryBackoff)
	if err != nil {
		logger.Error("manifest fetch failed", "error", err)
		return
	}

	logger.Info("fetched manifest",
		"service", manifest.Service,
		"version", manifest.Version,
		"assets", manifest.AssetTotal(),
	)

	var fetched, present, missing int
	for _, kind := range cfg.Kinds {
		layout := kindLayouts[kind]
		dir := filepath.Join(cfg.AssetDir, layout.subdir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("create replica dir failed", "dir", dir, "error", err)
			continue
		}

		for _, id := range layout.ids(manifest) {
			if hasLocalCopy(dir, id) {
				present++
				continue
			}

			filename, data, err := client.DownloadAsset(ctx, layout.apiPath, id)
			if err != nil {
				if errors.Is(err, errAssetMissing) {
					logger.Warn("asset listed but not downloadable", "kind", kind, "id", id)
					missing++
					continue
				}
				logger.Error("download failed", "kind", kind, "id", id, "error", err)
				continue
			}

			// Base() strips any path the server may have put in the filename.
			dest := filepath.Join(dir, filepath.Base(filename))
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				logger.Error("write replica file failed", "kind", kind, "id", id, "error", err)
				continue
			}
			fetched++
			logger.Info("replicated asset", "kind", kind, "id", id, "file", filename, "bytes", len(data))
		}
	}

	logger.Info("replication completed", "fetched", fetched, "present", present, "missing", missing)
}

// hasLocalCopy reports whether any file for the asset ID already exists.
// Asset IDs are slugs, so the glob pattern needs no escaping.
func hasLocalCopy(dir, id string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, id+".*"))
	return err == nil && len(matches) > 0
}
