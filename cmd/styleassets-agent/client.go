package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"styleassets/internal/domain"
)

// errAssetMissing marks an asset that is listed in the manifest but whose
// file is gone on the server. Not retryable.
var errAssetMissing = errors.New("asset file missing on server")

// Client handles HTTP communication with the style-assets server.
type Client struct {
	serverURL string
	agentID   uuid.UUID
	client    *http.Client
	logger    *slog.Logger
}

// NewClient creates a new Client instance.
func NewClient(serverURL string, agentID uuid.UUID, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		agentID:   agentID,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Probe checks the server's liveness endpoint.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var health struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health probe failed (status %d): %s", resp.StatusCode, health.Error)
	}

	c.logger.Debug("health probe ok", "service", health.Service, "agent_id", c.agentID)
	return nil
}

// FetchManifest retrieves the server's asset manifest with retry logic.
func (c *Client) FetchManifest(ctx context.Context, maxRetries int, backoff time.Duration) (*domain.AssetManifest, error) {
	url := c.serverURL + "/api/assets/manifest"
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Wait before retry (exponential backoff)
			delay := backoff * time.Duration(1<<uint(attempt-1))
			c.logger.Info("retrying manifest fetch", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			c.logger.Error("manifest fetch failed", "error", lastErr, "attempt", attempt+1)
			continue
		}

		// Success!
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			var manifest domain.AssetManifest
			if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("decode response: %w", err)
			}
			_ = resp.Body.Close()
			return &manifest, nil
		}

		// Client error (4xx) - don't retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			var errBody struct {
				Error  string `json:"error"`
				Detail string `json:"detail"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&errBody)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("server rejected request (status %d): %s - %s", resp.StatusCode, errBody.Error, errBody.Detail)
		}

		// Server error (5xx) - retry
		_ = resp.Body.Close()
		lastErr = fmt.Errorf("server error (status %d)", resp.StatusCode)
		c.logger.Error("manifest fetch failed", "error", lastErr, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("manifest fetch failed after %d attempts: %w", maxRetries+1, lastErr)
}

// TriggerSync asks the server to push its catalog to the named peer
// services, retrying on transient failures. An empty services list means
// every peer the server is configured with.
func (c *Client) TriggerSync(ctx context.Context, services []string, maxRetries int, backoff time.Duration) (*domain.SyncReport, error) {
	url := c.serverURL + "/api/assets/sync"
	body, err := json.Marshal(domain.SyncRequest{Services: services})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Wait before retry (exponential backoff)
			delay := backoff * time.Duration(1<<uint(attempt-1))
			c.logger.Info("retrying sync trigger", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			c.logger.Error("sync trigger failed", "error", lastErr, "attempt", attempt+1)
			continue
		}

		// Success!
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			var report domain.SyncReport
			if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("decode response: %w", err)
			}
			_ = resp.Body.Close()
			return &report, nil
		}

		// Client error (4xx) - don't retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			var errBody struct {
				Error  string `json:"error"`
				Detail string `json:"detail"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&errBody)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("server rejected request (status %d): %s - %s", resp.StatusCode, errBody.Error, errBody.Detail)
		}

		// Server error (5xx) - retry
		_ = resp.Body.Close()
		lastErr = fmt.Errorf("server error (status %d)", resp.StatusCode)
		c.logger.Error("sync trigger failed", "error", lastErr, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("sync trigger failed after %d attempts: %w", maxRetries+1, lastErr)
}

// DownloadAsset fetches one catalog file. The returned filename comes from
// the Content-Disposition header, falling back to the asset ID.
func (c *Client) DownloadAsset(ctx context.Context, apiPath, id string) (string, []byte, error) {
	url := fmt.Sprintf("%s/api/%s/%s/download", c.serverURL, apiPath, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil, errAssetMissing
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return "", nil, fmt.Errorf("download failed (status %d): %s - %s", resp.StatusCode, errBody.Error, errBody.Detail)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}

	filename := id
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := params["filename"]; fn != "" {
			filename = fn
		}
	}
	return filename, data, nil
}
