package syncsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"styleassets/internal/domain"
)

// ManifestFunc supplies the local asset manifest for a push.
type ManifestFunc func(ctx context.Context) (domain.AssetManifest, error)

// Engine drives peer synchronization. A nil client gets a 10s-timeout
// default; a nil logger falls back to slog.Default.
type Engine struct {
	peers    map[string]Peer
	order    []string
	manifest ManifestFunc
	client   *http.Client
	logger   *slog.Logger
}

func NewEngine(peers []Peer, manifest ManifestFunc, client *http.Client, logger *slog.Logger) *Engine {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		peers:    make(map[string]Peer, len(peers)),
		manifest: manifest,
		client:   client,
		logger:   logger,
	}
	for _, p := range peers {
		if _, seen := e.peers[p.Name]; !seen {
			e.order = append(e.order, p.Name)
		}
		e.peers[p.Name] = p
	}
	return e
}

// Peers returns the configured peer list in registration order.
func (e *Engine) Peers() []Peer {
	out := make([]Peer, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.peers[name])
	}
	return out
}

// Sync synchronizes with the requested peers. An empty service list means
// every configured peer; an unknown service name becomes a failed entry in
// the report, not a request error.
func (e *Engine) Sync(ctx context.Context, req domain.SyncRequest) domain.SyncReport {
	syncType := req.SyncType
	if syncType == "" {
		syncType = domain.SyncTypePush
	}
	services := req.Services
	if len(services) == 0 {
		services = e.order
	}

	report := domain.SyncReport{
		Success:        true,
		SyncType:       syncType,
		SyncedServices: []string{},
		FailedServices: []domain.PeerSyncResult{},
		Results:        []domain.PeerSyncResult{},
		Timestamp:      time.Now().UTC(),
	}

	for _, name := range services {
		res := e.syncPeer(ctx, name, syncType)
		report.Results = append(report.Results, res)
		if res.Status == "synced" {
			report.SyncedServices = append(report.SyncedServices, name)
			e.logger.Debug("peer sync ok", "service", name, "pushed", res.Pushed, "pulled", res.Pulled)
		} else {
			report.FailedServices = append(report.FailedServices, res)
			e.logger.Warn("peer sync failed", "service", name, "error", res.Error)
		}
	}

	total := len(services)
	successful := len(report.SyncedServices)
	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total)
	}
	report.Summary = domain.SyncSummary{
		TotalServices:   total,
		SuccessfulSyncs: successful,
		FailedSyncs:     len(report.FailedServices),
		SuccessRate:     rate,
	}
	report.Success = len(report.FailedServices) == 0
	return report
}

func (e *Engine) syncPeer(ctx context.Context, name string, syncType domain.SyncType) domain.PeerSyncResult {
	peer, ok := e.peers[name]
	if !ok {
		return domain.PeerSyncResult{
			Service: name,
			Status:  "failed",
			Error:   fmt.Sprintf("Unknown service: %s", name),
		}
	}

	res := domain.PeerSyncResult{Service: name, URL: peer.URL, Status: "failed"}
	if err := e.probe(ctx, peer); err != nil {
		res.Error = err.Error()
		return res
	}

	if syncType == domain.SyncTypePush || syncType == domain.SyncTypeBidirectional {
		pushed, err := e.push(ctx, peer)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Pushed = pushed
	}
	if syncType == domain.SyncTypePull || syncType == domain.SyncTypeBidirectional {
		pulled, err := e.pull(ctx, peer)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Pulled = pulled
	}

	res.Status = "synced"
	return res
}

// probe checks the peer's health endpoint before any transfer.
func (e *Engine) probe(ctx context.Context, peer Peer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer.URL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	defer drain(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service unhealthy: health returned %d", resp.StatusCode)
	}
	return nil
}

// push posts the local manifest to the peer's import endpoint and returns
// the number of assets offered.
func (e *Engine) push(ctx context.Context, peer Peer) (int, error) {
	manifest, err := e.manifest(ctx)
	if err != nil {
		return 0, fmt.Errorf("build manifest: %w", err)
	}
	body, err := json.Marshal(manifest)
	if err != nil {
		return 0, fmt.Errorf("encode manifest: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer.URL+"/api/assets/import", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build import request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("push manifest: %w", err)
	}
	defer drain(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("import returned %d", resp.StatusCode)
	}
	return manifest.AssetTotal(), nil
}

// pull fetches the peer's manifest and returns the number of assets it
// advertises.
func (e *Engine) pull(ctx context.Context, peer Peer) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer.URL+"/api/assets/manifest", nil)
	if err != nil {
		return 0, fmt.Errorf("build manifest request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("pull manifest: %w", err)
	}
	defer drain(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("manifest returned %d", resp.StatusCode)
	}

	var manifest domain.AssetManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return 0, fmt.Errorf("decode peer manifest: %w", err)
	}
	return manifest.AssetTotal(), nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
