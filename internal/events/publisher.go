// Package events publishes asset catalog change events to NATS JetStream.
// When no broker is configured the no-op publisher keeps the call sites
// unconditional.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for catalog change events.
const (
	SubjectFontRegistered = "styleassets.font.registered"
	SubjectSchemeCreated  = "styleassets.scheme.created"
	SubjectBundleCreated  = "styleassets.bundle.created"
	SubjectSyncCompleted  = "styleassets.sync.completed"
)

// FontRegistered is the payload for SubjectFontRegistered.
type FontRegistered struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// SchemeCreated is the payload for SubjectSchemeCreated.
type SchemeCreated struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// BundleCreated is the payload for SubjectBundleCreated.
type BundleCreated struct {
	ID        string    `json:"bundle_id"`
	Name      string    `json:"bundle_name"`
	Style     string    `json:"style"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncCompleted is the payload for SubjectSyncCompleted.
type SyncCompleted struct {
	SyncType    string    `json:"sync_type"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	SuccessRate float64   `json:"success_rate"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher emits catalog change events. Publishing is advisory: callers
// log failures but never fail the request over one.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }

// NATSPublisher publishes events through JetStream.
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// NewNATSPublisher connects to the broker. The connection retries in the
// background, so a broker that is briefly down does not block startup.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	logger.Info("connected to nats", "url", url)
	return &NATSPublisher{nc: nc, js: js, logger: logger}, nil
}

// Publish emits one event asynchronously (fire and forget).
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.logger.Error("publish event failed", "subject", subject, "error", err)
		return fmt.Errorf("publish event: %w", err)
	}
	p.logger.Debug("event published", "subject", subject, "size", len(data))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
