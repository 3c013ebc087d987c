package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ant-design/antd-tools/internal/config"
	"github.com/ant-design/antd-tools/internal/logfields"
)

// conn is the subset of *nats.Conn the client uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSClient publishes release events.
type NATSClient struct {
	conn    conn
	subject string
}

// NewNATSClient connects to the configured server.
func NewNATSClient(cfg config.NotifyConfig) (*NATSClient, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("notify.nats_url is required")
	}
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("antd-tools"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(2))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS client initialized for release events", logfields.URL(cfg.NATSURL), slog.String("subject", cfg.Subject))
	return &NATSClient{conn: nc, subject: cfg.Subject}, nil
}

// Released publishes ev and waits for the server to acknowledge the flush.
func (c *NATSClient) Released(ctx context.Context, ev ReleaseEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.conn.Publish(c.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published release event",
		logfields.Package(ev.Package),
		logfields.Version(ev.Version),
		slog.String("subject", c.subject))
	return nil
}

// Close closes the NATS connection.
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
