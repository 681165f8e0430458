package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// Stream and subjects for clip events.
const (
	StreamName                = "CLIP_EVENTS"
	SubjectAll                = "clip.>"
	SubjectRunCompleted       = "clip.run.completed"
	SubjectBoundarySimplified = "clip.boundary.simplified"
)

// BoundarySimplified is the payload published after a boundary was reduced.
type BoundarySimplified struct {
	Region string    `json:"region"`
	Before int       `json:"before"`
	After  int       `json:"after"`
	At     time.Time `json:"at"`
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the clip stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishRunCompleted publishes the run statistics.
func (p *Publisher) PublishRunCompleted(ctx context.Context, run *domain.ClipRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectRunCompleted, data, nats.Context(ctx), nats.MsgId(run.ID))
	return err
}

// PublishBoundarySimplified publishes the ring size before and after reduction.
func (p *Publisher) PublishBoundarySimplified(ctx context.Context, region string, before, after int) error {
	data, err := json.Marshal(BoundarySimplified{
		Region: region,
		Before: before,
		After:  after,
		At:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectBoundarySimplified, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for core subscriptions.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("bahnclip"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
