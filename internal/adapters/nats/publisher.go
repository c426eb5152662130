package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// Subjects for game events.
const (
	SubjectGuessScored      = "geolocator.guess.scored"
	SubjectHighScoreChanged = "geolocator.leaderboard.highscore"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
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

	// Ensure the stream exists
	cfg := nats.StreamConfig{
		Name:       "GEOLOCATOR_EVENTS",
		Subjects:   []string{"geolocator.>"},
		Retention:  nats.LimitsPolicy,
		MaxAge:     24 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishGuessScored publishes a GuessScored event. The event ID doubles as
// the JetStream dedup ID.
func (p *Publisher) PublishGuessScored(ctx context.Context, evt *domain.GuessScored) error {
	data, err := EncodeGuessScored(evt)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectGuessScored, data, nats.Context(ctx), nats.MsgId(evt.EventID))
	return err
}

// PublishHighScoreChanged publishes a HighScoreChanged event.
func (p *Publisher) PublishHighScoreChanged(ctx context.Context, evt *domain.HighScoreChanged) error {
	data, err := EncodeHighScoreChanged(evt)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectHighScoreChanged, data, nats.Context(ctx), nats.MsgId(evt.EventID))
	return err
}

// Conn returns the underlying connection, shared with the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection that keeps reconnecting.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
