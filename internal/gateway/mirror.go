package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// MirrorConfig holds configuration for the NATS event mirror.
type MirrorConfig struct {
	URL           string
	SubjectPrefix string // e.g. "jeopardy.games"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultMirrorConfig returns default event mirror configuration.
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "jeopardy.games",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// EventMirror republishes every outbound game event to NATS so external
// consumers (spectator feeds, analytics) can follow games without holding a
// WebSocket. Publishing is fire-and-forget and never blocks a broadcast.
type EventMirror struct {
	nc     *nats.Conn
	config MirrorConfig
}

// NewEventMirror connects to NATS and returns a mirror.
func NewEventMirror(config MirrorConfig) (*EventMirror, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &EventMirror{nc: nc, config: config}, nil
}

// Publish mirrors one event. Errors are logged, never returned to the hub.
func (m *EventMirror) Publish(event GameEvent) {
	subject := m.config.SubjectPrefix + ".all"
	if event.GameID != "" {
		subject = fmt.Sprintf("%s.%s", m.config.SubjectPrefix, event.GameID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to marshal event for mirror")
		return
	}
	if err := m.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to mirror event")
	}
}

// Close drains and closes the NATS connection.
func (m *EventMirror) Close() {
	if err := m.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
