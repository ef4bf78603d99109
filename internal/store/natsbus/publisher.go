package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/events"
)

// Publisher sends turn events to a NATS subject, one message per turn.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

func NewPublisher(url, subject string, logger zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("ai-widget"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, subject: subject}, nil
}

func (p *Publisher) PublishTurn(_ context.Context, ev events.TurnEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal turn event: %w", err)
	}
	return p.conn.Publish(subjectFor(p.subject, ev), payload)
}

func (p *Publisher) Close() {
	p.conn.Close()
}

// subjectFor appends the role so consumers can subscribe to one side only,
// e.g. widget.turns.user.
func subjectFor(base string, ev events.TurnEvent) string {
	return base + "." + string(ev.Role)
}
