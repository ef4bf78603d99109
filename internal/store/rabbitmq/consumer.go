package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/events"
)

const maxConcurrency = 50

// Handler processes one turn event. A returned error dead-letters the message.
type Handler func(ctx context.Context, ev events.TurnEvent) error

// Consumer drains the turn queue with a fixed pool of workers.
type Consumer struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	concurrency int
	logger      zerolog.Logger
}

func NewConsumer(url, queue string, concurrency int, logger zerolog.Logger) (*Consumer, error) {
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}

	// declaring through the publisher keeps the queue arguments identical
	p, err := NewPublisher(url, queue)
	if err != nil {
		return nil, err
	}
	if err := p.ch.Qos(concurrency, 0, false); err != nil {
		_ = p.Close()
		return nil, err
	}
	return &Consumer{conn: p.conn, ch: p.ch, queue: queue, concurrency: concurrency, logger: logger}, nil
}

func (c *Consumer) Close() error {
	_ = c.ch.Close()
	return c.conn.Close()
}

// Run blocks until ctx is done or the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.Info().Str("queue", c.queue).Int("concurrency", c.concurrency).Msg("consumer started")
	return serve(ctx, msgs, c.concurrency, h, c.logger)
}

func serve(ctx context.Context, msgs <-chan amqp.Delivery, concurrency int, h Handler, logger zerolog.Logger) error {
	in := make(chan amqp.Delivery)
	go func() {
		defer close(in)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case in <- d:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()

	done := make(chan struct{})
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer func() { done <- struct{}{} }()
			for d := range in {
				handle(ctx, workerID, d, h, logger)
			}
		}(i)
	}
	for i := 0; i < concurrency; i++ {
		<-done
	}

	if ctx.Err() != nil {
		logger.Info().Msg("consumer shutting down")
		return nil
	}
	return errors.New("rabbitmq: delivery channel closed")
}

func handle(ctx context.Context, workerID int, d amqp.Delivery, h Handler, logger zerolog.Logger) {
	ev, err := decodeTurn(d.Body)
	if err != nil {
		logger.Warn().Int("worker", workerID).Err(err).Msg("bad turn message")
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := h(ctx, ev); err != nil {
		logger.Error().Int("worker", workerID).Err(err).
			Str("session_id", ev.SessionID).
			Dur("cost", time.Since(start)).
			Msg("turn handler failed")
		// shutting down: hand the message back instead of dead-lettering it
		_ = d.Nack(false, ctx.Err() != nil)
		return
	}
	if err := d.Ack(false); err != nil {
		logger.Warn().Int("worker", workerID).Err(err).Str("session_id", ev.SessionID).Msg("ack failed")
	}
}

func decodeTurn(body []byte) (events.TurnEvent, error) {
	var ev events.TurnEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, err
	}
	if ev.SessionID == "" || !ev.Role.Valid() {
		return ev, errors.New("rabbitmq: turn event missing session or role")
	}
	return ev, nil
}
