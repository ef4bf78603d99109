package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/chat"
)

// TurnEvent is emitted after a turn has been appended and persisted.
type TurnEvent struct {
	SessionID string    `json:"session_id"`
	Role      chat.Role `json:"role"`
	Content   string    `json:"content"`
	Timestamp int64     `json:"timestamp"`
	Fallback  bool      `json:"fallback,omitempty"`
}

type Sink interface {
	PublishTurn(ctx context.Context, ev TurnEvent) error
}

const publishTimeout = 5 * time.Second

// Async hands events to a single goroutine so publishing never blocks the
// caller. Events are delivered in the order they were queued; when the
// buffer is full new events are dropped.
type Async struct {
	sink   Sink
	logger zerolog.Logger
	queue  chan TurnEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(sink Sink, buffer int, logger zerolog.Logger) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	a := &Async{
		sink:   sink,
		logger: logger,
		queue:  make(chan TurnEvent, buffer),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) PublishTurn(_ context.Context, ev TurnEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.queue <- ev:
	default:
		a.logger.Warn().Str("session_id", ev.SessionID).Msg("turn event dropped, queue full")
	}
	return nil
}

// Close stops accepting events and waits until queued ones are delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := a.sink.PublishTurn(ctx, ev); err != nil {
			a.logger.Warn().Err(err).Str("session_id", ev.SessionID).Msg("turn event publish failed")
		}
		cancel()
	}
}
