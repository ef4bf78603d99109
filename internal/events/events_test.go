package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/ai-widget/internal/chat"
)

type recordingSink struct {
	mu     sync.Mutex
	events []TurnEvent
	fail   bool
}

func (r *recordingSink) PublishTurn(_ context.Context, ev TurnEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.fail {
		return errors.New("broker down")
	}
	return nil
}

func TestAsync_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	a := NewAsync(sink, 16, zerolog.Nop())

	for i, content := range []string{"uno", "due", "tre"} {
		require.NoError(t, a.PublishTurn(context.Background(), TurnEvent{
			SessionID: "s",
			Role:      chat.RoleUser,
			Content:   content,
			Timestamp: int64(i),
		}))
	}
	a.Close()

	require.Len(t, sink.events, 3)
	assert.Equal(t, "uno", sink.events[0].Content)
	assert.Equal(t, "tre", sink.events[2].Content)
}

func TestAsync_SinkErrorsAreSwallowed(t *testing.T) {
	sink := &recordingSink{fail: true}
	a := NewAsync(sink, 1, zerolog.Nop())

	assert.NoError(t, a.PublishTurn(context.Background(), TurnEvent{SessionID: "s"}))
	a.Close()
	assert.Len(t, sink.events, 1)
}

func TestAsync_PublishAfterCloseIsNoop(t *testing.T) {
	sink := &recordingSink{}
	a := NewAsync(sink, 1, zerolog.Nop())
	a.Close()
	a.Close()

	assert.NoError(t, a.PublishTurn(context.Background(), TurnEvent{SessionID: "s"}))
	assert.Empty(t, sink.events)
}
