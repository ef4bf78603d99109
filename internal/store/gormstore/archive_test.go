package gormstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/ai-widget/internal/chat"
	"github.com/suPer8Hu/ai-widget/internal/events"
)

func TestArchive_RecordAndSession(t *testing.T) {
	ctx := context.Background()
	a := NewArchive(openTestDB(t))
	require.NoError(t, a.Migrate(ctx))

	for i, ev := range []events.TurnEvent{
		{SessionID: "s-1", Role: chat.RoleUser, Content: "ciao", Timestamp: 1000},
		{SessionID: "s-2", Role: chat.RoleUser, Content: "altro", Timestamp: 1500},
		{SessionID: "s-1", Role: chat.RoleAssistant, Content: "errore", Timestamp: 2000, Fallback: true},
		{SessionID: "s-1", Role: chat.RoleUser, Content: "riprovo", Timestamp: 3000},
	} {
		require.NoError(t, a.Record(ctx, ev), i)
	}

	turns, err := a.Session(ctx, "s-1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "ciao", turns[0].Content)
	assert.Equal(t, "riprovo", turns[2].Content)

	turns, err = a.Session(ctx, "s-1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "errore", turns[0].Content)
	assert.Equal(t, chat.RoleAssistant, turns[0].Role)

	turns, err = a.Session(ctx, "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
