package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/ai-widget/internal/chat"
	"github.com/suPer8Hu/ai-widget/internal/storage"
)

const key = "aidemy_chat_history"

func makeTurns(n int) []chat.Turn {
	base := time.UnixMilli(1_700_000_000_000)
	turns := make([]chat.Turn, 0, n)
	for i := 0; i < n; i++ {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		turns = append(turns, chat.NewTurn(role, fmt.Sprintf("turn %d", i), base.Add(time.Duration(i)*time.Second)))
	}
	return turns
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), DefaultLimit, zerolog.Nop())
	turns := makeTurns(7)
	turns[3].Content = "Caffè \"speciale\" <b>ok</b>\nriga due"

	require.NoError(t, s.Save(ctx, key, turns))
	loaded := s.Load(ctx, key)

	assert.Equal(t, turns, loaded)
}

func TestSave_TruncatesToMostRecent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), DefaultLimit, zerolog.Nop())
	turns := makeTurns(DefaultLimit + 5)

	require.NoError(t, s.Save(ctx, key, turns))
	loaded := s.Load(ctx, key)

	require.Len(t, loaded, DefaultLimit)
	assert.Equal(t, turns[5:], loaded)
	assert.Len(t, turns, DefaultLimit+5, "caller slice must not be truncated")
}

func TestLoad_MissingKeyIsEmpty(t *testing.T) {
	s := NewStore(storage.NewMemory(), 0, zerolog.Nop())

	loaded := s.Load(context.Background(), key)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
	assert.Equal(t, DefaultLimit, s.limit)
}

func TestLoad_CorruptDataIsEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":        "{oops",
		"wrong shape":     `{"role":"user"}`,
		"unknown role":    `[{"role":"system","content":"x","timestamp":1}]`,
		"empty content":   `[{"role":"user","content":"","timestamp":1}]`,
		"out of order":    `[{"role":"user","content":"a","timestamp":5},{"role":"assistant","content":"b","timestamp":1}]`,
		"wrong type":      `[{"role":"user","content":42,"timestamp":1}]`,
		"truncated array": `[{"role":"user","content":"a","timestamp":1}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			mem := storage.NewMemory()
			require.NoError(t, mem.Set(ctx, key, raw))
			s := NewStore(mem, DefaultLimit, zerolog.Nop())

			assert.Empty(t, s.Load(ctx, key))
		})
	}
}

func TestLoad_OversizedStoredHistoryIsTrimmed(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, NewStore(mem, 50, zerolog.Nop()).Save(ctx, key, makeTurns(30)))

	loaded := NewStore(mem, 10, zerolog.Nop()).Load(ctx, key)
	require.Len(t, loaded, 10)
	assert.Equal(t, "turn 20", loaded[0].Content)
}

type unavailableStorage struct{}

func (unavailableStorage) Get(context.Context, string) (string, error) {
	return "", storage.ErrUnavailable
}
func (unavailableStorage) Set(context.Context, string, string) error { return storage.ErrUnavailable }
func (unavailableStorage) Delete(context.Context, string) error      { return storage.ErrUnavailable }

func TestStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	s := NewStore(unavailableStorage{}, DefaultLimit, zerolog.Nop())

	assert.Empty(t, s.Load(ctx, key))
	assert.ErrorIs(t, s.Save(ctx, key, makeTurns(2)), storage.ErrUnavailable)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), DefaultLimit, zerolog.Nop())
	require.NoError(t, s.Save(ctx, key, makeTurns(3)))

	require.NoError(t, s.Clear(ctx, key))
	assert.Empty(t, s.Load(ctx, key))
}
