package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/ai-widget/internal/storage"
)

const key = "aidemy_chat_session"

type countingStorage struct {
	storage.Storage
	sets int
}

func (c *countingStorage) Set(ctx context.Context, k, v string) error {
	c.sets++
	return c.Storage.Set(ctx, k, v)
}

type unavailableStorage struct{}

func (unavailableStorage) Get(context.Context, string) (string, error) {
	return "", storage.ErrUnavailable
}
func (unavailableStorage) Set(context.Context, string, string) error { return storage.ErrUnavailable }
func (unavailableStorage) Delete(context.Context, string) error      { return storage.ErrUnavailable }

// flakyReads fails the next fail reads and passes everything else through.
type flakyReads struct {
	storage.Storage
	fail int
}

func (f *flakyReads) Get(ctx context.Context, k string) (string, error) {
	if f.fail > 0 {
		f.fail--
		return "", errors.New("i/o timeout")
	}
	return f.Storage.Get(ctx, k)
}

func TestGetOrCreateSessionID_Idempotent(t *testing.T) {
	ctx := context.Background()
	cs := &countingStorage{Storage: storage.NewMemory()}
	s := NewStore(cs, zerolog.Nop())

	first := s.GetOrCreateSessionID(ctx, key)
	second := s.GetOrCreateSessionID(ctx, key)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cs.sets)

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.Equal(t, uuid.RFC4122, parsed.Variant())
}

func TestGetOrCreateSessionID_ReusesStoredID(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	existing := "0f8fad5b-d9cb-469f-a165-70867728950e"
	require.NoError(t, mem.Set(ctx, key, existing))

	cs := &countingStorage{Storage: mem}
	got := NewStore(cs, zerolog.Nop()).GetOrCreateSessionID(ctx, key)

	assert.Equal(t, existing, got)
	assert.Equal(t, 0, cs.sets)
}

func TestGetOrCreateSessionID_RegeneratesMalformed(t *testing.T) {
	ctx := context.Background()
	for _, stored := range []string{"", "   ", "not-a-uuid"} {
		mem := storage.NewMemory()
		require.NoError(t, mem.Set(ctx, key, stored))

		got := NewStore(mem, zerolog.Nop()).GetOrCreateSessionID(ctx, key)

		assert.NotEqual(t, stored, got)
		persisted, err := mem.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, got, persisted)
	}
}

func TestGetOrCreateSessionID_SurvivesNewStoreOverSameScope(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	first := NewStore(mem, zerolog.Nop()).GetOrCreateSessionID(ctx, key)
	second := NewStore(mem, zerolog.Nop()).GetOrCreateSessionID(ctx, key)

	assert.Equal(t, first, second)
}

func TestGetOrCreateSessionID_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	s := NewStore(unavailableStorage{}, zerolog.Nop())

	first := s.GetOrCreateSessionID(ctx, key)
	second := s.GetOrCreateSessionID(ctx, key)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second, "ephemeral id must be stable for the store lifetime")
}

func TestGetOrCreateSessionID_ReadErrorKeepsStoredID(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	existing := "0f8fad5b-d9cb-469f-a165-70867728950e"
	require.NoError(t, mem.Set(ctx, key, existing))

	flaky := &flakyReads{Storage: mem, fail: 1}
	cs := &countingStorage{Storage: flaky}
	s := NewStore(cs, zerolog.Nop())

	first := s.GetOrCreateSessionID(ctx, key)
	assert.NotEqual(t, existing, first)
	assert.Equal(t, first, s.GetOrCreateSessionID(ctx, key), "ephemeral id is stable")
	assert.Equal(t, 0, cs.sets)

	stored, err := mem.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, existing, stored)

	// a fresh Store over the healthy backend sees the original id again
	assert.Equal(t, existing, NewStore(mem, zerolog.Nop()).GetOrCreateSessionID(ctx, key))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), zerolog.Nop())

	first := s.GetOrCreateSessionID(ctx, key)
	require.NoError(t, s.Reset(ctx, key))
	second := s.GetOrCreateSessionID(ctx, key)

	assert.NotEqual(t, first, second)
}
