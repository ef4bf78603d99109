package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	first := NewFile(path, 0)
	require.NoError(t, first.Set(ctx, "aidemy_chat_session", "abc"))

	second := NewFile(path, 0)
	v, err := second.Get(ctx, "aidemy_chat_session")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	_, err = second.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	f := NewFile(path, 64)

	require.NoError(t, f.Set(ctx, "small", "ok"))
	err := f.Set(ctx, "big", strings.Repeat("x", 128))
	assert.ErrorIs(t, err, ErrUnavailable)

	v, err := f.Get(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	_, err = f.Get(ctx, "big")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_CorruptFileTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	f := NewFile(path, 0)
	_, err := f.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.Set(ctx, "k", "v"))
	v, err := f.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	assert.Equal(t, filepath.Join(home, "a/b.json"), expandHome("~/a/b.json"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}

type brokenStorage struct {
	gets, sets int
}

func (b *brokenStorage) Get(context.Context, string) (string, error) {
	b.gets++
	return "", ErrUnavailable
}

func (b *brokenStorage) Set(context.Context, string, string) error {
	b.sets++
	return ErrUnavailable
}

func (b *brokenStorage) Delete(context.Context, string) error {
	return ErrUnavailable
}

func TestFailSoft_DegradesToMemory(t *testing.T) {
	ctx := context.Background()
	primary := &brokenStorage{}
	s := FailSoft(primary, zerolog.Nop())

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, s.Degraded())

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	assert.Equal(t, 1, primary.gets)
	assert.Equal(t, 0, primary.sets)
}

type flakyStorage struct {
	*Memory
}

func (f flakyStorage) Set(context.Context, string, string) error {
	return errors.New("boom")
}

func TestFailSoft_PassesThroughOtherErrors(t *testing.T) {
	s := FailSoft(flakyStorage{NewMemory()}, zerolog.Nop())

	err := s.Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.False(t, s.Degraded())
}

func TestRegistry_Open(t *testing.T) {
	r := NewRegistry()
	mem := NewMemory()
	r.Register(" Memory ", func(context.Context) (Storage, error) { return mem, nil })

	got, err := r.Open(context.Background(), "memory")
	require.NoError(t, err)
	assert.Same(t, mem, got)

	r.Register("file", func(context.Context) (Storage, error) { return mem, nil })
	assert.Equal(t, []string{"file", "memory"}, r.Names())

	_, err = r.Open(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
	assert.Contains(t, err.Error(), "available: file, memory")
}
