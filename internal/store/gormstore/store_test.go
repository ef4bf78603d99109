package gormstore

import (
	"context"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/suPer8Hu/ai-widget/internal/storage"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t), "origin-a")
	require.NoError(t, s.Migrate(ctx))

	_, err := s.Get(ctx, "aidemy_chat_session")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "aidemy_chat_session", "first"))
	require.NoError(t, s.Set(ctx, "aidemy_chat_session", "second"))

	v, err := s.Get(ctx, "aidemy_chat_session")
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	require.NoError(t, s.Delete(ctx, "aidemy_chat_session"))
	_, err = s.Get(ctx, "aidemy_chat_session")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a := New(db, "origin-a")
	b := New(db, "origin-b")
	require.NoError(t, a.Migrate(ctx))

	require.NoError(t, a.Set(ctx, "k", "from-a"))

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&Entry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStore_MissingTableIsUnavailable(t *testing.T) {
	s := New(openTestDB(t), "")

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}
