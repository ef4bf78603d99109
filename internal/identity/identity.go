package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/storage"
)

// Store hands out the session id of a storage scope, creating it on first use.
type Store struct {
	storage storage.Storage
	logger  zerolog.Logger
	newID   func() string

	mu        sync.Mutex
	ephemeral map[string]string
}

func NewStore(s storage.Storage, logger zerolog.Logger) *Store {
	return &Store{
		storage:   s,
		logger:    logger,
		newID:     uuid.NewString,
		ephemeral: make(map[string]string),
	}
}

// GetOrCreateSessionID returns the id stored under scopeKey. When none is
// stored (or the stored value is not a UUID) a new v4 id is generated and
// written once. Storage failures never surface: the id is then kept in memory
// for the life of the Store. A failed read never writes, so a stored id is not
// replaced behind a transient error.
func (s *Store) GetOrCreateSessionID(ctx context.Context, scopeKey string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ephemeral[scopeKey]; ok {
		return id
	}

	stored, err := s.storage.Get(ctx, scopeKey)
	switch {
	case err == nil && wellFormed(stored):
		return strings.TrimSpace(stored)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		id := s.newID()
		s.logger.Warn().Err(err).Str("key", scopeKey).Msg("session id read failed, using ephemeral id")
		s.ephemeral[scopeKey] = id
		return id
	}

	id := s.newID()
	if err := s.storage.Set(ctx, scopeKey, id); err != nil {
		s.logger.Warn().Err(err).Str("key", scopeKey).Msg("session id not persisted, using ephemeral id")
		s.ephemeral[scopeKey] = id
	}
	return id
}

// Reset forgets the session id so the next call creates a fresh one.
func (s *Store) Reset(ctx context.Context, scopeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ephemeral, scopeKey)
	return s.storage.Delete(ctx, scopeKey)
}

func wellFormed(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
