package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/chat"
	"github.com/suPer8Hu/ai-widget/internal/storage"
)

const DefaultLimit = 20

// Store persists the most recent turns of a conversation as a JSON array.
type Store struct {
	storage storage.Storage
	limit   int
	logger  zerolog.Logger
}

func NewStore(s storage.Storage, limit int, logger zerolog.Logger) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{storage: s, limit: limit, logger: logger}
}

// Load returns the persisted turns oldest-first. Missing, unreadable or
// corrupt data all yield an empty history.
func (s *Store) Load(ctx context.Context, scopeKey string) []chat.Turn {
	raw, err := s.storage.Get(ctx, scopeKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", scopeKey).Msg("history read failed")
		}
		return []chat.Turn{}
	}

	var turns []chat.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		s.logger.Warn().Err(err).Str("key", scopeKey).Msg("discarding corrupt history")
		return []chat.Turn{}
	}
	for i, t := range turns {
		if !t.Valid() || (i > 0 && t.Timestamp < turns[i-1].Timestamp) {
			s.logger.Warn().Int("index", i).Str("key", scopeKey).Msg("discarding corrupt history")
			return []chat.Turn{}
		}
	}
	return tail(turns, s.limit)
}

// Save persists only the most recent Limit turns of the given transcript.
func (s *Store) Save(ctx context.Context, scopeKey string, turns []chat.Turn) error {
	kept := make([]chat.Turn, 0, len(turns))
	for _, t := range turns {
		if t.Valid() {
			kept = append(kept, t)
		}
	}
	kept = tail(kept, s.limit)

	data, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.storage.Set(ctx, scopeKey, string(data)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, scopeKey string) error {
	return s.storage.Delete(ctx, scopeKey)
}

func tail(turns []chat.Turn, n int) []chat.Turn {
	if len(turns) <= n {
		return turns
	}
	return append([]chat.Turn(nil), turns[len(turns)-n:]...)
}
