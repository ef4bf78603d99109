package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// FailSoftStorage forwards to a primary Storage until it reports
// ErrUnavailable. From then on every operation is served by an in-process
// map for the rest of the wrapper's life, so callers keep working without
// persistence across restarts.
type FailSoftStorage struct {
	primary  Storage
	fallback *Memory
	logger   zerolog.Logger

	mu       sync.RWMutex
	degraded bool
}

func FailSoft(primary Storage, logger zerolog.Logger) *FailSoftStorage {
	return &FailSoftStorage{
		primary:  primary,
		fallback: NewMemory(),
		logger:   logger,
	}
}

// Degraded reports whether the wrapper has switched to ephemeral mode.
func (s *FailSoftStorage) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

func (s *FailSoftStorage) Get(ctx context.Context, key string) (string, error) {
	if s.Degraded() {
		return s.fallback.Get(ctx, key)
	}
	v, err := s.primary.Get(ctx, key)
	if errors.Is(err, ErrUnavailable) {
		s.degrade(err)
		return s.fallback.Get(ctx, key)
	}
	return v, err
}

func (s *FailSoftStorage) Set(ctx context.Context, key, value string) error {
	if s.Degraded() {
		return s.fallback.Set(ctx, key, value)
	}
	err := s.primary.Set(ctx, key, value)
	if errors.Is(err, ErrUnavailable) {
		s.degrade(err)
		return s.fallback.Set(ctx, key, value)
	}
	return err
}

func (s *FailSoftStorage) Delete(ctx context.Context, key string) error {
	if s.Degraded() {
		return s.fallback.Delete(ctx, key)
	}
	err := s.primary.Delete(ctx, key)
	if errors.Is(err, ErrUnavailable) {
		s.degrade(err)
		return s.fallback.Delete(ctx, key)
	}
	return err
}

func (s *FailSoftStorage) degrade(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return
	}
	s.degraded = true
	s.logger.Warn().Err(cause).Msg("storage unavailable, continuing without persistence")
}
