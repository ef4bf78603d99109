package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/suPer8Hu/ai-widget/internal/storage"
)

const keyPrefix = "widget:storage:"

// Store keeps one storage scope as a Redis hash.
type Store struct {
	rdb   *redis.Client
	scope string
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Scope    string
}

func New(opts Options) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return NewWithClient(rdb, opts.Scope)
}

func NewWithClient(rdb *redis.Client, scope string) *Store {
	if scope == "" {
		scope = "default"
	}
	return &Store{rdb: rdb, scope: scope}
}

func (s *Store) Key() string {
	return hashKey(s.scope)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrapf(storage.ErrUnavailable, "redis ping: %v", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.HGet(ctx, s.Key(), key).Result()
	if err == redis.Nil {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(storage.ErrUnavailable, "redis hget %s: %v", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.HSet(ctx, s.Key(), key, value).Err(); err != nil {
		return errors.Wrapf(storage.ErrUnavailable, "redis hset %s: %v", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.HDel(ctx, s.Key(), key).Err(); err != nil {
		return errors.Wrapf(storage.ErrUnavailable, "redis hdel %s: %v", key, err)
	}
	return nil
}

func hashKey(scope string) string {
	return keyPrefix + scope
}
