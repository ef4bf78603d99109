package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/suPer8Hu/ai-widget/internal/storage"
)

func TestKeyLayout(t *testing.T) {
	s := NewWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "")
	defer s.Close()

	assert.Equal(t, "widget:storage:default", s.Key())

	s2 := NewWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "tenant-a")
	defer s2.Close()
	assert.Equal(t, "widget:storage:tenant-a", s2.Key())
}

func TestUnreachableServerIsUnavailable(t *testing.T) {
	// Port 1 on loopback refuses connections immediately.
	s := NewWithClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}), "test")
	defer s.Close()

	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), storage.ErrUnavailable)
	assert.ErrorIs(t, s.Delete(ctx, "k"), storage.ErrUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), storage.ErrUnavailable)
}
