package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/config"
	"github.com/suPer8Hu/ai-widget/internal/db"
	"github.com/suPer8Hu/ai-widget/internal/events"
	"github.com/suPer8Hu/ai-widget/internal/storage"
	"github.com/suPer8Hu/ai-widget/internal/store/gormstore"
	"github.com/suPer8Hu/ai-widget/internal/store/natsbus"
	"github.com/suPer8Hu/ai-widget/internal/store/rabbitmq"
	"github.com/suPer8Hu/ai-widget/internal/store/redisstore"
)

const eventBuffer = 64

// closers releases backend resources in reverse order of acquisition.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func storageRegistry(cfg config.Config, cl *closers) *storage.Registry {
	reg := storage.NewRegistry()

	reg.Register("memory", func(context.Context) (storage.Storage, error) {
		return storage.NewMemory(), nil
	})
	reg.Register("file", func(context.Context) (storage.Storage, error) {
		return storage.NewFile(cfg.StoragePath, int(cfg.StorageQuotaBytes)), nil
	})
	reg.Register("redis", func(ctx context.Context) (storage.Storage, error) {
		s := redisstore.New(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Scope:    cfg.StorageScope,
		})
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		cl.add(func() { _ = s.Close() })
		return s, nil
	})
	sql := func(dsn string) storage.Factory {
		return func(ctx context.Context) (storage.Storage, error) {
			gdb, err := db.Connect(dsn)
			if err != nil {
				return nil, errors.Wrapf(storage.ErrUnavailable, "%v", err)
			}
			if sqlDB, err := gdb.DB(); err == nil {
				cl.add(func() { _ = sqlDB.Close() })
			}
			s := gormstore.New(gdb, cfg.StorageScope)
			if err := s.Migrate(ctx); err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	reg.Register("sqlite", sql(sqliteDSN(cfg.DBDSN)))
	reg.Register("mysql", sql(mysqlDSN(cfg.DBDSN)))

	return reg
}

func sqliteDSN(dsn string) string {
	return strings.TrimPrefix(dsn, "mysql://")
}

func mysqlDSN(dsn string) string {
	if strings.HasPrefix(dsn, "mysql://") {
		return dsn
	}
	return "mysql://" + dsn
}

// openStorage builds the configured storage scope. An unreachable backend
// falls back to memory: the widget keeps working for this process only.
func openStorage(ctx context.Context, cfg config.Config, logger zerolog.Logger, cl *closers) (*storage.FailSoftStorage, error) {
	primary, err := storageRegistry(cfg, cl).Open(ctx, cfg.StorageBackend)
	if err != nil {
		if !errors.Is(err, storage.ErrUnavailable) {
			return nil, err
		}
		logger.Warn().Err(err).Str("backend", cfg.StorageBackend).Msg("storage unavailable, conversation will not persist")
		primary = storage.NewMemory()
	}
	return storage.FailSoft(primary, logger), nil
}

// openEvents returns nil when no events backend is configured.
func openEvents(cfg config.Config, logger zerolog.Logger, cl *closers) (events.Sink, error) {
	var sink events.Sink
	switch cfg.EventsBackend {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return nil, err
		}
		cl.add(func() { _ = p.Close() })
		sink = p
	case "nats":
		p, err := natsbus.NewPublisher(cfg.NatsURL, cfg.NatsSubject, logger)
		if err != nil {
			return nil, err
		}
		cl.add(p.Close)
		sink = p
	default:
		return nil, errors.Errorf("unknown events backend: %s", cfg.EventsBackend)
	}

	async := events.NewAsync(sink, eventBuffer, logger)
	cl.add(async.Close)
	return async, nil
}
