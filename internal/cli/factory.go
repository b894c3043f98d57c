// Package cli wires configuration into a running service for the commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/internal/config"
	"github.com/seranno/wayfarer/pkg/adapters/file"
	"github.com/seranno/wayfarer/pkg/adapters/memory"
	redisAdapter "github.com/seranno/wayfarer/pkg/adapters/redis"
	"github.com/seranno/wayfarer/pkg/adapters/sqlite"
	"github.com/seranno/wayfarer/pkg/observability"
	"github.com/seranno/wayfarer/pkg/persistence/middleware"
	"github.com/seranno/wayfarer/pkg/ports"
	"github.com/seranno/wayfarer/pkg/session"
)

// BuildService assembles a wayfarer.Service from configuration: the story
// graph, the selected store backend, optional at-rest encryption, the
// per-reader lock, and prometheus-backed lifecycle hooks.
func BuildService(cfg *config.Config, logger *slog.Logger) (*wayfarer.Service, func() error, error) {
	closer := func() error { return nil }

	opts := []wayfarer.Option{
		wayfarer.WithLogger(logger),
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	opts = append(opts, wayfarer.WithLifecycleHooks(metrics.Hooks()))

	switch cfg.Store.Kind {
	case config.StoreMemory:
		store := wrapStore(memory.NewStore(), cfg, logger)
		opts = append(opts,
			wayfarer.WithStore(store),
			wayfarer.WithActivityLog(memory.NewActivityLog()),
			wayfarer.WithFavorites(memory.NewFavoriteStore()),
		)

	case config.StoreFile:
		store := wrapStore(file.NewStore(cfg.Store.Path), cfg, logger)
		opts = append(opts, wayfarer.WithStore(store))

	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		closer = db.Close
		store := wrapStore(db, cfg, logger)
		opts = append(opts,
			wayfarer.WithStore(store),
			wayfarer.WithActivityLog(db),
			wayfarer.WithFavorites(db),
		)

	case config.StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		closer = client.Close
		store := wrapStore(redisAdapter.NewFromClient(client), cfg, logger)

		sessionOpts := []session.Option{session.WithLogger(logger)}
		if cfg.Store.Redis.Lock {
			sessionOpts = append(sessionOpts, session.WithLocker(redisAdapter.NewLocker(client, "wayfarer:lock:")))
		}
		opts = append(opts, wayfarer.WithSessionManager(session.NewManager(store, sessionOpts...)))

	default:
		return nil, nil, fmt.Errorf("unknown store kind '%s'", cfg.Store.Kind)
	}

	svc, err := wayfarer.New(cfg.StoryDir, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return svc, closer, nil
}

// wrapStore applies the configured persistence middleware.
func wrapStore(store ports.HistoryStore, cfg *config.Config, logger *slog.Logger) ports.HistoryStore {
	if cfg.Store.EncryptionKey == "" {
		return store
	}
	key, err := cfg.Store.DecodeKey()
	if err != nil {
		// Load validated the key already; a failure here is a programming error.
		panic(err)
	}
	logger.Info("history store encryption enabled")
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(store)
}
