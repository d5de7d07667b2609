package main

import (
	"context"
	"fmt"

	"selecao/internal/db"
	"selecao/internal/docstore"
	"selecao/internal/store"
	"selecao/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	storeDriverPostgres = "postgres"
	storeDriverBolt     = "bolt"
)

type repositories struct {
	processes    *store.ProcessRepository
	applications *store.ApplicationRepository
	news         *store.NewsRepository
}

// openStore opens the configured document store and returns it with a
// cleanup func that releases it.
func openStore(ctx context.Context, cfg *types.Config, logger *logrus.Logger) (docstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case storeDriverBolt:
		bolt, err := docstore.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("path", cfg.BoltPath).Info("using bolt document store")
		return bolt, func() { _ = bolt.Close() }, nil
	default:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}

		pg := docstore.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("using postgres document store")
		return pg, pool.Close, nil
	}
}

func newRepositories(ds docstore.Store) *repositories {
	applications := store.NewApplicationRepository(ds)
	return &repositories{
		processes:    store.NewProcessRepository(ds, applications),
		applications: applications,
		news:         store.NewNewsRepository(ds),
	}
}
