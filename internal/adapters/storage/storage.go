// Package storage opens the configured persistence backend and returns its repositories.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	memaccountrepo "github.com/cardshare/digital-card-api/internal/adapters/memory/accountrepo"
	memcompanyrepo "github.com/cardshare/digital-card-api/internal/adapters/memory/companyrepo"
	memidempotency "github.com/cardshare/digital-card-api/internal/adapters/memory/idempotency"
	"github.com/cardshare/digital-card-api/internal/adapters/postgres"
	pgaccountrepo "github.com/cardshare/digital-card-api/internal/adapters/postgres/accountrepo"
	pgcompanyrepo "github.com/cardshare/digital-card-api/internal/adapters/postgres/companyrepo"
	pgidempotency "github.com/cardshare/digital-card-api/internal/adapters/postgres/idempotency"
	"github.com/cardshare/digital-card-api/internal/adapters/sqlite"
	sqliteaccountrepo "github.com/cardshare/digital-card-api/internal/adapters/sqlite/accountrepo"
	sqlitecompanyrepo "github.com/cardshare/digital-card-api/internal/adapters/sqlite/companyrepo"
	sqliteidempotency "github.com/cardshare/digital-card-api/internal/adapters/sqlite/idempotency"
	"github.com/cardshare/digital-card-api/internal/platform/config"
	accountrepoport "github.com/cardshare/digital-card-api/internal/ports/out/accountrepo"
	companyrepoport "github.com/cardshare/digital-card-api/internal/ports/out/companyrepo"
	idempotencyport "github.com/cardshare/digital-card-api/internal/ports/out/idempotency"
)

type Stores struct {
	Accounts    accountrepoport.Repository
	Companies   companyrepoport.Repository
	Idempotency idempotencyport.Store

	// Close releases the backend's connections. It is never nil.
	Close func()
}

// Open connects to cfg.Backend. Subjects are stored scoped to issuer.
// Postgres migrations are applied before returning.
func Open(ctx context.Context, cfg config.StorageConfig, issuer string, log *zap.Logger) (Stores, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return Stores{}, fmt.Errorf("invalid postgres config: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return Stores{}, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Info("storage ready", zap.String("backend", cfg.Backend))
		return Stores{
			Accounts:    pgaccountrepo.NewRepo(pool, issuer),
			Companies:   pgcompanyrepo.NewRepo(pool),
			Idempotency: pgidempotency.NewStore(pool, issuer),
			Close:       pool.Close,
		}, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return Stores{}, err
		}
		log.Info("storage ready", zap.String("backend", cfg.Backend), zap.String("path", cfg.SQLitePath))
		return Stores{
			Accounts:    sqliteaccountrepo.NewRepo(db, issuer),
			Companies:   sqlitecompanyrepo.NewRepo(db),
			Idempotency: sqliteidempotency.NewStore(db, issuer),
			Close: func() {
				if err := db.Close(); err != nil {
					log.Warn("close sqlite", zap.Error(err))
				}
			},
		}, nil
	case config.BackendMemory, "":
		log.Info("storage ready", zap.String("backend", config.BackendMemory))
		return Stores{
			Accounts:    memaccountrepo.NewRepo(),
			Companies:   memcompanyrepo.NewRepo(),
			Idempotency: memidempotency.NewStore(),
			Close:       func() {},
		}, nil
	default:
		return Stores{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
