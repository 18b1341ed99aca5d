package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskwatch/internal/ciutil"
	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/platform/filestore"
	"github.com/phrazzld/taskwatch/internal/platform/sqlstore"
	"github.com/phrazzld/taskwatch/internal/store"
)

// openDurableStore builds the backend selected by cfg.Driver. The returned
// *sql.DB is nil for the memory and file drivers; the caller closes it.
func openDurableStore(
	ctx context.Context,
	cfg config.StorageConfig,
	logger *slog.Logger,
) (store.DurableStore, *sql.DB, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; tracked task will not survive a restart")
		return store.NewMemoryStore(), nil, nil

	case config.DriverFile:
		fs, err := filestore.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file storage", "path", fs.Path())
		return fs, nil, nil

	case config.DriverSQLite:
		return openSQLStore(ctx, sqlstore.DialectSQLite, cfg.Path, cfg.Scope, logger)

	case config.DriverPostgres:
		return openSQLStore(ctx, sqlstore.DialectPostgres, cfg.URL, cfg.Scope, logger)
	}

	return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}

func openSQLStore(
	ctx context.Context,
	dialect sqlstore.Dialect,
	dsn, scope string,
	logger *slog.Logger,
) (store.DurableStore, *sql.DB, error) {
	db, err := sqlstore.Open(ctx, dialect, dsn, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := sqlstore.Migrate(ctx, db, dialect, logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	s, err := sqlstore.New(db, dialect, scope)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	logger.Info("using sql storage",
		"dialect", string(dialect),
		"dsn", ciutil.MaskSensitiveValue(dsn),
		"scope", scope)
	return s, db, nil
}
