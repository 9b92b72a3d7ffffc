package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"cars/internal/config"
	"cars/internal/migrations"
	"cars/internal/repository"
	"cars/internal/repository/memory"
	"cars/internal/repository/postgres"
	"cars/internal/repository/sqlite"
)

// ErrNoDatabase is returned for SQL-only operations on the memory driver.
var ErrNoDatabase = errors.New("store driver has no database")

// Store bundles the car repository with the connection backing it.
type Store struct {
	Driver  string
	Dialect migrations.Dialect
	DB      *sql.DB // nil for the memory driver
	Cars    repository.CarRepository
}

// OpenDatabase opens the SQL database for the configured driver.
func OpenDatabase(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application) (*sql.DB, migrations.Dialect, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		return db, migrations.DialectPostgres, err
	case config.DriverSQLite:
		db, err := NewSQLiteDatabase(ctx, cfg.Store.SQLitePath)
		return db, migrations.DialectSQLite, err
	case config.DriverMemory:
		return nil, "", ErrNoDatabase
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OpenStore opens the configured backing store and applies pending
// migrations when auto-migration is enabled.
func OpenStore(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, log *zap.Logger) (*Store, error) {
	if cfg.Store.Driver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return &Store{Driver: config.DriverMemory, Cars: memory.NewCarRepository()}, nil
	}

	db, dialect, err := OpenDatabase(ctx, cfg, nrApp)
	if err != nil {
		return nil, err
	}

	if cfg.Store.AutoMigrate {
		if err := migrations.Up(ctx, db, dialect); err != nil {
			db.Close()
			return nil, err
		}
		version, err := migrations.Version(ctx, db, dialect)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info("schema up to date", zap.String("driver", cfg.Store.Driver), zap.Int64("version", version))
	}

	store := &Store{Driver: cfg.Store.Driver, Dialect: dialect, DB: db}
	switch dialect {
	case migrations.DialectPostgres:
		store.Cars = postgres.NewCarRepository(db)
	case migrations.DialectSQLite:
		store.Cars = sqlite.NewCarRepository(db)
	}
	return store, nil
}

// Ping verifies the backing store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.PingContext(ctx)
}

// Close releases the database connection, if any.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
