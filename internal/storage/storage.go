// Package storage wires a configured database to the book repository and
// its migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/database"
	"bookshelf/internal/platform/migrate"
)

// Store bundles the book repository with the *sql.DB migrations run on.
type Store struct {
	Books   book.Repository
	DB      *sql.DB
	Dialect migrate.Dialect

	close func()
}

// Open connects to the configured database. It does not migrate.
func Open(ctx context.Context, cfg config.Database) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		db := stdlib.OpenDBFromPool(pool)
		return &Store{
			Books:   book.NewPostgresRepo(pool, cfg.Timeout),
			DB:      db,
			Dialect: migrate.Postgres,
			close: func() {
				db.Close()
				pool.Close()
			},
		}, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return NewSQLite(db, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// NewSQLite wraps an open SQLite handle.
func NewSQLite(db *sql.DB, timeout time.Duration) *Store {
	return &Store{
		Books:   book.NewSQLiteRepo(db, timeout),
		DB:      db,
		Dialect: migrate.SQLite,
		close:   func() { db.Close() },
	}
}

// Migrate applies pending migrations and returns the schema version.
func (s *Store) Migrate(ctx context.Context) (int64, error) {
	return migrate.Up(ctx, s.Dialect, s.DB)
}

// Drop rolls back every migration.
func (s *Store) Drop(ctx context.Context) error {
	return migrate.Reset(ctx, s.Dialect, s.DB)
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}
