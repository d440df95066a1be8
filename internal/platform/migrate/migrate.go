// Package migrate applies the embedded goose migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"bookshelf/db"
)

// Dialect selects a migration directory and a goose dialect.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) goose() (goose.Dialect, error) {
	switch d {
	case Postgres:
		return goose.DialectPostgres, nil
	case SQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// Dir is the migration directory for d, relative to the db package.
func (d Dialect) Dir() string { return "migrations/" + string(d) }

// NewProvider returns a goose provider over the embedded migrations for d.
func NewProvider(d Dialect, conn *sql.DB) (*goose.Provider, error) {
	gd, err := d.goose()
	if err != nil {
		return nil, err
	}
	fsys, err := fs.Sub(db.Migrations, d.Dir())
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(gd, conn, fsys)
}

// Up applies every pending migration and returns the resulting version.
func Up(ctx context.Context, d Dialect, conn *sql.DB) (int64, error) {
	p, err := NewProvider(d, conn)
	if err != nil {
		return 0, err
	}
	if _, err := p.Up(ctx); err != nil {
		return 0, fmt.Errorf("migrate up: %w", err)
	}
	return p.GetDBVersion(ctx)
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, d Dialect, conn *sql.DB) error {
	p, err := NewProvider(d, conn)
	if err != nil {
		return err
	}
	if _, err := p.Down(ctx); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Reset rolls back every migration, dropping the schema.
func Reset(ctx context.Context, d Dialect, conn *sql.DB) error {
	p, err := NewProvider(d, conn)
	if err != nil {
		return err
	}
	if _, err := p.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("migrate reset: %w", err)
	}
	return nil
}

// Status reports every known migration and whether it is applied.
func Status(ctx context.Context, d Dialect, conn *sql.DB) ([]*goose.MigrationStatus, error) {
	p, err := NewProvider(d, conn)
	if err != nil {
		return nil, err
	}
	return p.Status(ctx)
}
