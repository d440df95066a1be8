package main

import (
	"os"
	"path/filepath"

	"bookshelf/internal/platform/migrate"
)

// migrationsDir is where create writes new files for dialect d.
func migrationsDir(d migrate.Dialect) string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("db", filepath.FromSlash(d.Dir()))
}
