package main

import (
	"os"
	"path/filepath"
	"testing"

	"bookshelf/internal/platform/migrate"
)

func TestMigrationsDir_EnvOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")

	if got := migrationsDir(migrate.Postgres); got != "/custom/migrations" {
		t.Fatalf("expected MIGRATIONS_DIR override, got %q", got)
	}
}

func TestMigrationsDir_Default(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")
	_ = os.Unsetenv("MIGRATIONS_DIR")

	for d, want := range map[migrate.Dialect]string{
		migrate.Postgres: filepath.Join("db", "migrations", "postgres"),
		migrate.SQLite:   filepath.Join("db", "migrations", "sqlite"),
	} {
		if got := migrationsDir(d); got != want {
			t.Fatalf("expected default migrations dir %q, got %q", want, got)
		}
	}
}
