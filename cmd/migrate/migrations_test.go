package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pressly/goose/v3"

	"bookshelf/internal/config"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file lives in cmd/migrate/, so repo root is ../..
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
}

func TestCollectMigrations_ParsesMigrationsDirs(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		dir := filepath.Join(repoRoot(t), "db", "migrations", dialect)
		migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
		if err != nil {
			t.Fatalf("%s: expected migrations to parse, got error: %v", dialect, err)
		}
		if len(migrations) == 0 {
			t.Fatalf("%s: no migrations found", dialect)
		}
	}
}

func TestRun_SQLiteCommands(t *testing.T) {
	cfg := config.Config{Database: config.Database{
		Driver:  config.DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "cli.db"),
		Timeout: time.Second,
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	for _, cmd := range []string{"up", "status", "down", "up", "reset"} {
		if err := run(ctx, cfg, logger, cmd, ""); err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
	}
	if err := run(ctx, cfg, logger, "sideways", ""); err == nil {
		t.Fatal("expected unknown command to fail")
	}
	if err := run(ctx, cfg, logger, "create", ""); err == nil {
		t.Fatal("expected create without a name to fail")
	}
}
