package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pressly/goose/v3"

	"bookshelf/internal/config"
	"bookshelf/internal/platform/database"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/migrate"
	"bookshelf/internal/storage"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, reset, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)

	if err := run(context.Background(), cfg, logger, *command, *name); err != nil {
		logger.Error("migrate failed", "command", *command, "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, command, name string) error {
	if command == "create" {
		if name == "" {
			return fmt.Errorf("name is required for 'create' command")
		}
		d := migrate.Dialect(cfg.Database.Driver)
		if err := goose.Create(nil, migrationsDir(d), name, "sql"); err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		logger.Info("migration created", "name", name, "dir", migrationsDir(d))
		return nil
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	logger = logger.With("driver", cfg.Database.Driver, "dsn", database.RedactDSN(cfg.Database.DSN))

	switch command {
	case "up":
		version, err := store.Migrate(ctx)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "version", version)
	case "down":
		if err := migrate.Down(ctx, store.Dialect, store.DB); err != nil {
			return err
		}
		logger.Info("migration rolled back")
	case "reset":
		if err := store.Drop(ctx); err != nil {
			return err
		}
		logger.Info("all migrations rolled back")
	case "status":
		statuses, err := migrate.Status(ctx, store.Dialect, store.DB)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "Pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%-24s %s\n", applied, s.Source.Path)
		}
	default:
		return fmt.Errorf("unknown command %q: use up, down, reset, status, create", command)
	}
	return nil
}
