package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/ingest"
	"bookshelf/internal/platform/database"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/storage"
)

type application struct {
	cfg     config.Config
	logger  *slog.Logger
	books   *book.Service
	ingest  *ingest.Service
	limiter *httpx.RateLimitMiddleware
}

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database connection OK", "driver", cfg.Database.Driver, "dsn", database.RedactDSN(cfg.Database.DSN))

	if cfg.Database.AutoMigrate {
		version, err := store.Migrate(ctx)
		if err != nil {
			return err
		}
		logger.Info("schema up to date", "version", version)
	}

	app := newApplication(cfg, logger, store.Books)
	defer app.close()
	return app.serve()
}

func newApplication(cfg config.Config, logger *slog.Logger, repo book.Repository) *application {
	app := &application{
		cfg:    cfg,
		logger: logger,
		books:  book.NewService(repo, logger),
	}
	if cfg.Ingest.Enabled {
		ol := openlibrary.NewClient(cfg.Ingest.UserAgent, cfg.Ingest.RPS, 3)
		app.ingest = ingest.NewService(ol, app.books, ingest.Config{
			Subjects:   cfg.Ingest.Subjects,
			PerSubject: cfg.Ingest.PerSubject,
		}, logger)
	}
	if cfg.RateLimitRPS > 0 {
		app.limiter = httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return app
}

func (app *application) close() {
	if app.limiter != nil {
		app.limiter.Stop()
	}
}
