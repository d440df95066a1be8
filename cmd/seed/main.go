package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/ingest"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/storage"
)

const batchSize = 1000

func main() {
	var (
		file     = flag.String("file", "", "JSON file holding an array of books; generated books are used when empty")
		count    = flag.Int("count", 100, "Number of books to generate when no file is given")
		subjects = flag.String("subjects", "", "Comma-separated Open Library subjects to import instead")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("open storage", "err", err)
		os.Exit(1)
	}
	defer store.Close()
	if cfg.Database.AutoMigrate {
		if _, err := store.Migrate(ctx); err != nil {
			logger.Error("migrate", "err", err)
			os.Exit(1)
		}
	}

	svc := book.NewService(store.Books, logger)

	if *subjects != "" {
		ol := openlibrary.NewClient(cfg.Ingest.UserAgent, cfg.Ingest.RPS, 3)
		job := ingest.NewService(ol, svc, ingest.Config{
			Subjects:   strings.Split(*subjects, ","),
			PerSubject: cfg.Ingest.PerSubject,
		}, logger)
		res, err := job.Run(ctx)
		if err != nil {
			logger.Error("ingest failed", "inserted", res.Inserted, "err", err)
			os.Exit(1)
		}
		for _, skip := range res.Skipped {
			logger.Debug("skipped", "subject", skip.Subject, "title", skip.Title, "reason", skip.Reason)
		}
		return
	}

	var records []book.Fields
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Error("open seed file", "err", err)
			os.Exit(1)
		}
		records, err = readBooks(f)
		f.Close()
		if err != nil {
			logger.Error("read seed file", "file", *file, "err", err)
			os.Exit(1)
		}
	} else {
		records = generateBooks(*count, rand.New(rand.NewSource(1)))
	}

	inserted, err := seed(ctx, svc, logger, records)
	if err != nil {
		logger.Error("seed failed", "inserted", inserted, "err", err)
		os.Exit(1)
	}
	logger.Info("seed complete", "inserted", inserted)
}

// seed commits records in batches. A failing batch stops the run; batches
// already committed stay.
func seed(ctx context.Context, svc *book.Service, logger *slog.Logger, records []book.Fields) (int, error) {
	inserted := 0
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		saved, err := svc.Create(ctx, records[start:end]...)
		if err != nil {
			return inserted, fmt.Errorf("batch starting at %d: %w", start, err)
		}
		inserted += len(saved)
		logger.Info("batch committed", "inserted", inserted, "total", len(records))
	}
	return inserted, nil
}

func readBooks(r io.Reader) ([]book.Fields, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []book.Fields
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

var (
	authors = []string{
		"Stephen King", "Octavia E. Butler", "Ursula K. Le Guin", "Toni Morrison", "Haruki Murakami",
		"Chimamanda Ngozi Adichie", "Kazuo Ishiguro", "Terry Pratchett", "Agatha Christie", "N. K. Jemisin",
	}
	bookTypes = []string{"Fiction", "Science Fiction", "History", "Science", "Horror", "Romance", "Mystery", "Biography", "Philosophy", "Poetry"}
	statuses  = []string{"available", "available", "available", "checked out", "reserved", "lost"}
)

func generateBooks(count int, rng *rand.Rand) []book.Fields {
	records := make([]book.Fields, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, book.Fields{
			book.FieldName:          fmt.Sprintf("Book Title %d - %s", i+1, randomWord(rng)),
			book.FieldAuthor:        authors[rng.Intn(len(authors))],
			book.FieldYearPublished: 1950 + rng.Intn(75),
			book.FieldBookType:      bookTypes[rng.Intn(len(bookTypes))],
			book.FieldStatus:        statuses[rng.Intn(len(statuses))],
		})
	}
	return records
}

func randomWord(rng *rand.Rand) string {
	words := []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	return words[rng.Intn(len(words))]
}
