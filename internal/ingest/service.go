// Package ingest fills the catalog from Open Library subject searches.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/openlibrary"
)

type Config struct {
	Subjects   []string
	PerSubject int
	BatchSize  int
}

type OpenLibraryClient interface {
	SearchBooks(ctx context.Context, subject string, limit int) (*openlibrary.SearchResponse, error)
}

// Skip records a search hit that was not imported.
type Skip struct {
	Subject string `json:"subject"`
	Title   string `json:"title"`
	Reason  string `json:"reason"`
}

// Result summarizes one ingestion run.
type Result struct {
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Skipped  []Skip `json:"skipped,omitempty"`
}

type Service struct {
	olClient OpenLibraryClient
	books    *book.Service
	cfg      Config
	logger   *slog.Logger
}

func NewService(olClient OpenLibraryClient, books *book.Service, cfg Config, logger *slog.Logger) *Service {
	if cfg.PerSubject <= 0 {
		cfg.PerSubject = 50
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{olClient: olClient, books: books, cfg: cfg, logger: logger}
}

// Run searches every configured subject and commits the hits that are new
// and valid. Each batch is one commit; a rejected batch stops the run.
func (s *Service) Run(ctx context.Context) (Result, error) {
	var (
		res     Result
		pending []book.Fields
		seen    = make(map[string]bool)
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		saved, err := s.books.Create(ctx, pending...)
		if err != nil {
			return err
		}
		res.Inserted += len(saved)
		pending = nil
		return nil
	}

	for _, subject := range s.cfg.Subjects {
		search, err := s.olClient.SearchBooks(ctx, subject, s.cfg.PerSubject)
		if err != nil {
			return res, fmt.Errorf("search %q: %w", subject, err)
		}
		res.Fetched += len(search.Docs)

		for _, doc := range search.Docs {
			skip := func(reason string) {
				res.Skipped = append(res.Skipped, Skip{Subject: subject, Title: doc.Title, Reason: reason})
			}

			f, reason := docFields(subject, doc)
			if reason != "" {
				skip(reason)
				continue
			}
			if _, vs := book.Normalize(f); len(vs) > 0 {
				skip(vs[0].Field + " " + vs[0].Message)
				continue
			}
			if seen[doc.Title] {
				skip("duplicate title in this run")
				continue
			}
			seen[doc.Title] = true

			_, err := s.books.First(ctx, book.Filter{Field: book.FieldName, Value: doc.Title})
			switch {
			case err == nil:
				skip("already in catalog")
				continue
			case !errors.Is(err, book.ErrNotFound):
				return res, err
			}

			pending = append(pending, f)
			if len(pending) >= s.cfg.BatchSize {
				if err := flush(); err != nil {
					return res, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	s.logger.InfoContext(ctx, "ingest complete", "fetched", res.Fetched, "inserted", res.Inserted, "skipped", len(res.Skipped))
	return res, nil
}

func docFields(subject string, doc openlibrary.Doc) (book.Fields, string) {
	if len(doc.AuthorNames) == 0 {
		return nil, "no author"
	}
	if doc.FirstPublishYear == 0 {
		return nil, "no publication year"
	}
	return book.Fields{
		book.FieldName:          doc.Title,
		book.FieldAuthor:        doc.AuthorNames[0],
		book.FieldYearPublished: doc.FirstPublishYear,
		book.FieldBookType:      subject,
	}, ""
}
