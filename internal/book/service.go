package book

import (
	"context"
	"log/slog"
)

// Service provides book-related business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// NewSession opens a session on the service's repository.
func (s *Service) NewSession() *Session {
	return NewSession(s.repo, s.logger)
}

// Create stores every record of batch in one commit.
func (s *Service) Create(ctx context.Context, batch ...Fields) ([]Book, error) {
	sess := s.NewSession()
	for _, f := range batch {
		sess.AddFields(f)
	}
	return sess.Commit(ctx)
}

// First returns the earliest book matching every filter.
func (s *Service) First(ctx context.Context, filters ...Filter) (Book, error) {
	q := NewQuery(s.repo)
	for _, f := range filters {
		q = q.FilterBy(f.Field, f.Value)
	}
	return q.First(ctx)
}

// List returns a page of books matching the query and the total match count.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	filters, err := NormalizeFilters(q.Filters)
	if err != nil {
		return nil, 0, err
	}
	q.Filters = filters
	return s.repo.List(ctx, q)
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
