package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Session is a unit of work over a Repository. Records are staged with Add
// and written together by Commit. A Session is not safe for concurrent use.
type Session struct {
	repo   Repository
	logger *slog.Logger
	staged []Fields
}

func NewSession(repo Repository, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{repo: repo, logger: logger}
}

// Add stages b for insertion. Nothing is checked until Commit.
func (s *Session) Add(b Book) {
	s.staged = append(s.staged, b.Fields())
}

// AddFields stages a raw record. Wrong types, nulls and unknown fields are
// reported by Commit.
func (s *Session) AddFields(f Fields) {
	cp := make(Fields, len(f))
	for k, v := range f {
		cp[k] = v
	}
	s.staged = append(s.staged, cp)
}

// Pending returns the number of staged records.
func (s *Session) Pending() int { return len(s.staged) }

// Rollback discards every staged record.
func (s *Session) Rollback() { s.staged = nil }

// Commit validates every staged record and stores them in one transaction.
// On any violation it returns a *ConstraintViolation and stores nothing.
// The staged list is cleared whatever the outcome.
func (s *Session) Commit(ctx context.Context) ([]Book, error) {
	staged := s.staged
	s.staged = nil
	if len(staged) == 0 {
		return nil, nil
	}

	books := make([]Book, 0, len(staged))
	var violations []Violation
	names := make(map[string]int)
	for i, f := range staged {
		b, vs := normalize(i, f)
		if len(vs) > 0 {
			violations = append(violations, vs...)
			continue
		}
		if first, dup := names[b.Name]; dup {
			violations = append(violations, violate(i, FieldName, RuleUnique,
				fmt.Sprintf("duplicates record %d in the same commit", first)))
			continue
		}
		names[b.Name] = i
		books = append(books, b)
	}
	if len(violations) > 0 {
		sortViolations(violations)
		err := &ConstraintViolation{Violations: violations}
		s.logger.WarnContext(ctx, "commit rejected", "records", len(staged), "violations", len(violations))
		return nil, err
	}

	saved, err := s.repo.InsertBatch(ctx, books)
	if err != nil {
		var cv *ConstraintViolation
		if errors.As(err, &cv) {
			s.logger.WarnContext(ctx, "commit rejected by store", "records", len(staged), "fields", cv.Fields())
			return nil, err
		}
		s.logger.ErrorContext(ctx, "commit failed", "records", len(staged), "err", err)
		return nil, fmt.Errorf("commit books: %w", err)
	}
	s.logger.DebugContext(ctx, "commit applied", "records", len(saved))
	return saved, nil
}

// Query starts an exact-match lookup against the session's store.
func (s *Session) Query() *Query {
	return NewQuery(s.repo)
}
