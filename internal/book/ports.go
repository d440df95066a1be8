package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
//
// InsertBatch must be atomic: either every book is stored or none is.
// Engine-level constraint failures are reported as *ConstraintViolation.
// Filters passed to FindFirst and List are already normalized.
type Repository interface {
	InsertBatch(ctx context.Context, books []Book) ([]Book, error)
	FindFirst(ctx context.Context, filters []Filter) (Book, error)
	List(ctx context.Context, q ListQuery) ([]Book, int, error)
	Ping(ctx context.Context) error
}
