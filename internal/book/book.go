package book

import (
	"errors"
	"time"
)

// Field names as they appear in raw records, JSON bodies and filters.
const (
	FieldName          = "name"
	FieldAuthor        = "author"
	FieldYearPublished = "year_published"
	FieldBookType      = "book_type"
	FieldStatus        = "status"
)

// Column limits, in characters.
const (
	MaxNameLen     = 64
	MaxAuthorLen   = 64
	MaxBookTypeLen = 20
	MaxStatusLen   = 20
)

// DefaultStatus is assigned when a record is staged without a status.
const DefaultStatus = "available"

var (
	// ErrNotFound is returned when no book matches a lookup.
	ErrNotFound = errors.New("book not found")
	// ErrUnknownField is returned when a filter names a field that is not a column.
	ErrUnknownField = errors.New("unknown book field")
	// ErrInvalidFilter is returned when a filter value cannot be compared with its column.
	ErrInvalidFilter = errors.New("invalid filter value")
)

// Book represents a catalog record.
type Book struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Author        string    `json:"author"`
	YearPublished int64     `json:"year_published"`
	BookType      string    `json:"book_type"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Fields is the raw, untyped form of a record, keyed by field name. It is
// what a decoded JSON object looks like and may hold values of the wrong
// type; those are reported when the record is committed.
type Fields map[string]any

// Fields returns b in raw form. An empty Status is left out so the default
// applies.
func (b Book) Fields() Fields {
	f := Fields{
		FieldName:          b.Name,
		FieldAuthor:        b.Author,
		FieldYearPublished: b.YearPublished,
		FieldBookType:      b.BookType,
	}
	if b.Status != "" {
		f[FieldStatus] = b.Status
	}
	return f
}

// ListQuery defines filters and pagination for listing books.
type ListQuery struct {
	Filters []Filter
	AfterID int64
	Limit   int
	Offset  int
}
