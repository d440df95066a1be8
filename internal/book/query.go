package book

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Filter is an exact-match condition on one field.
type Filter struct {
	Field string
	Value any
}

// Normalize checks the field against the column list and coerces the value
// with the same rules a commit uses.
func (f Filter) Normalize() (Filter, error) {
	if !IsField(f.Field) {
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownField, f.Field)
	}
	if f.Field == FieldYearPublished {
		n, _, err := int64Value(f.Value)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s %v", ErrInvalidFilter, f.Field, err)
		}
		return Filter{Field: f.Field, Value: n}, nil
	}
	s, err := stringValue(f.Value)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: %s %v", ErrInvalidFilter, f.Field, err)
	}
	if s == nil {
		return Filter{}, fmt.Errorf("%w: %s is null", ErrInvalidFilter, f.Field)
	}
	return Filter{Field: f.Field, Value: *s}, nil
}

// NormalizeFilters normalizes every filter, stopping at the first error.
func NormalizeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		nf, err := f.Normalize()
		if err != nil {
			return nil, err
		}
		out = append(out, nf)
	}
	return out, nil
}

// whereClause renders normalized filters as an AND of equality checks.
// Column names come from the field whitelist; values are always bound.
func whereClause(filters []Filter, placeholder func(n int) string) (string, []any) {
	clauses := []string{"1=1"}
	args := make([]any, 0, len(filters))
	for i, f := range filters {
		clauses = append(clauses, fmt.Sprintf("%s = %s", f.Field, placeholder(i+1)))
		args = append(args, f.Value)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// Query is an exact-match lookup over stored books. FilterBy returns a new
// Query, so a partially built one can be reused.
type Query struct {
	repo    Repository
	filters []Filter
}

func NewQuery(repo Repository) *Query {
	return &Query{repo: repo}
}

// FilterBy adds the condition field == value.
func (q *Query) FilterBy(field string, value any) *Query {
	return &Query{
		repo:    q.repo,
		filters: append(slices.Clone(q.filters), Filter{Field: field, Value: value}),
	}
}

// First returns the earliest stored book matching every filter, or ErrNotFound.
func (q *Query) First(ctx context.Context) (Book, error) {
	filters, err := NormalizeFilters(q.filters)
	if err != nil {
		return Book{}, err
	}
	return q.repo.FindFirst(ctx, filters)
}

// All returns every matching book in insertion order.
func (q *Query) All(ctx context.Context) ([]Book, error) {
	filters, err := NormalizeFilters(q.filters)
	if err != nil {
		return nil, err
	}
	books, _, err := q.repo.List(ctx, ListQuery{Filters: filters})
	return books, err
}

// listSQL renders the shared parts of a List: the filtered WHERE used for
// the total, and the paged WHERE/LIMIT used for the rows.
func listSQL(q ListQuery, placeholder func(n int) string) (countWhere string, countArgs []any, pageWhere string, pageArgs []any) {
	countWhere, countArgs = whereClause(q.Filters, placeholder)
	pageWhere = countWhere
	pageArgs = append([]any{}, countArgs...)
	if q.AfterID > 0 {
		pageArgs = append(pageArgs, q.AfterID)
		pageWhere += fmt.Sprintf(" AND id > %s", placeholder(len(pageArgs)))
	}
	pageWhere += " ORDER BY id"
	if q.Limit > 0 {
		pageArgs = append(pageArgs, q.Limit, q.Offset)
		pageWhere += fmt.Sprintf(" LIMIT %s OFFSET %s", placeholder(len(pageArgs)-1), placeholder(len(pageArgs)))
	}
	return countWhere, countArgs, pageWhere, pageArgs
}
