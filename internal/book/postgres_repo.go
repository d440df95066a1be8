package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTimeout = 5 * time.Second

const bookColumns = `id, name, author, year_published, book_type, status, created_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func pgPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func (r *PostgresRepo) InsertBatch(ctx context.Context, books []Book) ([]Book, error) {
	const query = `
		INSERT INTO books (name, author, year_published, book_type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	out := make([]Book, 0, len(books))
	for i, b := range books {
		if err := tx.QueryRow(timeoutCtx, query, b.Name, b.Author, b.YearPublished, b.BookType, b.Status).
			Scan(&b.ID, &b.CreatedAt); err != nil {
			return nil, pgViolation(i, err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		out = append(out, b)
	}
	if err := tx.Commit(timeoutCtx); err != nil {
		return nil, pgViolation(len(books)-1, err)
	}
	return out, nil
}

func (r *PostgresRepo) FindFirst(ctx context.Context, filters []Filter) (Book, error) {
	where, args := whereClause(filters, pgPlaceholder)
	query := fmt.Sprintf(`SELECT %s FROM books %s ORDER BY id LIMIT 1`, bookColumns, where)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b Book
	err := r.db.QueryRow(timeoutCtx, query, args...).Scan(
		&b.ID, &b.Name, &b.Author, &b.YearPublished, &b.BookType, &b.Status, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	countWhere, countArgs, pageWhere, pageArgs := listSQL(q, pgPlaceholder)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(timeoutCtx, "SELECT COUNT(*) FROM books "+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(timeoutCtx, fmt.Sprintf(`SELECT %s FROM books %s`, bookColumns, pageWhere), pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Author, &b.YearPublished, &b.BookType, &b.Status, &b.CreatedAt); err != nil {
			return nil, 0, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

// pgViolation turns integrity and data errors raised by Postgres into a
// ConstraintViolation for the record at index.
func pgViolation(index int, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	field := pgErr.ColumnName
	if field == "" {
		field = "record"
	}
	var v Violation
	switch pgErr.Code {
	case "23505": // unique_violation
		if pgErr.ConstraintName == "books_name_key" {
			field = FieldName
		}
		v = violate(index, field, RuleUnique, "must be unique")
	case "23502": // not_null_violation
		v = violate(index, field, RuleRequired, "is required")
	case "22001": // string_data_right_truncation
		v = violate(index, field, RuleMaxLength, "value too long")
	case "22003": // numeric_value_out_of_range
		v = violate(index, field, RuleRange, errOutOfRange.Error())
	case "23514": // check_violation
		v = violate(index, field, RuleMaxLength, pgErr.Message)
	default:
		return err
	}
	return &ConstraintViolation{Violations: []Violation{v}}
}
