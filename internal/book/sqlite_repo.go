package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// SQLiteRepo stores books in an embedded SQLite database. The schema uses a
// STRICT table with CHECK constraints so the engine rejects what the
// Postgres column types reject.
type SQLiteRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLiteRepo(db *sql.DB, timeout time.Duration) *SQLiteRepo {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SQLiteRepo{db: db, timeout: timeout}
}

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func sqlitePlaceholder(int) string { return "?" }

func (r *SQLiteRepo) InsertBatch(ctx context.Context, books []Book) ([]Book, error) {
	const query = `
		INSERT INTO books (name, author, year_published, book_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(timeoutCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	out := make([]Book, 0, len(books))
	for i, b := range books {
		res, err := tx.ExecContext(timeoutCtx, query, b.Name, b.Author, b.YearPublished, b.BookType, b.Status, now.UnixNano())
		if err != nil {
			return nil, sqliteViolation(i, err)
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		b.CreatedAt = now
		out = append(out, b)
	}
	if err := tx.Commit(); err != nil {
		return nil, sqliteViolation(len(books)-1, err)
	}
	return out, nil
}

func (r *SQLiteRepo) FindFirst(ctx context.Context, filters []Filter) (Book, error) {
	where, args := whereClause(filters, sqlitePlaceholder)
	query := fmt.Sprintf(`SELECT %s FROM books %s ORDER BY id LIMIT 1`, bookColumns, where)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanSQLiteBook(r.db.QueryRowContext(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *SQLiteRepo) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	countWhere, countArgs, pageWhere, pageArgs := listSQL(q, sqlitePlaceholder)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(timeoutCtx, "SELECT COUNT(*) FROM books "+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(timeoutCtx, fmt.Sprintf(`SELECT %s FROM books %s`, bookColumns, pageWhere), pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanSQLiteBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.PingContext(timeoutCtx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBook(row rowScanner) (Book, error) {
	var (
		b       Book
		created int64
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Author, &b.YearPublished, &b.BookType, &b.Status, &created); err != nil {
		return Book{}, err
	}
	b.CreatedAt = time.Unix(0, created).UTC()
	return b, nil
}

// checkFields maps the named CHECK constraints of the sqlite schema to fields.
var checkFields = map[string]string{
	"books_name_length":      FieldName,
	"books_author_length":    FieldAuthor,
	"books_book_type_length": FieldBookType,
	"books_status_length":    FieldStatus,
}

// sqliteViolation turns constraint errors raised by SQLite into a
// ConstraintViolation for the record at index.
func sqliteViolation(index int, err error) error {
	var sqErr sqlite3.Error
	if !errors.As(err, &sqErr) || sqErr.Code != sqlite3.ErrConstraint {
		return err
	}
	msg := sqErr.Error()
	subject := msg
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		subject = msg[i+2:]
	}
	field := strings.TrimPrefix(subject, "books.")

	var v Violation
	switch sqErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		v = violate(index, field, RuleUnique, "must be unique")
	case sqlite3.ErrConstraintNotNull:
		v = violate(index, field, RuleRequired, "is required")
	case sqlite3.ErrConstraintCheck:
		if f, ok := checkFields[subject]; ok {
			field = f
		}
		v = violate(index, field, RuleMaxLength, "value too long")
	default:
		v = violate(index, "record", RuleType, msg)
	}
	return &ConstraintViolation{Violations: []Violation{v}}
}
