// Package store is the persistence layer. It executes parameterized SQL
// against the library schema and carries no business rules: borrowing
// logic lives in internal/loan, which drives these functions inside its
// own database transactions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// Querier is the subset of database/sql operations shared by *sql.DB and
// *sql.Tx, so workflow code can run store functions inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dialect builds SQL for sparse partial updates.
var dialect = goqu.Dialect("sqlite3")

// Sentinel errors for uniqueness violations, surfaced distinctly so
// handlers can map them to client errors.
var (
	ErrDuplicateISBN     = errors.New("isbn already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrActiveLoanExists is returned when an insert trips the partial
	// unique index that allows only one active loan per book.
	ErrActiveLoanExists = errors.New("book already has an active loan")

	// ErrMemberHasLoans is returned when deleting a member is blocked by
	// the foreign key from their borrowing records.
	ErrMemberHasLoans = errors.New("member has loans on record")
)

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure involving the given column reference (e.g. "books.isbn").
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

// isForeignKeyViolation reports whether err is a SQLite foreign-key
// constraint failure.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// buildUpdate renders a partial UPDATE restricted to the supplied fields.
func buildUpdate(table string, id int64, fields map[string]any) (string, []any, error) {
	rec := goqu.Record{}
	for k, v := range fields {
		rec[k] = v
	}
	return dialect.Update(table).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
}
