package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at
// the end.
var migrations = []string{
	// Migration 1: Replace the original hard UNIQUE on books.isbn with a
	// partial unique index that skips NULL isbns, so books without an
	// ISBN never collide with each other.
	`DROP INDEX IF EXISTS sqlite_autoindex_books_1`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_books_isbn
	     ON books(isbn) WHERE isbn IS NOT NULL`,

	// Migration 2: One active loan per book, enforced by the store
	// rather than a check-then-act query in the workflow.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_active_book
	     ON transactions(book_id) WHERE return_date IS NULL`,
}

// Migrate ensures the schema exists and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
