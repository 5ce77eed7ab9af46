package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anilk007/library-service/internal/model"
)

// CreateBook inserts a new book and returns the stored row.
func CreateBook(ctx context.Context, q Querier, b model.Book) (*model.Book, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO books (title, author, isbn, publication_year, publisher, genre, total_copies, available_copies)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.Author, b.ISBN, b.PublicationYear,
		nullIfEmpty(b.Publisher), nullIfEmpty(b.Genre),
		b.TotalCopies, b.AvailableCopies,
	)
	if isUniqueViolation(err, "books.isbn") {
		return nil, ErrDuplicateISBN
	}
	if err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting book id: %w", err)
	}

	return GetBook(ctx, q, id)
}

const bookColumns = `id, title, author, isbn, publication_year, publisher, genre,
	total_copies, available_copies, cover_mime, created_at`

// GetBook returns a book by ID, or (nil, nil) if it does not exist.
func GetBook(ctx context.Context, q Querier, id int64) (*model.Book, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting book: %w", err)
	}
	return b, nil
}

// ListBooks returns all books, newest first.
func ListBooks(ctx context.Context, q Querier) ([]model.Book, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// UpdateBook applies a sparse field update restricted to the supplied
// columns. Returns false if no book with the given ID exists.
func UpdateBook(ctx context.Context, q Querier, id int64, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		b, err := GetBook(ctx, q, id)
		return b != nil, err
	}

	query, args, err := buildUpdate("books", id, fields)
	if err != nil {
		return false, fmt.Errorf("building book update: %w", err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if isUniqueViolation(err, "books.isbn") {
		return false, ErrDuplicateISBN
	}
	if err != nil {
		return false, fmt.Errorf("updating book: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating book: %w", err)
	}
	return n > 0, nil
}

// DeleteBook removes a book. Its transactions are removed by the
// foreign-key cascade. Returns false if the book did not exist.
func DeleteBook(ctx context.Context, q Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting book: %w", err)
	}
	return n > 0, nil
}

// AdjustBookCopies changes available_copies by delta, guarded so the
// count stays within [0, total_copies]. Returns false when the guard
// rejects the change (e.g. no copies left to issue) or the book is gone.
func AdjustBookCopies(ctx context.Context, q Querier, id int64, delta int) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies + ?
		 WHERE id = ?
		   AND available_copies + ? >= 0
		   AND available_copies + ? <= total_copies`,
		delta, id, delta, delta,
	)
	if err != nil {
		return false, fmt.Errorf("adjusting book copies: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adjusting book copies: %w", err)
	}
	return n > 0, nil
}

// SetBookCover stores a book's cover image.
func SetBookCover(ctx context.Context, q Querier, id int64, cover []byte, mime string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE books SET cover = ?, cover_mime = ? WHERE id = ?`,
		cover, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting book cover: %w", err)
	}
	return nil
}

// GetBookCover returns a book's cover image data and MIME type.
func GetBookCover(ctx context.Context, q Querier, id int64) ([]byte, string, error) {
	var cover []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT cover, cover_mime FROM books WHERE id = ?`, id,
	).Scan(&cover, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting book cover: %w", err)
	}
	return cover, mime.String, nil
}

func scanBook(scan func(...any) error) (*model.Book, error) {
	b := &model.Book{}
	var isbn, publisher, genre, coverMime sql.NullString
	var year sql.NullInt64
	err := scan(&b.ID, &b.Title, &b.Author, &isbn, &year, &publisher, &genre,
		&b.TotalCopies, &b.AvailableCopies, &coverMime, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if isbn.Valid {
		b.ISBN = &isbn.String
	}
	if year.Valid {
		y := int(year.Int64)
		b.PublicationYear = &y
	}
	b.Publisher = publisher.String
	b.Genre = genre.String
	b.CoverMime = coverMime.String
	return b, nil
}

// nullIfEmpty maps empty strings to NULL so optional text columns stay
// NULL instead of storing empty strings.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
