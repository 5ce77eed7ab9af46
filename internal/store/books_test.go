package store

import (
	"context"
	"errors"
	"testing"

	"github.com/anilk007/library-service/internal/db"
	"github.com/anilk007/library-service/internal/model"
)

func testBook(title string) model.Book {
	return model.Book{
		Title:           title,
		Author:          "Test Author",
		TotalCopies:     3,
		AvailableCopies: 3,
	}
}

func TestCreateAndGetBook(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, err := CreateBook(ctx, database, testBook("The Go Programming Language"))
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	got, err := GetBook(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got == nil {
		t.Fatal("expected book, got nil")
	}
	if got.Title != "The Go Programming Language" {
		t.Errorf("title = %q", got.Title)
	}
	if got.TotalCopies != 3 || got.AvailableCopies != 3 {
		t.Errorf("copies = %d/%d, want 3/3", got.AvailableCopies, got.TotalCopies)
	}
	if got.ISBN != nil {
		t.Errorf("isbn = %v, want nil", *got.ISBN)
	}
}

func TestGetBookNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	got, err := GetBook(context.Background(), database, 999)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing book, got %+v", got)
	}
}

func TestDuplicateISBN(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	isbn := "978-0134190440"
	b := testBook("First")
	b.ISBN = &isbn
	if _, err := CreateBook(ctx, database, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	dup := testBook("Second")
	dup.ISBN = &isbn
	_, err := CreateBook(ctx, database, dup)
	if !errors.Is(err, ErrDuplicateISBN) {
		t.Errorf("expected ErrDuplicateISBN, got %v", err)
	}

	// The failed insert must not leave a row behind.
	books, err := ListBooks(ctx, database)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("expected 1 book after duplicate insert, got %d", len(books))
	}
}

func TestBooksWithoutISBNDoNotCollide(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateBook(ctx, database, testBook("First")); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if _, err := CreateBook(ctx, database, testBook("Second")); err != nil {
		t.Errorf("second NULL-isbn book should not conflict: %v", err)
	}
}

func TestUpdateBookPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, _ := CreateBook(ctx, database, testBook("Original"))

	ok, err := UpdateBook(ctx, database, created.ID, map[string]any{
		"title": "Renamed",
		"genre": "Systems",
	})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if !ok {
		t.Fatal("expected update to find the book")
	}

	got, _ := GetBook(ctx, database, created.ID)
	if got.Title != "Renamed" || got.Genre != "Systems" {
		t.Errorf("got title=%q genre=%q", got.Title, got.Genre)
	}
	// Untouched fields survive.
	if got.Author != "Test Author" {
		t.Errorf("author = %q, want unchanged", got.Author)
	}

	ok, err = UpdateBook(ctx, database, 999, map[string]any{"title": "X"})
	if err != nil {
		t.Fatalf("UpdateBook missing: %v", err)
	}
	if ok {
		t.Error("expected false for missing book")
	}
}

func TestUpdateBookClearsISBN(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	isbn := "978-0134190440"
	b := testBook("Numbered")
	b.ISBN = &isbn
	first, _ := CreateBook(ctx, database, b)

	ok, err := UpdateBook(ctx, database, first.ID, map[string]any{"isbn": nil})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if !ok {
		t.Fatal("expected update to find the book")
	}

	got, _ := GetBook(ctx, database, first.ID)
	if got.ISBN != nil {
		t.Errorf("isbn = %q, want cleared to nil", *got.ISBN)
	}

	// A second book can take the freed isbn, and clearing it too must
	// not collide under the partial unique index.
	second := testBook("Renumbered")
	second.ISBN = &isbn
	created, err := CreateBook(ctx, database, second)
	if err != nil {
		t.Fatalf("reusing cleared isbn: %v", err)
	}
	if _, err := UpdateBook(ctx, database, created.ID, map[string]any{"isbn": nil}); err != nil {
		t.Errorf("clearing second isbn should not conflict: %v", err)
	}
}

func TestDeleteBook(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, _ := CreateBook(ctx, database, testBook("Doomed"))

	ok, err := DeleteBook(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	if !ok {
		t.Error("expected delete to report a removed row")
	}

	ok, _ = DeleteBook(ctx, database, created.ID)
	if ok {
		t.Error("expected false for already-deleted book")
	}
}

func TestAdjustBookCopiesGuard(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	b := testBook("Single Copy")
	b.TotalCopies = 1
	b.AvailableCopies = 1
	created, _ := CreateBook(ctx, database, b)

	ok, err := AdjustBookCopies(ctx, database, created.ID, -1)
	if err != nil || !ok {
		t.Fatalf("first decrement: ok=%v err=%v", ok, err)
	}

	// No copies left: guard rejects without error.
	ok, err = AdjustBookCopies(ctx, database, created.ID, -1)
	if err != nil {
		t.Fatalf("second decrement: %v", err)
	}
	if ok {
		t.Error("expected guard to reject decrement below zero")
	}

	ok, _ = AdjustBookCopies(ctx, database, created.ID, 1)
	if !ok {
		t.Error("increment back to total should succeed")
	}

	// Already at total: cannot exceed it.
	ok, _ = AdjustBookCopies(ctx, database, created.ID, 1)
	if ok {
		t.Error("expected guard to reject increment above total")
	}
}

func TestBookCover(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, _ := CreateBook(ctx, database, testBook("Illustrated"))
	if err := SetBookCover(ctx, database, created.ID, []byte("fake image"), "image/jpeg"); err != nil {
		t.Fatalf("SetBookCover: %v", err)
	}

	data, mime, err := GetBookCover(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetBookCover: %v", err)
	}
	if string(data) != "fake image" || mime != "image/jpeg" {
		t.Errorf("got %q/%q", data, mime)
	}
}
