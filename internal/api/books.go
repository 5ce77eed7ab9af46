package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anilk007/library-service/internal/imaging"
	"github.com/anilk007/library-service/internal/loan"
	"github.com/anilk007/library-service/internal/model"
	"github.com/anilk007/library-service/internal/store"
)

// BooksHandler handles book CRUD endpoints.
type BooksHandler struct {
	DB    *sql.DB
	Loans *loan.Service
}

type createBookRequest struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            *string `json:"isbn"`
	PublicationYear *int    `json:"publication_year"`
	Publisher       string  `json:"publisher"`
	Genre           string  `json:"genre"`
	TotalCopies     *int    `json:"total_copies"`
}

type updateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	PublicationYear *int    `json:"publication_year"`
	Publisher       *string `json:"publisher"`
	Genre           *string `json:"genre"`
	TotalCopies     *int    `json:"total_copies"`
	AvailableCopies *int    `json:"available_copies"`
}

// List handles GET /api/books.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := store.ListBooks(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing books", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	if books == nil {
		books = []model.Book{}
	}
	jsonResponse(w, http.StatusOK, books)
}

// Create handles POST /api/books.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" || req.Author == "" {
		jsonError(w, http.StatusBadRequest, "title and author required")
		return
	}

	total := 1
	if req.TotalCopies != nil {
		if *req.TotalCopies < 0 {
			jsonError(w, http.StatusBadRequest, "total_copies must not be negative")
			return
		}
		total = *req.TotalCopies
	}

	book, err := store.CreateBook(r.Context(), h.DB, model.Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
		Publisher:       req.Publisher,
		Genre:           req.Genre,
		TotalCopies:     total,
		AvailableCopies: total,
	})
	if errors.Is(err, store.ErrDuplicateISBN) {
		jsonError(w, http.StatusBadRequest, "isbn already exists")
		return
	}
	if err != nil {
		slog.Error("creating book", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create book")
		return
	}

	jsonResponse(w, http.StatusCreated, book)
}

// Get handles GET /api/books/{id}.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	book, err := store.GetBook(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting book", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	jsonResponse(w, http.StatusOK, book)
}

// Update handles PUT /api/books/{id} with a sparse field patch.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var req updateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			jsonError(w, http.StatusBadRequest, "title must not be empty")
			return
		}
		fields["title"] = *req.Title
	}
	if req.Author != nil {
		if *req.Author == "" {
			jsonError(w, http.StatusBadRequest, "author must not be empty")
			return
		}
		fields["author"] = *req.Author
	}
	if req.ISBN != nil {
		// An empty isbn clears to NULL so it leaves the unique index.
		if *req.ISBN == "" {
			fields["isbn"] = nil
		} else {
			fields["isbn"] = *req.ISBN
		}
	}
	if req.PublicationYear != nil {
		fields["publication_year"] = *req.PublicationYear
	}
	if req.Publisher != nil {
		fields["publisher"] = *req.Publisher
	}
	if req.Genre != nil {
		fields["genre"] = *req.Genre
	}
	if req.TotalCopies != nil {
		fields["total_copies"] = *req.TotalCopies
	}
	if req.AvailableCopies != nil {
		fields["available_copies"] = *req.AvailableCopies
	}

	ok, err := store.UpdateBook(r.Context(), h.DB, id, fields)
	if errors.Is(err, store.ErrDuplicateISBN) {
		jsonError(w, http.StatusBadRequest, "isbn already exists")
		return
	}
	if err != nil {
		slog.Error("updating book", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update book")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	book, _ := store.GetBook(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, book)
}

// Delete handles DELETE /api/books/{id}.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	ok, err := store.DeleteBook(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("deleting book", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// Holders handles GET /api/books/{id}/holders.
func (h *BooksHandler) Holders(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	holders, err := h.Loans.MembersHoldingBook(r.Context(), id)
	if errors.Is(err, loan.ErrBookNotFound) {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		slog.Error("listing book holders", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list holders")
		return
	}
	if holders == nil {
		holders = []model.HoldingMember{}
	}
	jsonResponse(w, http.StatusOK, holders)
}

// UploadCover handles PUT /api/books/{id}/cover.
func (h *BooksHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	book, err := store.GetBook(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("cover")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "cover file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetBookCover(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		slog.Error("saving cover", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save cover")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "cover uploaded"})
}

// GetCover handles GET /api/books/{id}/cover.
func (h *BooksHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	data, mime, err := store.GetBookCover(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting cover", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get cover")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no cover")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
