package api

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/anilk007/library-service/internal/auth"
	"github.com/anilk007/library-service/internal/config"
	"github.com/anilk007/library-service/internal/db"
	"github.com/anilk007/library-service/internal/loan"
	"github.com/anilk007/library-service/internal/model"
	"github.com/anilk007/library-service/internal/store"
)

const testJWTSecret = "test-secret"

func newTestRouter(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	loans := loan.NewService(database, config.Default().Rules)
	server := httptest.NewServer(NewRouter(database, loans, testJWTSecret))
	t.Cleanup(server.Close)
	return server, database
}

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	server, database := newTestRouter(t)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, wantStatus int, out any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", req.Method, req.URL.Path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := newTestRouter(t)

	resp, _ := http.Get(server.URL + "/api/books")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBooksAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	// Create book.
	var book model.Book
	req, _ := authRequest("POST", server.URL+"/api/books", token, map[string]any{
		"title":        "The Go Programming Language",
		"author":       "Donovan & Kernighan",
		"isbn":         "9780134190440",
		"total_copies": 3,
	})
	doJSON(t, req, http.StatusCreated, &book)
	if book.AvailableCopies != 3 {
		t.Errorf("expected 3 available copies, got %d", book.AvailableCopies)
	}

	// Duplicate ISBN is rejected.
	req, _ = authRequest("POST", server.URL+"/api/books", token, map[string]any{
		"title":  "Duplicate",
		"author": "Someone",
		"isbn":   "9780134190440",
	})
	doJSON(t, req, http.StatusBadRequest, nil)

	// Sparse update touches only the sent fields.
	var updated model.Book
	req, _ = authRequest("PUT", server.URL+"/api/books/1", token, map[string]any{
		"publication_year": 2015,
	})
	doJSON(t, req, http.StatusOK, &updated)
	if updated.Title != book.Title {
		t.Errorf("title changed by sparse update: %q", updated.Title)
	}
	if updated.PublicationYear == nil || *updated.PublicationYear != 2015 {
		t.Errorf("publication year not updated: %v", updated.PublicationYear)
	}

	// List.
	var books []model.Book
	req, _ = authRequest("GET", server.URL+"/api/books", token, nil)
	doJSON(t, req, http.StatusOK, &books)
	if len(books) != 1 {
		t.Errorf("expected 1 book, got %d", len(books))
	}

	// Delete, then 404.
	req, _ = authRequest("DELETE", server.URL+"/api/books/1", token, nil)
	doJSON(t, req, http.StatusOK, nil)
	req, _ = authRequest("GET", server.URL+"/api/books/1", token, nil)
	doJSON(t, req, http.StatusNotFound, nil)
}

func TestMembersAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	var member model.Member
	req, _ := authRequest("POST", server.URL+"/api/members", token, map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	})
	doJSON(t, req, http.StatusCreated, &member)
	if member.Status != model.MemberStatusActive {
		t.Errorf("expected default status Active, got %q", member.Status)
	}

	// Duplicate email is rejected.
	req, _ = authRequest("POST", server.URL+"/api/members", token, map[string]string{
		"first_name": "Other",
		"last_name":  "Person",
		"email":      "ada@example.com",
	})
	doJSON(t, req, http.StatusBadRequest, nil)

	// Missing required fields.
	req, _ = authRequest("POST", server.URL+"/api/members", token, map[string]string{
		"first_name": "NoEmail",
	})
	doJSON(t, req, http.StatusBadRequest, nil)
}

func TestDeleteMemberWithLoans(t *testing.T) {
	server, token := setupTestServer(t)

	var book model.Book
	req, _ := authRequest("POST", server.URL+"/api/books", token, map[string]any{
		"title": "Kept Out", "author": "Someone",
	})
	doJSON(t, req, http.StatusCreated, &book)

	var member model.Member
	req, _ = authRequest("POST", server.URL+"/api/members", token, map[string]string{
		"first_name": "Holding", "last_name": "On", "email": "holding@example.com",
	})
	doJSON(t, req, http.StatusCreated, &member)

	req, _ = authRequest("POST", server.URL+"/api/transactions/issue", token, map[string]int64{
		"book_id": book.ID, "member_id": member.ID,
	})
	doJSON(t, req, http.StatusCreated, nil)

	// The loan blocks deletion as a client error, not a server failure.
	req, _ = authRequest("DELETE", server.URL+"/api/members/1", token, nil)
	doJSON(t, req, http.StatusBadRequest, nil)

	// The member is still there.
	req, _ = authRequest("GET", server.URL+"/api/members/1", token, nil)
	doJSON(t, req, http.StatusOK, nil)
}

func TestUpdateBookClearISBN(t *testing.T) {
	server, token := setupTestServer(t)

	var book model.Book
	req, _ := authRequest("POST", server.URL+"/api/books", token, map[string]any{
		"title": "Numbered", "author": "Someone", "isbn": "9780990582977",
	})
	doJSON(t, req, http.StatusCreated, &book)

	// Patching with an empty isbn clears it.
	var updated model.Book
	req, _ = authRequest("PUT", server.URL+"/api/books/1", token, map[string]string{
		"isbn": "",
	})
	doJSON(t, req, http.StatusOK, &updated)
	if updated.ISBN != nil {
		t.Errorf("isbn = %q, want cleared", *updated.ISBN)
	}

	// Two cleared books must not collide on the unique index.
	req, _ = authRequest("POST", server.URL+"/api/books", token, map[string]any{
		"title": "Also Numbered", "author": "Someone", "isbn": "9780990582977",
	})
	doJSON(t, req, http.StatusCreated, nil)
	req, _ = authRequest("PUT", server.URL+"/api/books/2", token, map[string]string{
		"isbn": "",
	})
	doJSON(t, req, http.StatusOK, nil)
}

func TestIssueReturnAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	var book model.Book
	req, _ := authRequest("POST", server.URL+"/api/books", token, map[string]any{
		"title": "Dune", "author": "Frank Herbert", "total_copies": 1,
	})
	doJSON(t, req, http.StatusCreated, &book)

	var member model.Member
	req, _ = authRequest("POST", server.URL+"/api/members", token, map[string]string{
		"first_name": "Paul", "last_name": "Atreides", "email": "paul@example.com",
	})
	doJSON(t, req, http.StatusCreated, &member)

	// Issue.
	var issued loan.IssueResult
	req, _ = authRequest("POST", server.URL+"/api/transactions/issue", token, map[string]int64{
		"book_id": book.ID, "member_id": member.ID,
	})
	doJSON(t, req, http.StatusCreated, &issued)
	if issued.DueDate.DaysSince(issued.IssueDate) != issued.DueDays {
		t.Errorf("due date %s not %d days after issue date %s",
			issued.DueDate, issued.DueDays, issued.IssueDate)
	}

	// The single copy is now out.
	req, _ = authRequest("GET", server.URL+"/api/books/1", token, nil)
	doJSON(t, req, http.StatusOK, &book)
	if book.AvailableCopies != 0 {
		t.Errorf("expected 0 available copies after issue, got %d", book.AvailableCopies)
	}

	// Second issue of the same book conflicts.
	req, _ = authRequest("POST", server.URL+"/api/transactions/issue", token, map[string]int64{
		"book_id": book.ID, "member_id": member.ID,
	})
	doJSON(t, req, http.StatusBadRequest, nil)

	// The member's loans and the active listing both show it.
	var loans []model.Transaction
	req, _ = authRequest("GET", server.URL+"/api/members/1/loans", token, nil)
	doJSON(t, req, http.StatusOK, &loans)
	if len(loans) != 1 || loans[0].ID != issued.TransactionID {
		t.Fatalf("expected the issued loan in member loans, got %+v", loans)
	}
	if loans[0].BookTitle != "Dune" {
		t.Errorf("expected joined book title, got %q", loans[0].BookTitle)
	}

	req, _ = authRequest("GET", server.URL+"/api/transactions/issued", token, nil)
	doJSON(t, req, http.StatusOK, &loans)
	if len(loans) != 1 {
		t.Errorf("expected 1 issued transaction, got %d", len(loans))
	}

	// Holders lists the borrowing member.
	var holders []model.HoldingMember
	req, _ = authRequest("GET", server.URL+"/api/books/1/holders", token, nil)
	doJSON(t, req, http.StatusOK, &holders)
	if len(holders) != 1 || holders[0].MemberID != member.ID {
		t.Fatalf("expected member 1 holding the book, got %+v", holders)
	}

	// Return.
	var returned model.Transaction
	req, _ = authRequest("POST", server.URL+"/api/transactions/1/return", token, nil)
	doJSON(t, req, http.StatusOK, &returned)
	if returned.Status != model.StatusReturned || returned.ReturnDate == nil {
		t.Errorf("expected a returned transaction, got %+v", returned)
	}

	// Double return is rejected.
	req, _ = authRequest("POST", server.URL+"/api/transactions/1/return", token, nil)
	doJSON(t, req, http.StatusBadRequest, nil)

	// Copy is back on the shelf.
	req, _ = authRequest("GET", server.URL+"/api/books/1", token, nil)
	doJSON(t, req, http.StatusOK, &book)
	if book.AvailableCopies != 1 {
		t.Errorf("expected 1 available copy after return, got %d", book.AvailableCopies)
	}
}

func TestIssueMissingEntities(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/transactions/issue", token, map[string]int64{
		"book_id": 42, "member_id": 42,
	})
	doJSON(t, req, http.StatusNotFound, nil)

	req, _ = authRequest("POST", server.URL+"/api/transactions/7/return", token, nil)
	doJSON(t, req, http.StatusNotFound, nil)
}

func TestDirectTransactionCreate(t *testing.T) {
	server, token := setupTestServer(t)

	var book model.Book
	req, _ := authRequest("POST", server.URL+"/api/books", token, map[string]any{
		"title": "Hyperion", "author": "Dan Simmons",
	})
	doJSON(t, req, http.StatusCreated, &book)

	var member model.Member
	req, _ = authRequest("POST", server.URL+"/api/members", token, map[string]string{
		"first_name": "Sol", "last_name": "Weintraub", "email": "sol@example.com",
	})
	doJSON(t, req, http.StatusCreated, &member)

	// Backdated record with explicit dates.
	var created model.Transaction
	req, _ = authRequest("POST", server.URL+"/api/transactions", token, map[string]any{
		"book_id":    book.ID,
		"member_id":  member.ID,
		"issue_date": "2024-01-10",
		"due_date":   "2024-01-25",
	})
	doJSON(t, req, http.StatusCreated, &created)
	if created.IssueDate.String() != "2024-01-10" {
		t.Errorf("expected issue date 2024-01-10, got %s", created.IssueDate)
	}

	// Inverted dates are rejected.
	req, _ = authRequest("POST", server.URL+"/api/transactions", token, map[string]any{
		"book_id":    book.ID,
		"member_id":  member.ID,
		"issue_date": "2024-02-10",
		"due_date":   "2024-02-01",
	})
	doJSON(t, req, http.StatusBadRequest, nil)
}

func TestRoleBasedAccess(t *testing.T) {
	server, database := newTestRouter(t)

	// Create a librarian.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "librarian1", string(hash), model.RoleLibrarian)

	librarianToken, _ := auth.GenerateToken(testJWTSecret, 1, "librarian1", model.RoleLibrarian)

	// Librarians cannot manage staff accounts.
	req, _ := authRequest("GET", server.URL+"/api/users", librarianToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for librarian accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// But they run the circulation desk.
	req, _ = authRequest("GET", server.URL+"/api/books", librarianToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for librarian listing books, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUserManagement(t *testing.T) {
	server, token := setupTestServer(t)

	var user model.User
	req, _ := authRequest("POST", server.URL+"/api/users", token, map[string]string{
		"username": "desk1",
		"password": "longenough",
		"role":     model.RoleLibrarian,
	})
	doJSON(t, req, http.StatusCreated, &user)
	if user.Role != model.RoleLibrarian {
		t.Errorf("expected librarian role, got %q", user.Role)
	}

	// Short passwords are rejected.
	req, _ = authRequest("POST", server.URL+"/api/users", token, map[string]string{
		"username": "desk2",
		"password": "short",
		"role":     model.RoleLibrarian,
	})
	doJSON(t, req, http.StatusBadRequest, nil)

	// Duplicate username conflicts.
	req, _ = authRequest("POST", server.URL+"/api/users", token, map[string]string{
		"username": "desk1",
		"password": "longenough",
		"role":     model.RoleLibrarian,
	})
	doJSON(t, req, http.StatusConflict, nil)
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/api/books", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
