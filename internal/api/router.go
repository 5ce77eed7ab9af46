package api

import (
	"database/sql"
	"net/http"

	"github.com/anilk007/library-service/internal/loan"
	"github.com/anilk007/library-service/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, loans *loan.Service, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	booksHandler := &BooksHandler{DB: db, Loans: loans}
	membersHandler := &MembersHandler{DB: db, Loans: loans}
	transactionsHandler := &TransactionsHandler{Loans: loans}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Staff accounts (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Books.
	mux.Handle("GET /api/books", authMW(http.HandlerFunc(booksHandler.List)))
	mux.Handle("POST /api/books", authMW(http.HandlerFunc(booksHandler.Create)))
	mux.Handle("GET /api/books/{id}", authMW(http.HandlerFunc(booksHandler.Get)))
	mux.Handle("PUT /api/books/{id}", authMW(http.HandlerFunc(booksHandler.Update)))
	mux.Handle("DELETE /api/books/{id}", authMW(http.HandlerFunc(booksHandler.Delete)))
	mux.Handle("GET /api/books/{id}/holders", authMW(http.HandlerFunc(booksHandler.Holders)))
	mux.Handle("PUT /api/books/{id}/cover", authMW(http.HandlerFunc(booksHandler.UploadCover)))
	mux.Handle("GET /api/books/{id}/cover", authMW(http.HandlerFunc(booksHandler.GetCover)))

	// Members.
	mux.Handle("GET /api/members", authMW(http.HandlerFunc(membersHandler.List)))
	mux.Handle("POST /api/members", authMW(http.HandlerFunc(membersHandler.Create)))
	mux.Handle("GET /api/members/{id}", authMW(http.HandlerFunc(membersHandler.Get)))
	mux.Handle("PUT /api/members/{id}", authMW(http.HandlerFunc(membersHandler.Update)))
	mux.Handle("DELETE /api/members/{id}", authMW(http.HandlerFunc(membersHandler.Delete)))
	mux.Handle("GET /api/members/{id}/loans", authMW(http.HandlerFunc(membersHandler.MemberLoans)))

	// Borrowing workflow.
	mux.Handle("POST /api/transactions/issue", authMW(http.HandlerFunc(transactionsHandler.Issue)))
	mux.Handle("POST /api/transactions/{id}/return", authMW(http.HandlerFunc(transactionsHandler.Return)))
	mux.Handle("POST /api/transactions/{id}/renew", authMW(http.HandlerFunc(transactionsHandler.Renew)))
	mux.Handle("GET /api/transactions", authMW(http.HandlerFunc(transactionsHandler.List)))
	mux.Handle("GET /api/transactions/issued", authMW(http.HandlerFunc(transactionsHandler.Issued)))
	mux.Handle("GET /api/transactions/overdue", authMW(http.HandlerFunc(transactionsHandler.Overdue)))
	mux.Handle("POST /api/transactions", authMW(http.HandlerFunc(transactionsHandler.Create)))
	mux.Handle("GET /api/transactions/{id}", authMW(http.HandlerFunc(transactionsHandler.Get)))
	mux.Handle("PUT /api/transactions/{id}", authMW(http.HandlerFunc(transactionsHandler.Update)))

	return mux
}
