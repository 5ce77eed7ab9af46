package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anilk007/library-service/internal/loan"
	"github.com/anilk007/library-service/internal/model"
)

// TransactionsHandler exposes the borrowing workflow over HTTP. All state
// transitions go through the loan service; handlers only translate.
type TransactionsHandler struct {
	Loans *loan.Service
}

type issueRequest struct {
	BookID   int64 `json:"book_id"`
	MemberID int64 `json:"member_id"`
}

type createTransactionRequest struct {
	BookID     int64       `json:"book_id"`
	MemberID   int64       `json:"member_id"`
	IssueDate  model.Date  `json:"issue_date"`
	DueDate    model.Date  `json:"due_date"`
	ReturnDate *model.Date `json:"return_date"`
	Status     string      `json:"status"`
}

// loanError maps a loan-service error onto an HTTP response. Unknown
// errors are logged and reported as a generic 500.
func loanError(w http.ResponseWriter, err error, action string) {
	var verr *loan.ValidationError
	switch {
	case errors.Is(err, loan.ErrBookNotFound):
		jsonError(w, http.StatusNotFound, "book not found")
	case errors.Is(err, loan.ErrMemberNotFound):
		jsonError(w, http.StatusNotFound, "member not found")
	case errors.Is(err, loan.ErrTransactionNotFound):
		jsonError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, loan.ErrBookUnavailable),
		errors.Is(err, loan.ErrAlreadyReturned),
		errors.Is(err, loan.ErrMemberNotActive),
		errors.Is(err, loan.ErrMemberLoanLimit),
		errors.Is(err, loan.ErrRenewalLimit):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Reason)
	default:
		slog.Error(action, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// Issue handles POST /api/transactions/issue.
func (h *TransactionsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID == 0 || req.MemberID == 0 {
		jsonError(w, http.StatusBadRequest, "book_id and member_id required")
		return
	}

	result, err := h.Loans.Issue(r.Context(), req.BookID, req.MemberID)
	if err != nil {
		loanError(w, err, "issue book")
		return
	}
	jsonResponse(w, http.StatusCreated, result)
}

// Return handles POST /api/transactions/{id}/return.
func (h *TransactionsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.Loans.Return(r.Context(), id)
	if err != nil {
		loanError(w, err, "return book")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Renew handles POST /api/transactions/{id}/renew.
func (h *TransactionsHandler) Renew(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.Loans.Renew(r.Context(), id)
	if err != nil {
		loanError(w, err, "renew loan")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.Loans.ListAll(r.Context())
	if err != nil {
		slog.Error("listing transactions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, transactions)
}

// Issued handles GET /api/transactions/issued.
func (h *TransactionsHandler) Issued(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.Loans.ListIssued(r.Context())
	if err != nil {
		slog.Error("listing issued transactions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, transactions)
}

// Overdue handles GET /api/transactions/overdue.
func (h *TransactionsHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.Loans.ListOverdue(r.Context())
	if err != nil {
		slog.Error("listing overdue transactions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, transactions)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.Loans.Get(r.Context(), id)
	if err != nil {
		loanError(w, err, "get transaction")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Create handles POST /api/transactions, the direct creation path for
// records with explicit dates.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID == 0 || req.MemberID == 0 {
		jsonError(w, http.StatusBadRequest, "book_id and member_id required")
		return
	}

	t, err := h.Loans.Create(r.Context(), model.Transaction{
		BookID:     req.BookID,
		MemberID:   req.MemberID,
		IssueDate:  req.IssueDate,
		DueDate:    req.DueDate,
		ReturnDate: req.ReturnDate,
		Status:     req.Status,
	})
	if err != nil {
		loanError(w, err, "create transaction")
		return
	}
	jsonResponse(w, http.StatusCreated, t)
}

// Update handles PUT /api/transactions/{id}.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var patch loan.UpdatePatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Loans.Update(r.Context(), id, patch)
	if err != nil {
		loanError(w, err, "update transaction")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}
