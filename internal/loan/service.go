// Package loan implements the borrowing workflow: issue, return, renew,
// overdue projection, and fine accrual. It is the sole writer of
// transaction status transitions; persistence itself lives in
// internal/store.
package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anilk007/library-service/internal/config"
	"github.com/anilk007/library-service/internal/model"
	"github.com/anilk007/library-service/internal/store"
)

// Service enforces borrowing rules and lifecycle transitions.
type Service struct {
	db    *sql.DB
	rules config.Rules

	// now is swappable in tests to freeze the calendar.
	now func() time.Time
}

// NewService creates a loan service with the given borrowing rules.
func NewService(db *sql.DB, rules config.Rules) *Service {
	return &Service{db: db, rules: rules, now: time.Now}
}

func (s *Service) today() model.Date {
	return model.DateOf(s.now())
}

// IssueResult describes a successful issue.
type IssueResult struct {
	TransactionID int64      `json:"transaction_id"`
	IssueDate     model.Date `json:"issue_date"`
	DueDate       model.Date `json:"due_date"`
	DueDays       int        `json:"due_days"`
}

// Issue creates a borrowing transaction for a book/member pair and
// decrements the book's available copies, all in one database
// transaction. The partial unique index on active loans rejects a
// concurrent duplicate issue atomically, so the preconditions here are
// advisory rather than load-bearing.
func (s *Service) Issue(ctx context.Context, bookID, memberID int64) (*IssueResult, error) {
	today := s.today()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := store.GetMember(ctx, tx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if member.Status != model.MemberStatusActive {
		return nil, ErrMemberNotActive
	}

	count, err := store.CountMemberActiveLoans(ctx, tx, memberID)
	if err != nil {
		return nil, err
	}
	if count >= s.rules.MaxBooksPerMember {
		return nil, ErrMemberLoanLimit
	}

	book, err := store.GetBook(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	created, err := store.CreateTransaction(ctx, tx, model.Transaction{
		BookID:    bookID,
		MemberID:  memberID,
		IssueDate: today,
		DueDate:   today.AddDays(s.rules.DueDays),
		Status:    model.StatusIssued,
	})
	if errors.Is(err, store.ErrActiveLoanExists) {
		return nil, ErrBookUnavailable
	}
	if err != nil {
		return nil, err
	}

	ok, err := store.AdjustBookCopies(ctx, tx, bookID, -1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBookUnavailable
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing issue: %w", err)
	}

	return &IssueResult{
		TransactionID: created.ID,
		IssueDate:     created.IssueDate,
		DueDate:       created.DueDate,
		DueDays:       s.rules.DueDays,
	}, nil
}

// Return closes an active loan: sets the return date to today, flips the
// status to Returned, and increments the book's available copies. The
// returned transaction carries the fine owed, frozen at the return date.
func (s *Service) Return(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	today := s.today()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := store.GetTransaction(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.ReturnDate != nil {
		return nil, ErrAlreadyReturned
	}

	if _, err := store.UpdateTransaction(ctx, tx, transactionID, map[string]any{
		"return_date": today,
		"status":      model.StatusReturned,
	}); err != nil {
		return nil, err
	}

	ok, err := store.AdjustBookCopies(ctx, tx, t.BookID, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("restoring available copies for book %d", t.BookID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing return: %w", err)
	}

	t.ReturnDate = &today
	t.Status = model.StatusReturned
	s.decorate(t, today)
	return t, nil
}

// Renew extends an active loan's due date by the configured renewal
// days. The total issue-to-due span may not exceed MaxBorrowDuration.
func (s *Service) Renew(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	today := s.today()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := store.GetTransaction(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.ReturnDate != nil {
		return nil, ErrAlreadyReturned
	}

	newDue := t.DueDate.AddDays(s.rules.RenewalDays)
	if newDue.DaysSince(t.IssueDate) > s.rules.MaxBorrowDuration {
		return nil, ErrRenewalLimit
	}

	if _, err := store.UpdateTransaction(ctx, tx, transactionID, map[string]any{
		"due_date": newDue,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing renewal: %w", err)
	}

	t.DueDate = newDue
	s.decorate(t, today)
	return t, nil
}

// Get returns a transaction with its derived status and accrued fine.
func (s *Service) Get(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	t, err := store.GetTransaction(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	s.decorate(t, s.today())
	return t, nil
}

// ListAll returns every transaction, newest first.
func (s *Service) ListAll(ctx context.Context) ([]model.Transaction, error) {
	return s.decorated(store.ListTransactions(ctx, s.db))
}

// ListIssued returns all active loans (Issued or Overdue).
func (s *Service) ListIssued(ctx context.Context) ([]model.Transaction, error) {
	return s.decorated(store.ListActiveTransactions(ctx, s.db))
}

// ListOverdue returns active loans whose due date has passed. Overdue is
// derived from the current date at read time; nothing is written back,
// so there is no read/write race to sweep around.
func (s *Service) ListOverdue(ctx context.Context) ([]model.Transaction, error) {
	return s.decorated(store.ListOverdueTransactions(ctx, s.db, s.today()))
}

// ListForMember returns a member's active loans.
func (s *Service) ListForMember(ctx context.Context, memberID int64) ([]model.Transaction, error) {
	member, err := store.GetMember(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return s.decorated(store.ListMemberActiveTransactions(ctx, s.db, memberID))
}

// MembersHoldingBook returns the active holders of a book, each
// annotated with their loan details.
func (s *Service) MembersHoldingBook(ctx context.Context, bookID int64) ([]model.HoldingMember, error) {
	book, err := store.GetBook(ctx, s.db, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	holders, err := store.HoldingMembers(ctx, s.db, bookID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	for i := range holders {
		if holders[i].DueDate.Before(today.Time) {
			holders[i].Status = model.StatusOverdue
		}
	}
	return holders, nil
}

// Create is the lower-level creation path for records with explicit
// dates (e.g. backdated loans). Missing dates default the same way as
// Issue: issue date today, due date issue date plus the configured due
// days. Copy counts are only decremented for records created active.
func (s *Service) Create(ctx context.Context, t model.Transaction) (*model.Transaction, error) {
	today := s.today()

	if t.IssueDate.IsZero() {
		t.IssueDate = today
	}
	if t.DueDate.IsZero() {
		t.DueDate = t.IssueDate.AddDays(s.rules.DueDays)
	}
	if t.Status == "" {
		t.Status = model.StatusIssued
	}

	if !t.DueDate.After(t.IssueDate.Time) {
		return nil, &ValidationError{Reason: "due date must be after issue date"}
	}
	if t.ReturnDate != nil && t.ReturnDate.Before(t.IssueDate.Time) {
		return nil, &ValidationError{Reason: "return date cannot be before issue date"}
	}
	if !model.ValidTransactionStatus(t.Status) {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid status %q", t.Status)}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	book, err := store.GetBook(ctx, tx, t.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	member, err := store.GetMember(ctx, tx, t.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	created, err := store.CreateTransaction(ctx, tx, t)
	if errors.Is(err, store.ErrActiveLoanExists) {
		return nil, ErrBookUnavailable
	}
	if err != nil {
		return nil, err
	}

	if created.ReturnDate == nil {
		ok, err := store.AdjustBookCopies(ctx, tx, t.BookID, -1)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBookUnavailable
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction create: %w", err)
	}

	s.decorate(created, today)
	return created, nil
}

// UpdatePatch is a sparse patch for a transaction. Only the return date
// and status are mutable after creation.
type UpdatePatch struct {
	ReturnDate *model.Date `json:"return_date"`
	Status     *string     `json:"status"`
}

// Update applies a sparse patch directly through the store,
// re-validating the date-ordering invariants against the stored record.
// It does not touch copy counts; Return is the transition that does.
func (s *Service) Update(ctx context.Context, transactionID int64, patch UpdatePatch) (*model.Transaction, error) {
	t, err := store.GetTransaction(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}

	fields := map[string]any{}
	if patch.Status != nil {
		if !model.ValidTransactionStatus(*patch.Status) {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid status %q", *patch.Status)}
		}
		fields["status"] = *patch.Status
	}
	if patch.ReturnDate != nil {
		if patch.ReturnDate.Before(t.IssueDate.Time) {
			return nil, &ValidationError{Reason: "return date cannot be before issue date"}
		}
		fields["return_date"] = *patch.ReturnDate
	}

	if _, err := store.UpdateTransaction(ctx, s.db, transactionID, fields); err != nil {
		return nil, err
	}

	updated, err := store.GetTransaction(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	s.decorate(updated, s.today())
	return updated, nil
}

// decorate fills the derived fields: effective status and accrued fine.
func (s *Service) decorate(t *model.Transaction, today model.Date) {
	t.Status = t.EffectiveStatus(today)
	t.Fine = t.FineOwed(today, s.rules.FinePerDay)
}

func (s *Service) decorated(transactions []model.Transaction, err error) ([]model.Transaction, error) {
	if err != nil {
		return nil, err
	}
	today := s.today()
	for i := range transactions {
		s.decorate(&transactions[i], today)
	}
	return transactions, nil
}
