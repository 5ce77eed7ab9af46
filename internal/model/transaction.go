package model

import "time"

// Transaction represents a borrowing record for a book/member pair.
//
// The persisted status only ever holds Issued or Returned; Overdue is
// derived at read time by comparing the due date against the current
// date, so a loan never has to be mutated to become overdue.
type Transaction struct {
	ID         int64     `json:"transaction_id"`
	BookID     int64     `json:"book_id"`
	MemberID   int64     `json:"member_id"`
	IssueDate  Date      `json:"issue_date"`
	DueDate    Date      `json:"due_date"`
	ReturnDate *Date     `json:"return_date"`
	Status     string    `json:"status"`
	Fine       int       `json:"fine"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields (not always populated).
	BookTitle  string `json:"book_title,omitempty"`
	MemberName string `json:"member_name,omitempty"`
}

// Transaction statuses.
const (
	StatusIssued   = "Issued"
	StatusReturned = "Returned"
	StatusOverdue  = "Overdue"
)

// ValidTransactionStatus reports whether s is a recognized status.
func ValidTransactionStatus(s string) bool {
	switch s {
	case StatusIssued, StatusReturned, StatusOverdue:
		return true
	}
	return false
}

// Active reports whether the loan has not been returned yet.
func (t *Transaction) Active() bool {
	return t.ReturnDate == nil
}

// EffectiveStatus derives the externally visible status as of today.
// An un-returned loan whose due date has passed is Overdue even though
// the persisted status still says Issued.
func (t *Transaction) EffectiveStatus(today Date) string {
	if t.ReturnDate != nil {
		return StatusReturned
	}
	if t.DueDate.Before(today.Time) {
		return StatusOverdue
	}
	return StatusIssued
}

// FineOwed computes the fine accrued as of today at the given per-day
// rate. Returned loans are charged for the days between due date and
// return date; active overdue loans accrue against today.
func (t *Transaction) FineOwed(today Date, finePerDay int) int {
	end := today
	if t.ReturnDate != nil {
		end = *t.ReturnDate
	}
	late := end.DaysSince(t.DueDate)
	if late <= 0 {
		return 0
	}
	return late * finePerDay
}

// HoldingMember describes an active holder of a book, as returned by
// the members-holding-book projection.
type HoldingMember struct {
	MemberID      int64  `json:"member_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	TransactionID int64  `json:"transaction_id"`
	IssueDate     Date   `json:"issue_date"`
	DueDate       Date   `json:"due_date"`
	Status        string `json:"status"`
}
