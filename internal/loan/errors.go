package loan

import "errors"

// Workflow failures are typed so handlers can map each to a distinct
// response without string matching.
var (
	ErrBookNotFound        = errors.New("book not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrBookUnavailable covers both conflict shapes on issue: an
	// existing active loan for the book, or no available copies left.
	ErrBookUnavailable = errors.New("book is already issued")

	ErrAlreadyReturned = errors.New("book already returned")
	ErrMemberNotActive = errors.New("member is not active")
	ErrMemberLoanLimit = errors.New("member has reached the borrowing limit")
	ErrRenewalLimit    = errors.New("renewal would exceed the maximum borrow duration")
)

// ValidationError reports malformed or constraint-violating input with a
// human-readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
