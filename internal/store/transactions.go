package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anilk007/library-service/internal/model"
)

// CreateTransaction inserts a borrowing record with the given dates and
// status. The partial unique index on active loans makes a second
// concurrent insert for the same book fail with ErrActiveLoanExists.
func CreateTransaction(ctx context.Context, q Querier, t model.Transaction) (*model.Transaction, error) {
	var returnDate model.NullDate
	if t.ReturnDate != nil {
		returnDate = model.NullDate{Date: *t.ReturnDate, Valid: true}
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO transactions (book_id, member_id, issue_date, due_date, return_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.BookID, t.MemberID, t.IssueDate, t.DueDate, returnDate, t.Status,
	)
	if isUniqueViolation(err, "transactions.book_id") {
		return nil, ErrActiveLoanExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting transaction id: %w", err)
	}

	return GetTransaction(ctx, q, id)
}

const transactionColumns = `t.id, t.book_id, t.member_id, t.issue_date, t.due_date,
	t.return_date, t.status, t.created_at,
	b.title AS book_title, m.first_name || ' ' || m.last_name AS member_name`

const transactionJoins = ` FROM transactions t
	JOIN books b ON b.id = t.book_id
	JOIN members m ON m.id = t.member_id`

// GetTransaction returns a transaction by ID, or (nil, nil) if absent.
func GetTransaction(ctx context.Context, q Querier, id int64) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+transactionJoins+` WHERE t.id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns all transactions, newest first.
func ListTransactions(ctx context.Context, q Querier) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+transactionJoins+` ORDER BY t.created_at DESC, t.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListActiveTransactions returns un-returned loans, most urgent first.
func ListActiveTransactions(ctx context.Context, q Querier) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+transactionJoins+`
		 WHERE t.return_date IS NULL
		 ORDER BY t.due_date ASC, t.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListOverdueTransactions returns un-returned loans whose due date is
// strictly before asOf. This is a pure read: overdue status is derived,
// never written back.
func ListOverdueTransactions(ctx context.Context, q Querier, asOf model.Date) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+transactionJoins+`
		 WHERE t.return_date IS NULL AND t.due_date < ?
		 ORDER BY t.due_date ASC, t.id ASC`,
		asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("listing overdue transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListMemberActiveTransactions returns a member's un-returned loans.
func ListMemberActiveTransactions(ctx context.Context, q Querier, memberID int64) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+transactionJoins+`
		 WHERE t.member_id = ? AND t.return_date IS NULL
		 ORDER BY t.due_date ASC, t.id ASC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing member transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// CountMemberActiveLoans returns how many un-returned loans a member holds.
func CountMemberActiveLoans(ctx context.Context, q Querier, memberID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE member_id = ? AND return_date IS NULL`,
		memberID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting member loans: %w", err)
	}
	return count, nil
}

// HoldingMembers returns the active holders of a book with their loan
// details, most recent issue first.
func HoldingMembers(ctx context.Context, q Querier, bookID int64) ([]model.HoldingMember, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT m.id, m.first_name, m.last_name, m.email, m.phone,
		        t.id, t.issue_date, t.due_date, t.status
		 FROM transactions t
		 JOIN members m ON m.id = t.member_id
		 WHERE t.book_id = ? AND t.return_date IS NULL
		 ORDER BY t.issue_date DESC, t.id DESC`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing holding members: %w", err)
	}
	defer rows.Close()

	var holders []model.HoldingMember
	for rows.Next() {
		var h model.HoldingMember
		var phone sql.NullString
		if err := rows.Scan(&h.MemberID, &h.FirstName, &h.LastName, &h.Email, &phone,
			&h.TransactionID, &h.IssueDate, &h.DueDate, &h.Status); err != nil {
			return nil, fmt.Errorf("scanning holding member: %w", err)
		}
		h.Phone = phone.String
		holders = append(holders, h)
	}
	return holders, rows.Err()
}

// UpdateTransaction applies a sparse field update restricted to the
// supplied columns. Returns false if the transaction does not exist.
func UpdateTransaction(ctx context.Context, q Querier, id int64, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		t, err := GetTransaction(ctx, q, id)
		return t != nil, err
	}

	query, args, err := buildUpdate("transactions", id, fields)
	if err != nil {
		return false, fmt.Errorf("building transaction update: %w", err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating transaction: %w", err)
	}
	return n > 0, nil
}

// DeleteTransaction removes a transaction. Returns false if it did not exist.
func DeleteTransaction(ctx context.Context, q Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting transaction: %w", err)
	}
	return n > 0, nil
}

func scanTransaction(scan func(...any) error) (*model.Transaction, error) {
	t := &model.Transaction{}
	var returnDate model.NullDate
	err := scan(&t.ID, &t.BookID, &t.MemberID, &t.IssueDate, &t.DueDate,
		&returnDate, &t.Status, &t.CreatedAt, &t.BookTitle, &t.MemberName)
	if err != nil {
		return nil, err
	}
	if returnDate.Valid {
		t.ReturnDate = &returnDate.Date
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
