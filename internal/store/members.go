package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anilk007/library-service/internal/model"
)

// CreateMember inserts a new member and returns the stored row.
func CreateMember(ctx context.Context, q Querier, m model.Member) (*model.Member, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO members (first_name, last_name, email, phone, address, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.FirstName, m.LastName, m.Email,
		nullIfEmpty(m.Phone), nullIfEmpty(m.Address), m.Status,
	)
	if isUniqueViolation(err, "members.email") {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("creating member: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting member id: %w", err)
	}

	return GetMember(ctx, q, id)
}

const memberColumns = `id, first_name, last_name, email, phone, address, status, membership_date`

// GetMember returns a member by ID, or (nil, nil) if it does not exist.
func GetMember(ctx context.Context, q Querier, id int64) (*model.Member, error) {
	row := q.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting member: %w", err)
	}
	return m, nil
}

// ListMembers returns all members, most recently joined first.
func ListMembers(ctx context.Context, q Querier) ([]model.Member, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY membership_date DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// UpdateMember applies a sparse field update restricted to the supplied
// columns. Returns false if no member with the given ID exists.
func UpdateMember(ctx context.Context, q Querier, id int64, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		m, err := GetMember(ctx, q, id)
		return m != nil, err
	}

	query, args, err := buildUpdate("members", id, fields)
	if err != nil {
		return false, fmt.Errorf("building member update: %w", err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if isUniqueViolation(err, "members.email") {
		return false, ErrDuplicateEmail
	}
	if err != nil {
		return false, fmt.Errorf("updating member: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating member: %w", err)
	}
	return n > 0, nil
}

// DeleteMember removes a member. Members with borrowing records are
// protected by the transactions foreign key and surface as
// ErrMemberHasLoans. Returns false if the member did not exist.
func DeleteMember(ctx context.Context, q Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return false, ErrMemberHasLoans
	}
	if err != nil {
		return false, fmt.Errorf("deleting member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting member: %w", err)
	}
	return n > 0, nil
}

func scanMember(scan func(...any) error) (*model.Member, error) {
	m := &model.Member{}
	var phone, address sql.NullString
	err := scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &phone, &address,
		&m.Status, &m.MembershipDate)
	if err != nil {
		return nil, err
	}
	m.Phone = phone.String
	m.Address = address.String
	return m, nil
}
