package model

import "time"

// Member represents a registered library member.
type Member struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	Status         string    `json:"status"`
	MembershipDate time.Time `json:"membership_date"`
}

// Member statuses.
const (
	MemberStatusActive    = "Active"
	MemberStatusInactive  = "Inactive"
	MemberStatusSuspended = "Suspended"
)

// ValidMemberStatus reports whether s is a recognized member status.
func ValidMemberStatus(s string) bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusSuspended:
		return true
	}
	return false
}
