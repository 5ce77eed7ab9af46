package store

import (
	"context"
	"errors"
	"testing"

	"github.com/anilk007/library-service/internal/db"
	"github.com/anilk007/library-service/internal/model"
)

func testMember(email string) model.Member {
	return model.Member{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Status:    model.MemberStatusActive,
	}
}

func TestCreateAndGetMember(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, err := CreateMember(ctx, database, testMember("ada@example.com"))
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	got, err := GetMember(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if got == nil {
		t.Fatal("expected member, got nil")
	}
	if got.Email != "ada@example.com" {
		t.Errorf("email = %q", got.Email)
	}
	if got.Status != model.MemberStatusActive {
		t.Errorf("status = %q, want Active", got.Status)
	}
}

func TestDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateMember(ctx, database, testMember("dup@example.com")); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	_, err := CreateMember(ctx, database, testMember("dup@example.com"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	members, _ := ListMembers(ctx, database)
	if len(members) != 1 {
		t.Errorf("expected 1 member after duplicate insert, got %d", len(members))
	}
}

func TestUpdateMemberPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, _ := CreateMember(ctx, database, testMember("ada@example.com"))

	ok, err := UpdateMember(ctx, database, created.ID, map[string]any{
		"status": model.MemberStatusSuspended,
		"phone":  "555-0100",
	})
	if err != nil {
		t.Fatalf("UpdateMember: %v", err)
	}
	if !ok {
		t.Fatal("expected update to find the member")
	}

	got, _ := GetMember(ctx, database, created.ID)
	if got.Status != model.MemberStatusSuspended || got.Phone != "555-0100" {
		t.Errorf("got status=%q phone=%q", got.Status, got.Phone)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("email = %q, want unchanged", got.Email)
	}
}

func TestDeleteMember(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, _ := CreateMember(ctx, database, testMember("gone@example.com"))

	ok, err := DeleteMember(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}
	if !ok {
		t.Error("expected delete to report a removed row")
	}

	got, _ := GetMember(ctx, database, created.ID)
	if got != nil {
		t.Error("expected member to be gone")
	}
}

func TestDeleteMemberWithLoansBlocked(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	bookID, memberID := seedLoanFixtures(t, database)

	created, err := CreateTransaction(ctx, database, model.Transaction{
		BookID:    bookID,
		MemberID:  memberID,
		IssueDate: date(t, "2024-03-01"),
		DueDate:   date(t, "2024-03-16"),
		Status:    model.StatusIssued,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	// The foreign key protects the borrowing record.
	_, err = DeleteMember(ctx, database, memberID)
	if !errors.Is(err, ErrMemberHasLoans) {
		t.Fatalf("expected ErrMemberHasLoans, got %v", err)
	}
	if got, _ := GetMember(ctx, database, memberID); got == nil {
		t.Fatal("member should survive the blocked delete")
	}

	// With the record gone the delete goes through.
	if _, err := DeleteTransaction(ctx, database, created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	ok, err := DeleteMember(ctx, database, memberID)
	if err != nil {
		t.Fatalf("DeleteMember after clearing loans: %v", err)
	}
	if !ok {
		t.Error("expected delete to report a removed row")
	}
}
