package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anilk007/library-service/internal/loan"
	"github.com/anilk007/library-service/internal/model"
	"github.com/anilk007/library-service/internal/store"
)

// MembersHandler handles member CRUD endpoints.
type MembersHandler struct {
	DB    *sql.DB
	Loans *loan.Service
}

type createMemberRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Status    string `json:"status"`
}

type updateMemberRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Status    *string `json:"status"`
}

// List handles GET /api/members.
func (h *MembersHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := store.ListMembers(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing members", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	jsonResponse(w, http.StatusOK, members)
}

// Create handles POST /api/members.
func (h *MembersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		jsonError(w, http.StatusBadRequest, "first_name, last_name and email required")
		return
	}

	if req.Status == "" {
		req.Status = model.MemberStatusActive
	}
	if !model.ValidMemberStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	member, err := store.CreateMember(r.Context(), h.DB, model.Member{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Status:    req.Status,
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		jsonError(w, http.StatusBadRequest, "email already exists")
		return
	}
	if err != nil {
		slog.Error("creating member", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	jsonResponse(w, http.StatusCreated, member)
}

// Get handles GET /api/members/{id}.
func (h *MembersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	member, err := store.GetMember(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting member", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		jsonError(w, http.StatusNotFound, "member not found")
		return
	}

	jsonResponse(w, http.StatusOK, member)
}

// Update handles PUT /api/members/{id} with a sparse field patch.
func (h *MembersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]any{}
	if req.FirstName != nil {
		if *req.FirstName == "" {
			jsonError(w, http.StatusBadRequest, "first_name must not be empty")
			return
		}
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		if *req.LastName == "" {
			jsonError(w, http.StatusBadRequest, "last_name must not be empty")
			return
		}
		fields["last_name"] = *req.LastName
	}
	if req.Email != nil {
		if *req.Email == "" {
			jsonError(w, http.StatusBadRequest, "email must not be empty")
			return
		}
		fields["email"] = *req.Email
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.Status != nil {
		if !model.ValidMemberStatus(*req.Status) {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
		fields["status"] = *req.Status
	}

	ok, err := store.UpdateMember(r.Context(), h.DB, id, fields)
	if errors.Is(err, store.ErrDuplicateEmail) {
		jsonError(w, http.StatusBadRequest, "email already exists")
		return
	}
	if err != nil {
		slog.Error("updating member", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "member not found")
		return
	}

	member, _ := store.GetMember(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, member)
}

// Delete handles DELETE /api/members/{id}.
func (h *MembersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	ok, err := store.DeleteMember(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrMemberHasLoans) {
		jsonError(w, http.StatusBadRequest, "member has loans on record")
		return
	}
	if err != nil {
		slog.Error("deleting member", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "member not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "member deleted"})
}

// MemberLoans handles GET /api/members/{id}/loans.
func (h *MembersHandler) MemberLoans(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	loans, err := h.Loans.ListForMember(r.Context(), id)
	if errors.Is(err, loan.ErrMemberNotFound) {
		jsonError(w, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		slog.Error("listing member loans", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list loans")
		return
	}
	if loans == nil {
		loans = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, loans)
}
