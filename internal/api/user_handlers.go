package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/repository"
)

// userRequest carries the editable user fields. Absent fields are left
// unchanged on update.
type userRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

// --- ListUsers ---

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// --- CreateUser ---

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == nil || strings.TrimSpace(*req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(*req.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Name != nil {
		u.Name = *req.Name
	}

	if err := h.users.Insert(r.Context(), u); err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// --- GetUser ---

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// --- UpdateUser ---

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	if req.Email != nil {
		if strings.TrimSpace(*req.Email) == "" {
			writeError(w, http.StatusBadRequest, "Email is required")
			return
		}
		u.Email = strings.TrimSpace(*req.Email)
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	u.UpdatedAt = time.Now().UTC()

	if err := h.users.Update(r.Context(), u); err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// --- DeleteUser ---

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (h *Handlers) writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "Email already exists")
	default:
		h.log.Error("user request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
