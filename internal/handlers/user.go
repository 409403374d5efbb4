package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/frontier912/pulsewatch/internal/middleware"
	"github.com/frontier912/pulsewatch/internal/models"
	"github.com/frontier912/pulsewatch/internal/repo"
)

// UserHandler manages user accounts and their notification settings.
type UserHandler struct {
	Repo  *repo.UserRepo
	Audit *repo.AuditRepo
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	u, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if u == nil {
		JSONError(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUser changes a user's email, webhook URL, or role.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var input struct {
		Email      string `json:"email"`
		WebhookURL string `json:"webhook_url"`
		Role       string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Role != models.RoleViewer && input.Role != models.RoleAdmin {
		JSONValidationError(w, "validation failed", map[string]string{"role": "must be viewer or admin"}, http.StatusBadRequest)
		return
	}

	if err := h.Repo.Update(r.Context(), id, input.Email, input.WebhookURL, input.Role); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), middleware.UserID(r.Context()), "update", "user", id, input.Role)
	}
	u, _ := h.Repo.GetByID(r.Context(), id)
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), middleware.UserID(r.Context()), "delete", "user", id, "")
	}
	w.WriteHeader(http.StatusNoContent)
}
