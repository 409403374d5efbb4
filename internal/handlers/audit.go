package handlers

import (
	"net/http"
	"strconv"

	"github.com/frontier912/pulsewatch/internal/repo"
)

// AuditHandler exposes the audit log (admin only, enforced in the router).
type AuditHandler struct {
	Repo *repo.AuditRepo
}

func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
