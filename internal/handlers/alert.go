package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/frontier912/pulsewatch/internal/middleware"
	"github.com/frontier912/pulsewatch/internal/repo"
)

// AlertHandler serves the alert history and acknowledgement endpoints.
type AlertHandler struct {
	Repo  *repo.AlertRepo
	Audit *repo.AuditRepo
}

// ListAlerts returns recent alerts, newest first (query: limit, offset).
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	list, err := h.Repo.ListRecent(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": list,
		"total": total,
	})
}

// ListMonitorAlerts returns the alert history of a single monitor.
func (h *AlertHandler) ListMonitorAlerts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid monitor id", http.StatusBadRequest)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	list, err := h.Repo.ListByMonitor(r.Context(), id, limit, 0)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AcknowledgeAlert marks an alert as seen. Acknowledging twice is a
// conflict; the first acknowledgement timestamp is kept.
func (h *AlertHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid alert id", http.StatusBadRequest)
		return
	}

	ok, err := h.Repo.Acknowledge(r.Context(), id, time.Now().UTC())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !ok {
		JSONError(w, "alert not found or already acknowledged", http.StatusConflict)
		return
	}

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), middleware.UserID(r.Context()), "acknowledge", "alert", id, "")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
