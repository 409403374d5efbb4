package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/frontier912/pulsewatch/internal/repo"
)

// CheckinHandler serves the unauthenticated heartbeat endpoint. Jobs hit
// it with their monitor's token; no body is required.
type CheckinHandler struct {
	Repo *repo.MonitorRepo
}

// Checkin records a heartbeat for the monitor owning the token. It stamps
// the check-in time and promotes a pending monitor to ok. An alerting
// monitor keeps its status until the next sweep observes the fresh
// check-in, so recovery always produces exactly one recovered alert.
func (h *CheckinHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		JSONError(w, "missing token", http.StatusBadRequest)
		return
	}

	m, err := h.Repo.CheckIn(r.Context(), token, time.Now().UTC())
	if err != nil {
		slog.Error("check-in failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if m == nil {
		JSONError(w, "unknown token", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        m.Status,
		"checked_in_at": m.LastCheckedInAt,
		"monitor":       m.Name,
	})
}
