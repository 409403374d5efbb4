package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/frontier912/pulsewatch/internal/middleware"
	"github.com/frontier912/pulsewatch/internal/models"
	"github.com/frontier912/pulsewatch/internal/repo"
	"github.com/frontier912/pulsewatch/internal/schedule"
)

// MonitorHandler handles monitor CRUD and lifecycle actions.
type MonitorHandler struct {
	Repo  *repo.MonitorRepo
	Audit *repo.AuditRepo
}

type monitorInput struct {
	TeamID        int    `json:"team_id"`
	Name          string `json:"name"`
	ScheduleKind  string `json:"schedule_kind"`
	ScheduleValue string `json:"schedule_value"`
	Timezone      string `json:"timezone"`
	GraceMinutes  int    `json:"grace_minutes"`
}

// validate checks the definition, including that the schedule parses. An
// interval monitor accepts any preset string (unknown presets resolve to
// hourly, by policy); a cron monitor must carry a well-formed expression.
func (in monitorInput) validate() map[string]string {
	fields := make(map[string]string)
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.TeamID <= 0 {
		fields["team_id"] = "required"
	}
	if in.GraceMinutes <= 0 {
		fields["grace_minutes"] = "must be positive"
	}
	if in.ScheduleValue == "" {
		fields["schedule_value"] = "required"
	}
	switch in.ScheduleKind {
	case models.ScheduleKindInterval:
	case models.ScheduleKindCron:
		if in.ScheduleValue != "" {
			if _, err := schedule.NewCron(in.ScheduleValue, in.Timezone); err != nil {
				fields["schedule_value"] = err.Error()
			}
		}
	default:
		fields["schedule_kind"] = "must be interval or cron"
	}
	return fields
}

// ListMonitors returns paginated monitors (query: limit, offset).
func (h *MonitorHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
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

	list, err := h.Repo.List(r.Context(), limit, offset)
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

// GetMonitor returns one monitor by id.
func (h *MonitorHandler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid monitor id", http.StatusBadRequest)
		return
	}

	m, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if m == nil {
		JSONError(w, "monitor not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateMonitor creates a monitor in status pending with a fresh check-in
// token. The schedule is validated here, at definition time.
func (h *MonitorHandler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	var input monitorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if fields := input.validate(); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}

	m, err := h.Repo.Create(r.Context(), models.Monitor{
		TeamID:        input.TeamID,
		Name:          input.Name,
		ScheduleKind:  input.ScheduleKind,
		ScheduleValue: input.ScheduleValue,
		Timezone:      input.Timezone,
		GraceMinutes:  input.GraceMinutes,
		CheckinToken:  uuid.NewString(),
	})
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, "create", m.ID, m.Name)
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMonitor updates a monitor's definition.
func (h *MonitorHandler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid monitor id", http.StatusBadRequest)
		return
	}

	var input monitorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := input.validate()
	delete(fields, "team_id") // team ownership is not editable here
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}

	if err := h.Repo.Update(r.Context(), id, input.Name, input.ScheduleKind, input.ScheduleValue, input.Timezone, input.GraceMinutes); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	m, _ := h.Repo.GetByID(r.Context(), id)
	h.audit(r, "update", id, input.Name)
	writeJSON(w, http.StatusOK, m)
}

// DeleteMonitor deletes a monitor and its alerts.
func (h *MonitorHandler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid monitor id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, "delete", id, "")
	w.WriteHeader(http.StatusNoContent)
}

// PauseMonitor suspends sweeping for a monitor.
func (h *MonitorHandler) PauseMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid monitor id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Pause(r.Context(), id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, "pause", id, "")
	m, _ := h.Repo.GetByID(r.Context(), id)
	writeJSON(w, http.StatusOK, m)
}

// ResumeMonitor puts a paused monitor back under evaluation.
func (h *MonitorHandler) ResumeMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid monitor id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Resume(r.Context(), id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, "resume", id, "")
	m, _ := h.Repo.GetByID(r.Context(), id)
	writeJSON(w, http.StatusOK, m)
}

// SilenceMonitor suppresses alert notifications until the given time.
// Body: {"until": "2025-01-16T00:00:00Z"}; null or omitted clears silencing.
func (h *MonitorHandler) SilenceMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid monitor id", http.StatusBadRequest)
		return
	}

	var input struct {
		Until *time.Time `json:"until"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Silence(r.Context(), id, input.Until); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, "silence", id, "")
	m, _ := h.Repo.GetByID(r.Context(), id)
	writeJSON(w, http.StatusOK, m)
}

func (h *MonitorHandler) audit(r *http.Request, action string, id int, details string) {
	if h.Audit == nil {
		return
	}
	_ = h.Audit.Log(r.Context(), middleware.UserID(r.Context()), action, "monitor", id, details)
}
