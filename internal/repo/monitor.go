package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/frontier912/pulsewatch/internal/models"
)

const monitorColumns = `id, team_id, name, schedule_kind, schedule_value, timezone, grace_minutes, checkin_token, last_checked_in_at, status, alerts_silenced_until, created_at`

// MonitorRepo persists monitors.
type MonitorRepo struct {
	DB *sql.DB
}

// NewMonitorRepo returns a new MonitorRepo.
func NewMonitorRepo(db *sql.DB) *MonitorRepo {
	return &MonitorRepo{DB: db}
}

func scanMonitor(s interface{ Scan(...any) error }) (*models.Monitor, error) {
	m := &models.Monitor{}
	var lastCheckedIn, silencedUntil sql.NullTime
	err := s.Scan(&m.ID, &m.TeamID, &m.Name, &m.ScheduleKind, &m.ScheduleValue,
		&m.Timezone, &m.GraceMinutes, &m.CheckinToken, &lastCheckedIn,
		&m.Status, &silencedUntil, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastCheckedIn.Valid {
		m.LastCheckedInAt = &lastCheckedIn.Time
	}
	if silencedUntil.Valid {
		m.AlertsSilencedUntil = &silencedUntil.Time
	}
	return m, nil
}

// Count returns the total number of monitors.
func (r *MonitorRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM monitors").Scan(&n)
	return n, err
}

// List returns monitors ordered by id. limit/offset for pagination.
func (r *MonitorRepo) List(ctx context.Context, limit, offset int) ([]models.Monitor, error) {
	query := `
		SELECT ` + monitorColumns + `
		FROM monitors
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// ListActive returns all monitors subject to sweeping, i.e. everything not
// paused. Paused monitors are excluded at the query so the sweeper never
// sees them.
func (r *MonitorRepo) ListActive(ctx context.Context) ([]models.Monitor, error) {
	query := `
		SELECT ` + monitorColumns + `
		FROM monitors
		WHERE status <> 'paused'
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// GetByID returns one monitor by id, or nil if not found.
func (r *MonitorRepo) GetByID(ctx context.Context, id int) (*models.Monitor, error) {
	query := `
		SELECT ` + monitorColumns + `
		FROM monitors
		WHERE id = $1
	`
	m, err := scanMonitor(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts a new monitor in status pending and returns it with id set.
func (r *MonitorRepo) Create(ctx context.Context, m models.Monitor) (*models.Monitor, error) {
	query := `
		INSERT INTO monitors (team_id, name, schedule_kind, schedule_value, timezone, grace_minutes, checkin_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + monitorColumns + `
	`
	return scanMonitor(r.DB.QueryRowContext(ctx, query,
		m.TeamID, m.Name, m.ScheduleKind, m.ScheduleValue, m.Timezone, m.GraceMinutes, m.CheckinToken))
}

// Update changes name, schedule, timezone, and grace for the given id.
func (r *MonitorRepo) Update(ctx context.Context, id int, name, scheduleKind, scheduleValue, timezone string, graceMinutes int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE monitors SET name = $1, schedule_kind = $2, schedule_value = $3, timezone = $4, grace_minutes = $5 WHERE id = $6`,
		name, scheduleKind, scheduleValue, timezone, graceMinutes, id,
	)
	return err
}

// Delete removes a monitor by id.
func (r *MonitorRepo) Delete(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM monitors WHERE id = $1`, id)
	return err
}

// CheckIn records a check-in by token: sets last_checked_in_at and promotes
// pending to ok. Alerting monitors keep their status; recovery is detected
// by the next sweep tick so the recovered alert is emitted exactly once.
// Returns nil when no monitor matches the token.
func (r *MonitorRepo) CheckIn(ctx context.Context, token string, now time.Time) (*models.Monitor, error) {
	query := `
		UPDATE monitors
		SET last_checked_in_at = $2,
		    status = CASE WHEN status = 'pending' THEN 'ok' ELSE status END
		WHERE checkin_token = $1
		RETURNING ` + monitorColumns + `
	`
	m, err := scanMonitor(r.DB.QueryRowContext(ctx, query, token, now))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// TransitionStatus moves a monitor from one status to another only if it is
// still in the expected prior status. Returns false when the row was not in
// that status, which means a concurrent sweep tick already applied the
// transition; the caller must then skip the alert and the fan-out.
func (r *MonitorRepo) TransitionStatus(ctx context.Context, id int, from, to string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE monitors SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Pause suspends sweeping for a monitor.
func (r *MonitorRepo) Pause(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE monitors SET status = 'paused' WHERE id = $1`, id)
	return err
}

// Resume puts a paused monitor back under evaluation: pending when it has
// never checked in, ok otherwise.
func (r *MonitorRepo) Resume(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE monitors
		SET status = CASE WHEN last_checked_in_at IS NULL THEN 'pending' ELSE 'ok' END
		WHERE id = $1 AND status = 'paused'`, id)
	return err
}

// Silence suppresses alert notifications until the given time. Pass nil to
// clear. Status transitions and alert records are unaffected.
func (r *MonitorRepo) Silence(ctx context.Context, id int, until *time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE monitors SET alerts_silenced_until = $1 WHERE id = $2`, until, id)
	return err
}
