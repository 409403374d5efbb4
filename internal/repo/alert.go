package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/frontier912/pulsewatch/internal/models"
)

const alertColumns = `id, monitor_id, alert_type, message, triggered_at, acknowledged_at`

// AlertRepo is the append-only alert store. Rows are created by the sweeper,
// one per status transition; acknowledgment is the only permitted update.
type AlertRepo struct {
	DB *sql.DB
}

// NewAlertRepo returns a new AlertRepo.
func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{DB: db}
}

func scanAlert(s interface{ Scan(...any) error }) (*models.Alert, error) {
	a := &models.Alert{}
	var acked sql.NullTime
	if err := s.Scan(&a.ID, &a.MonitorID, &a.AlertType, &a.Message, &a.TriggeredAt, &acked); err != nil {
		return nil, err
	}
	if acked.Valid {
		a.AcknowledgedAt = &acked.Time
	}
	return a, nil
}

// Create appends an alert and returns it with id set.
func (r *AlertRepo) Create(ctx context.Context, monitorID int, alertType, message string, triggeredAt time.Time) (*models.Alert, error) {
	query := `
		INSERT INTO alerts (monitor_id, alert_type, message, triggered_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + alertColumns + `
	`
	return scanAlert(r.DB.QueryRowContext(ctx, query, monitorID, alertType, message, triggeredAt))
}

// Count returns the total number of alerts.
func (r *AlertRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts").Scan(&n)
	return n, err
}

// ListRecent returns alerts across all monitors, newest first.
func (r *AlertRepo) ListRecent(ctx context.Context, limit, offset int) ([]models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		ORDER BY triggered_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

// ListByMonitor returns one monitor's alerts, newest first.
func (r *AlertRepo) ListByMonitor(ctx context.Context, monitorID, limit, offset int) ([]models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE monitor_id = $1
		ORDER BY triggered_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, monitorID, limit, offset)
}

func (r *AlertRepo) list(ctx context.Context, query string, args ...any) ([]models.Alert, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Acknowledge marks an alert acknowledged at the given time. Returns false
// when the alert does not exist or was already acknowledged.
func (r *AlertRepo) Acknowledge(ctx context.Context, id int, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE alerts SET acknowledged_at = $1 WHERE id = $2 AND acknowledged_at IS NULL`,
		at, id,
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
