package sweeper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/frontier912/pulsewatch/internal/notify"
	"github.com/frontier912/pulsewatch/internal/repo"
)

var monitorCols = []string{
	"id", "team_id", "name", "schedule_kind", "schedule_value", "timezone",
	"grace_minutes", "checkin_token", "last_checked_in_at", "status",
	"alerts_silenced_until", "created_at",
}

var alertCols = []string{"id", "monitor_id", "alert_type", "message", "triggered_at", "acknowledged_at"}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func newTestSweeper(t *testing.T) (*Sweeper, sqlmock.Sqlmock, *notify.Dispatcher, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	d := notify.NewDispatcher(notify.LogNotifier{})
	s := New(repo.NewMonitorRepo(db), repo.NewAlertRepo(db), repo.NewTeamRepo(db), d)
	return s, mock, d, func() { db.Close() }
}

func TestSweep_MissedAlertOncePerTransition(t *testing.T) {
	s, mock, d, done := newTestSweeper(t)
	defer done()

	now := mustTime(t, "2025-01-15T10:30:00Z")
	last := mustTime(t, "2025-01-15T10:00:00Z")
	created := mustTime(t, "2025-01-01T00:00:00Z")

	// First tick: monitor is ok, 5m interval, grace 10 -> deadline 10:15, late.
	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-1", last, "ok", nil, created))
	mock.ExpectExec(`UPDATE monitors SET status = \$1 WHERE id = \$2 AND status = \$3`).
		WithArgs("alerting", 1, "ok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs(1, "missed", "db-backup missed its expected check-in (25 minutes overdue)", now).
		WillReturnRows(sqlmock.NewRows(alertCols).
			AddRow(100, 1, "missed", "db-backup missed its expected check-in (25 minutes overdue)", now, nil))
	mock.ExpectQuery(`SELECT u.id, u.username, u.email, u.webhook_url, u.role`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "webhook_url", "role"}).
			AddRow(3, "alice", "alice@example.com", "", "admin").
			AddRow(4, "bob", "bob@example.com", "", "viewer"))

	st, err := s.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	d.Wait()
	if st.Missed != 1 || st.Evaluated != 1 || st.Alerting != 1 {
		t.Errorf("first tick stats: %+v", st)
	}

	// Second tick, no intervening check-in: monitor already alerting, still
	// late. No transition, no alert, no fan-out.
	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-1", last, "alerting", nil, created))

	st, err = s.Sweep(context.Background(), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Sweep (second tick): %v", err)
	}
	if st.Missed != 0 || st.Alerting != 1 {
		t.Errorf("second tick stats: %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_RecoveryAlertOnce(t *testing.T) {
	s, mock, d, done := newTestSweeper(t)
	defer done()

	now := mustTime(t, "2025-01-15T10:30:00Z")
	last := mustTime(t, "2025-01-15T10:29:00Z") // fresh check-in, not late
	created := mustTime(t, "2025-01-01T00:00:00Z")

	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-1", last, "alerting", nil, created))
	mock.ExpectExec(`UPDATE monitors SET status = \$1 WHERE id = \$2 AND status = \$3`).
		WithArgs("ok", 1, "alerting").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs(1, "recovered", "db-backup is checking in again", now).
		WillReturnRows(sqlmock.NewRows(alertCols).
			AddRow(101, 1, "recovered", "db-backup is checking in again", now, nil))
	mock.ExpectQuery(`SELECT u.id, u.username`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "webhook_url", "role"}).
			AddRow(3, "alice", "alice@example.com", "", "admin"))

	st, err := s.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	d.Wait()
	if st.Recovered != 1 || st.Alerting != 0 {
		t.Errorf("recovery tick stats: %+v", st)
	}

	// Next tick: ok and on time, nothing to do.
	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-1", last, "ok", nil, created))

	st, err = s.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep (second tick): %v", err)
	}
	if st.Recovered != 0 || st.Missed != 0 {
		t.Errorf("second tick stats: %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_PendingWithoutHistorySkipped(t *testing.T) {
	s, mock, _, done := newTestSweeper(t)
	defer done()

	created := mustTime(t, "2020-01-01T00:00:00Z") // ancient, still never late
	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "new-job", "interval", "1h", "UTC", 5, "tok-1", nil, "pending", nil, created))

	st, err := s.Sweep(context.Background(), mustTime(t, "2025-01-15T10:30:00Z"))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if st.Evaluated != 1 || st.Missed != 0 || st.Errors != 0 {
		t.Errorf("stats: %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_BadScheduleIsolatedPerMonitor(t *testing.T) {
	s, mock, d, done := newTestSweeper(t)
	defer done()

	now := mustTime(t, "2025-01-15T10:30:00Z")
	last := mustTime(t, "2025-01-15T10:00:00Z")
	created := mustTime(t, "2025-01-01T00:00:00Z")

	// First monitor has a malformed cron expression; the second must still be
	// evaluated and transitioned.
	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "broken", "cron", "not a cron", "UTC", 5, "tok-1", last, "ok", nil, created).
			AddRow(2, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-2", last, "ok", nil, created))
	mock.ExpectExec(`UPDATE monitors SET status = \$1 WHERE id = \$2 AND status = \$3`).
		WithArgs("alerting", 2, "ok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs(2, "missed", sqlmock.AnyArg(), now).
		WillReturnRows(sqlmock.NewRows(alertCols).AddRow(102, 2, "missed", "m", now, nil))
	mock.ExpectQuery(`SELECT u.id, u.username`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "webhook_url", "role"}))

	st, err := s.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	d.Wait()
	if st.Errors != 1 || st.Missed != 1 || st.Evaluated != 2 {
		t.Errorf("stats: %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_ConcurrentTickLosesRace(t *testing.T) {
	s, mock, _, done := newTestSweeper(t)
	defer done()

	now := mustTime(t, "2025-01-15T10:30:00Z")
	last := mustTime(t, "2025-01-15T10:00:00Z")
	created := mustTime(t, "2025-01-01T00:00:00Z")

	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-1", last, "ok", nil, created))
	// Conditional update matches zero rows: another tick already transitioned
	// the monitor. No alert, no fan-out.
	mock.ExpectExec(`UPDATE monitors SET status = \$1 WHERE id = \$2 AND status = \$3`).
		WithArgs("alerting", 1, "ok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	st, err := s.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if st.Missed != 0 || st.Errors != 0 {
		t.Errorf("stats: %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_AlertWriteFailureStillCountsTransition(t *testing.T) {
	s, mock, _, done := newTestSweeper(t)
	defer done()

	now := mustTime(t, "2025-01-15T10:30:00Z")
	last := mustTime(t, "2025-01-15T10:00:00Z")
	created := mustTime(t, "2025-01-01T00:00:00Z")

	// The status transition commits, then the alert insert fails. The monitor
	// really moved to alerting, so the tick reports it alongside the error.
	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-1", last, "ok", nil, created))
	mock.ExpectExec(`UPDATE monitors SET status = \$1 WHERE id = \$2 AND status = \$3`).
		WithArgs("alerting", 1, "ok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs(1, "missed", sqlmock.AnyArg(), now).
		WillReturnError(sql.ErrConnDone)

	st, err := s.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if st.Missed != 1 || st.Alerting != 1 || st.Errors != 1 {
		t.Errorf("stats: %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_SilencedSuppressesFanOutOnly(t *testing.T) {
	s, mock, _, done := newTestSweeper(t)
	defer done()

	now := mustTime(t, "2025-01-15T10:30:00Z")
	last := mustTime(t, "2025-01-15T10:00:00Z")
	created := mustTime(t, "2025-01-01T00:00:00Z")
	silencedUntil := mustTime(t, "2025-01-15T12:00:00Z")

	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 7, "db-backup", "interval", "5m", "UTC", 10, "tok-1", last, "ok", silencedUntil, created))
	// Transition and alert still happen; no team member query follows.
	mock.ExpectExec(`UPDATE monitors SET status = \$1 WHERE id = \$2 AND status = \$3`).
		WithArgs("alerting", 1, "ok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs(1, "missed", sqlmock.AnyArg(), now).
		WillReturnRows(sqlmock.NewRows(alertCols).AddRow(103, 1, "missed", "m", now, nil))

	st, err := s.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if st.Missed != 1 {
		t.Errorf("stats: %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_EnumerationFailureAbortsTick(t *testing.T) {
	s, mock, _, done := newTestSweeper(t)
	defer done()

	mock.ExpectQuery(`FROM monitors\s+WHERE status <> 'paused'`).
		WillReturnError(sql.ErrConnDone)

	_, err := s.Sweep(context.Background(), mustTime(t, "2025-01-15T10:30:00Z"))
	if err == nil {
		t.Fatal("Sweep: expected error when monitor enumeration fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
