package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/frontier912/pulsewatch/internal/repo"
)

func TestCheckinHandler_Checkin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`UPDATE monitors\s+SET last_checked_in_at = \$2`).
		WithArgs("tok-abc", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 1, "db-backup", "interval", "1h", "UTC", 15, "tok-abc", now, "ok", nil, now))

	h := &CheckinHandler{Repo: repo.NewMonitorRepo(db)}

	req := requestWithChiURLParams("POST", "/ping/tok-abc", nil, map[string]string{"token": "tok-abc"})
	rr := httptest.NewRecorder()
	h.Checkin(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Checkin status: got %d, want 200", rr.Code)
	}
	var out struct {
		Status  string `json:"status"`
		Monitor string `json:"monitor"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "ok" || out.Monitor != "db-backup" {
		t.Errorf("unexpected response: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// An alerting monitor keeps its status on check-in; the next sweep tick
// emits the recovered alert.
func TestCheckinHandler_Checkin_AlertingKeepsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`UPDATE monitors\s+SET last_checked_in_at = \$2`).
		WithArgs("tok-abc", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(monitorCols).
			AddRow(1, 1, "db-backup", "interval", "1h", "UTC", 15, "tok-abc", now, "alerting", nil, now))

	h := &CheckinHandler{Repo: repo.NewMonitorRepo(db)}

	req := requestWithChiURLParams("POST", "/ping/tok-abc", nil, map[string]string{"token": "tok-abc"})
	rr := httptest.NewRecorder()
	h.Checkin(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Checkin status: got %d, want 200", rr.Code)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "alerting" {
		t.Errorf("status: got %q, want alerting", out.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCheckinHandler_Checkin_UnknownToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE monitors\s+SET last_checked_in_at = \$2`).
		WithArgs("nope", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(monitorCols))

	h := &CheckinHandler{Repo: repo.NewMonitorRepo(db)}

	req := requestWithChiURLParams("POST", "/ping/nope", nil, map[string]string{"token": "nope"})
	rr := httptest.NewRecorder()
	h.Checkin(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Checkin status: got %d, want 404", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "unknown token" {
		t.Errorf("unexpected error body: %v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
