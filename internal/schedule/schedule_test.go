package schedule

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func TestNewInterval_PresetTable(t *testing.T) {
	ref := mustTime(t, "2025-01-15T10:00:00Z")
	cases := []struct {
		preset string
		want   time.Time
	}{
		{"5m", mustTime(t, "2025-01-15T10:05:00Z")},
		{"15m", mustTime(t, "2025-01-15T10:15:00Z")},
		{"30m", mustTime(t, "2025-01-15T10:30:00Z")},
		{"1h", mustTime(t, "2025-01-15T11:00:00Z")},
		{"6h", mustTime(t, "2025-01-15T16:00:00Z")},
		{"12h", mustTime(t, "2025-01-15T22:00:00Z")},
		{"daily", mustTime(t, "2025-01-16T10:00:00Z")},
	}
	for _, c := range cases {
		got := NewInterval(c.preset).NextExpected(ref)
		if !got.Equal(c.want) {
			t.Errorf("preset %q: NextExpected = %v, want %v", c.preset, got, c.want)
		}
	}
}

func TestNewInterval_UnknownPresetFallsBackToHourly(t *testing.T) {
	// Deliberate policy: unknown presets resolve to 60 minutes, they are not
	// rejected. ResolveInterval exposes whether the fallback was applied.
	if _, known := ResolveInterval("weekly"); known {
		t.Error("ResolveInterval(weekly): reported known, want fallback")
	}
	period, known := ResolveInterval("5m")
	if !known || period != 5*time.Minute {
		t.Errorf("ResolveInterval(5m) = %v, %v", period, known)
	}

	ref := mustTime(t, "2025-01-15T10:00:00Z")
	got := NewInterval("weekly").NextExpected(ref)
	want := mustTime(t, "2025-01-15T11:00:00Z")
	if !got.Equal(want) {
		t.Errorf("unknown preset: NextExpected = %v, want %v", got, want)
	}
}

func TestNewCron_NextExpected(t *testing.T) {
	ref := mustTime(t, "2025-01-15T10:00:00Z")

	daily, err := NewCron("0 3 * * *", "UTC")
	if err != nil {
		t.Fatalf("NewCron: %v", err)
	}
	// 10:00 is past today's 03:00, so the next occurrence is tomorrow.
	if got, want := daily.NextExpected(ref), mustTime(t, "2025-01-16T03:00:00Z"); !got.Equal(want) {
		t.Errorf("daily at 3am: NextExpected = %v, want %v", got, want)
	}

	quarter, err := NewCron("*/15 * * * *", "UTC")
	if err != nil {
		t.Fatalf("NewCron: %v", err)
	}
	if got, want := quarter.NextExpected(ref), mustTime(t, "2025-01-15T10:15:00Z"); !got.Equal(want) {
		t.Errorf("every 15m: NextExpected = %v, want %v", got, want)
	}
}

func TestNewCron_StrictlyAfterReference(t *testing.T) {
	// A reference exactly on a cron occurrence must yield the following one.
	s, err := NewCron("0 * * * *", "UTC")
	if err != nil {
		t.Fatalf("NewCron: %v", err)
	}
	ref := mustTime(t, "2025-01-15T10:00:00Z")
	if got, want := s.NextExpected(ref), mustTime(t, "2025-01-15T11:00:00Z"); !got.Equal(want) {
		t.Errorf("NextExpected = %v, want %v", got, want)
	}
}

func TestNewCron_Timezone(t *testing.T) {
	s, err := NewCron("0 3 * * *", "America/New_York")
	if err != nil {
		t.Fatalf("NewCron: %v", err)
	}
	// 10:00 UTC on Jan 15 is 05:00 in New York, past that day's 03:00 local.
	ref := mustTime(t, "2025-01-15T10:00:00Z")
	got := s.NextExpected(ref)
	loc, _ := time.LoadLocation("America/New_York")
	want := time.Date(2025, 1, 16, 3, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextExpected = %v, want %v", got, want)
	}
}

func TestNewCron_MonthEnd(t *testing.T) {
	s, err := NewCron("0 0 31 * *", "UTC")
	if err != nil {
		t.Fatalf("NewCron: %v", err)
	}
	// February has no 31st; the next run after Jan 31 is Mar 31.
	ref := mustTime(t, "2025-01-31T01:00:00Z")
	if got, want := s.NextExpected(ref), mustTime(t, "2025-03-31T00:00:00Z"); !got.Equal(want) {
		t.Errorf("NextExpected = %v, want %v", got, want)
	}
}

func TestNewCron_Invalid(t *testing.T) {
	_, err := NewCron("not a cron", "UTC")
	if err == nil {
		t.Fatal("NewCron: expected error for malformed expression")
	}
	var serr *Error
	if !errors.As(err, &serr) {
		t.Errorf("NewCron error type: got %T, want *Error", err)
	}

	if _, err := NewCron("0 3 * * *", "Mars/Olympus"); err == nil {
		t.Error("NewCron: expected error for unknown timezone")
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("hourly", "1h", "")
	if err == nil {
		t.Fatal("New: expected error for unknown kind")
	}
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("New error: got %v, want ErrUnknownKind", err)
	}
}

func TestIsLate_GraceBoundary(t *testing.T) {
	s := NewInterval("5m")
	last := mustTime(t, "2025-01-15T10:00:00Z")
	grace := 10 // deadline 10:15

	cases := []struct {
		now  string
		want bool
	}{
		{"2025-01-15T10:14:00Z", false},
		{"2025-01-15T10:15:00Z", false}, // exactly on the deadline: not late
		{"2025-01-15T10:16:00Z", true},
	}
	for _, c := range cases {
		if got := s.IsLate(&last, grace, mustTime(t, c.now)); got != c.want {
			t.Errorf("IsLate at %s = %v, want %v", c.now, got, c.want)
		}
	}
}

func TestIsLate_NeverCheckedIn(t *testing.T) {
	now := mustTime(t, "2025-06-01T00:00:00Z")
	if NewInterval("5m").IsLate(nil, 0, now) {
		t.Error("IsLate(nil): got true, want false")
	}
	s, err := NewCron("* * * * *", "UTC")
	if err != nil {
		t.Fatalf("NewCron: %v", err)
	}
	if s.IsLate(nil, 0, now) {
		t.Error("IsLate(nil) for cron: got true, want false")
	}
}

func TestLatenessMinutes(t *testing.T) {
	s := NewInterval("5m")
	last := mustTime(t, "2025-01-15T10:00:00Z")

	if got := s.LatenessMinutes(last, mustTime(t, "2025-01-15T10:20:00Z")); got != 15 {
		t.Errorf("LatenessMinutes = %d, want 15", got)
	}
	// Partial minutes floor toward minus infinity.
	if got := s.LatenessMinutes(last, mustTime(t, "2025-01-15T10:20:30Z")); got != 15 {
		t.Errorf("LatenessMinutes (partial) = %d, want 15", got)
	}
	if got := s.LatenessMinutes(last, mustTime(t, "2025-01-15T10:04:30Z")); got != -1 {
		t.Errorf("LatenessMinutes (early) = %d, want -1", got)
	}
}
