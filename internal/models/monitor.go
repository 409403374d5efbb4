package models

import "time"

// Monitor status values. Paused monitors are excluded from sweeps entirely
// and must be resumed explicitly before evaluation restarts.
const (
	StatusPending  = "pending"
	StatusOK       = "ok"
	StatusAlerting = "alerting"
	StatusPaused   = "paused"
)

// Schedule kind discriminator. Exactly one representation is active per
// monitor; the kind is validated at definition time.
const (
	ScheduleKindInterval = "interval"
	ScheduleKindCron     = "cron"
)

// Monitor is one watched job. External jobs check in via the monitor's
// checkin token; the sweeper decides lateness from the declared schedule,
// the grace period, and the last check-in.
type Monitor struct {
	ID                  int        `json:"id"`
	TeamID              int        `json:"team_id"`
	Name                string     `json:"name"`
	ScheduleKind        string     `json:"schedule_kind"`
	ScheduleValue       string     `json:"schedule_value"`
	Timezone            string     `json:"timezone"`
	GraceMinutes        int        `json:"grace_minutes"`
	CheckinToken        string     `json:"checkin_token"`
	LastCheckedInAt     *time.Time `json:"last_checked_in_at,omitempty"`
	Status              string     `json:"status"`
	AlertsSilencedUntil *time.Time `json:"alerts_silenced_until,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Silenced reports whether alert notifications are suppressed at the given
// time. Silencing never suppresses status transitions or alert records.
func (m Monitor) Silenced(now time.Time) bool {
	return m.AlertsSilencedUntil != nil && now.Before(*m.AlertsSilencedUntil)
}
