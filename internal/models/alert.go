package models

import "time"

// Alert types. "late" exists for manual/diagnostic use; the sweeper only
// produces "missed" and "recovered".
const (
	AlertTypeMissed    = "missed"
	AlertTypeRecovered = "recovered"
	AlertTypeLate      = "late"
)

// Alert is an immutable record created by the sweeper, one per status
// transition (never one per tick). The only mutation allowed afterwards is
// acknowledgment.
type Alert struct {
	ID             int        `json:"id"`
	MonitorID      int        `json:"monitor_id"`
	AlertType      string     `json:"alert_type"`
	Message        string     `json:"message"`
	TriggeredAt    time.Time  `json:"triggered_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}
