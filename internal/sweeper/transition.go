package sweeper

import "github.com/frontier912/pulsewatch/internal/models"

// Transition is one edge of the monitor state machine: the status change to
// apply and the alert type to emit with it.
type Transition struct {
	From      string
	To        string
	AlertType string
}

// Evaluate applies the transition table for one monitor and sweep tick.
// It is pure: persistence and notification happen elsewhere.
//
//	pending, never checked in  -> no transition (cannot be late without history)
//	pending|ok, late           -> alerting, emit missed
//	alerting, not late         -> ok, emit recovered
//	ok, not late               -> no transition
//	alerting, late             -> no transition (no duplicate alert)
//
// Paused monitors never reach Evaluate; the sweeper excludes them at the
// query. The second return is false when no transition applies.
func Evaluate(status string, hasCheckedIn, late bool) (Transition, bool) {
	switch status {
	case models.StatusPending:
		if !hasCheckedIn {
			return Transition{}, false
		}
		if late {
			return Transition{From: status, To: models.StatusAlerting, AlertType: models.AlertTypeMissed}, true
		}
	case models.StatusOK:
		if late {
			return Transition{From: status, To: models.StatusAlerting, AlertType: models.AlertTypeMissed}, true
		}
	case models.StatusAlerting:
		if !late {
			return Transition{From: status, To: models.StatusOK, AlertType: models.AlertTypeRecovered}, true
		}
	}
	return Transition{}, false
}
