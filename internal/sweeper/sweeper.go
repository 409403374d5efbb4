package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frontier912/pulsewatch/internal/metrics"
	"github.com/frontier912/pulsewatch/internal/models"
	"github.com/frontier912/pulsewatch/internal/notify"
	"github.com/frontier912/pulsewatch/internal/repo"
	"github.com/frontier912/pulsewatch/internal/schedule"
)

// Sweeper runs the periodic lateness evaluation: it reads every non-paused
// monitor, decides lateness through the schedule calculator, and drives the
// alert state machine, persisting each transition and fanning the alert out
// to the owning team.
type Sweeper struct {
	monitors   *repo.MonitorRepo
	alerts     *repo.AlertRepo
	teams      *repo.TeamRepo
	dispatcher *notify.Dispatcher
}

// New returns a Sweeper over the given repos, dispatching through d.
func New(monitors *repo.MonitorRepo, alerts *repo.AlertRepo, teams *repo.TeamRepo, d *notify.Dispatcher) *Sweeper {
	return &Sweeper{monitors: monitors, alerts: alerts, teams: teams, dispatcher: d}
}

// Wait blocks until every notification spawned by past sweeps has finished
// sending. Called on shutdown so in-flight webhooks drain before exit.
func (s *Sweeper) Wait() {
	s.dispatcher.Wait()
}

// Stats summarizes one sweep tick.
type Stats struct {
	Evaluated int `json:"evaluated"`
	Missed    int `json:"missed"`
	Recovered int `json:"recovered"`
	Alerting  int `json:"alerting"`
	Errors    int `json:"errors"`
}

// Sweep runs one tick as of now (zero means current time). It is safe to
// invoke repeatedly: a monitor already alerting produces no further alert.
// Every monitor is an independent unit of work; a schedule or persistence
// failure for one is logged and the tick moves on. Only a failure to
// enumerate the monitors aborts the whole tick.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Stats, error) {
	if now.IsZero() {
		now = time.Now()
	}
	start := time.Now()

	monitors, err := s.monitors.ListActive(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list active monitors: %w", err)
	}

	var st Stats
	for _, m := range monitors {
		st.Evaluated++
		tr, err := s.evaluateOne(ctx, m, now)
		if err != nil {
			st.Errors++
			slog.Error("sweep: monitor evaluation failed",
				"monitor_id", m.ID, "monitor", m.Name, "error", err)
		}
		// A non-nil transition is already committed even when a later step
		// (the alert write) failed, so it always counts.
		switch {
		case tr == nil:
			if err == nil && m.Status == models.StatusAlerting {
				st.Alerting++
			}
		case tr.To == models.StatusAlerting:
			st.Missed++
			st.Alerting++
		case tr.To == models.StatusOK:
			st.Recovered++
		}
	}

	metrics.RecordSweep(time.Since(start).Seconds(), st.Evaluated, st.Alerting)
	slog.Info("sweep tick complete",
		"as_of", now,
		"evaluated", st.Evaluated,
		"missed", st.Missed,
		"recovered", st.Recovered,
		"alerting", st.Alerting,
		"errors", st.Errors)
	return st, nil
}

// evaluateOne decides and applies the transition for a single monitor.
// Returns the applied transition, or nil when the monitor needs none (or a
// concurrent tick already applied it).
func (s *Sweeper) evaluateOne(ctx context.Context, m models.Monitor, now time.Time) (*Transition, error) {
	sched, err := schedule.New(m.ScheduleKind, m.ScheduleValue, m.Timezone)
	if err != nil {
		// Data-entry bug in the stored schedule; fails this monitor only.
		return nil, err
	}

	late := sched.IsLate(m.LastCheckedInAt, m.GraceMinutes, now)
	tr, ok := Evaluate(m.Status, m.LastCheckedInAt != nil, late)
	if !ok {
		return nil, nil
	}

	applied, err := s.monitors.TransitionStatus(ctx, m.ID, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("transition %s -> %s: %w", tr.From, tr.To, err)
	}
	if !applied {
		// A concurrent tick got there first; it also owns the alert.
		slog.Debug("sweep: transition lost race", "monitor_id", m.ID, "from", tr.From, "to", tr.To)
		return nil, nil
	}

	alert, err := s.alerts.Create(ctx, m.ID, tr.AlertType, alertMessage(m, sched, tr, now), now)
	if err != nil {
		// The status update is already committed; surface the write failure.
		return &tr, fmt.Errorf("create %s alert: %w", tr.AlertType, err)
	}
	metrics.IncAlerts(tr.AlertType)

	// Silencing suppresses the fan-out only, never the transition or the
	// alert row.
	if m.Silenced(now) {
		return &tr, nil
	}
	members, err := s.teams.ListMembers(ctx, m.TeamID)
	if err != nil {
		// The alert is committed; losing the fan-out is logged, not fatal.
		slog.Error("sweep: list team members failed", "monitor_id", m.ID, "team_id", m.TeamID, "error", err)
		return &tr, nil
	}
	s.dispatcher.Dispatch(ctx, members, m, *alert)
	return &tr, nil
}

func alertMessage(m models.Monitor, sched schedule.Schedule, tr Transition, now time.Time) string {
	if tr.AlertType == models.AlertTypeRecovered {
		return fmt.Sprintf("%s is checking in again", m.Name)
	}
	lateness := 0
	if m.LastCheckedInAt != nil {
		lateness = sched.LatenessMinutes(*m.LastCheckedInAt, now)
	}
	return fmt.Sprintf("%s missed its expected check-in (%d minutes overdue)", m.Name, lateness)
}
