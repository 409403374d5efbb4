package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Kind discriminator values, as stored on a monitor row.
const (
	KindInterval = "interval"
	KindCron     = "cron"
)

// ErrUnknownKind is returned (wrapped in *Error) when a stored schedule kind
// is neither "interval" nor "cron". A bad kind is a data-entry bug and must
// surface loudly, not fall back to a default.
var ErrUnknownKind = errors.New("unknown schedule kind")

// Error reports an invalid schedule definition: a malformed cron expression,
// an unknown timezone, or an unrecognized kind discriminator.
type Error struct {
	Kind  string
	Value string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("schedule %s %q: %v", e.Kind, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// intervalMinutes is the closed set of supported interval presets.
var intervalMinutes = map[string]int{
	"5m":    5,
	"15m":   15,
	"30m":   30,
	"1h":    60,
	"6h":    360,
	"12h":   720,
	"daily": 1440,
}

// DefaultIntervalMinutes is the period an unrecognized interval preset
// resolves to. Unknown presets are not rejected: they fall back to hourly.
// That is a deliberate, documented policy carried over from the monitor
// definition layer, which accepts free-form preset strings.
const DefaultIntervalMinutes = 60

// ResolveInterval maps an interval preset to its period. known is false when
// the preset was not in the table and the default period was applied.
func ResolveInterval(preset string) (period time.Duration, known bool) {
	if m, ok := intervalMinutes[preset]; ok {
		return time.Duration(m) * time.Minute, true
	}
	return DefaultIntervalMinutes * time.Minute, false
}

// Schedule describes when a monitor's job is expected to run. Exactly one of
// the two representations is active; the constructors enforce that, so an
// evaluated Schedule can never hold an invalid kind/value combination.
type Schedule struct {
	kind   string
	period time.Duration // interval only
	expr   string        // cron only
	sched  cron.Schedule // cron only
	loc    *time.Location
}

// NewInterval builds a fixed-period schedule from a preset. It never fails:
// unknown presets resolve per ResolveInterval.
func NewInterval(preset string) Schedule {
	period, _ := ResolveInterval(preset)
	return Schedule{kind: KindInterval, period: period, loc: time.UTC}
}

// NewCron builds a schedule from a standard five-field cron expression,
// evaluated in the named timezone (UTC when tz is empty). A malformed
// expression or unknown timezone returns *Error.
func NewCron(expr, tz string) (Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return Schedule{}, &Error{Kind: KindCron, Value: expr, Err: err}
	}
	loc := time.UTC
	if tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return Schedule{}, &Error{Kind: KindCron, Value: tz, Err: err}
		}
	}
	return Schedule{kind: KindCron, expr: expr, sched: sched, loc: loc}, nil
}

// New builds a Schedule from a stored kind discriminator and value.
func New(kind, value, tz string) (Schedule, error) {
	switch kind {
	case KindInterval:
		return NewInterval(value), nil
	case KindCron:
		return NewCron(value, tz)
	default:
		return Schedule{}, &Error{Kind: kind, Value: value, Err: ErrUnknownKind}
	}
}

// Kind returns the active representation, "interval" or "cron".
func (s Schedule) Kind() string { return s.kind }

// NextExpected returns the first expected occurrence strictly after ref.
// For intervals this is ref plus the period; for cron it follows standard
// cron semantics in the schedule's timezone (restricted day-of-month and
// day-of-week fields combine with OR, per POSIX convention).
func (s Schedule) NextExpected(ref time.Time) time.Time {
	if s.kind == KindCron {
		return s.sched.Next(ref.In(s.loc))
	}
	return ref.Add(s.period)
}

// IsLate reports whether a monitor is overdue at now. A monitor that has
// never checked in is never late here; pending monitors are the sweeper's
// concern. The deadline is the next expected occurrence after the last
// check-in plus the grace period, and the comparison is strict: a check-in
// landing exactly on the deadline is not late.
func (s Schedule) IsLate(lastCheckedIn *time.Time, graceMinutes int, now time.Time) bool {
	if lastCheckedIn == nil {
		return false
	}
	deadline := s.NextExpected(*lastCheckedIn).Add(time.Duration(graceMinutes) * time.Minute)
	return now.After(deadline)
}

// LatenessMinutes returns whole minutes between now and the expected
// occurrence after lastCheckedIn, floored. It is diagnostic only (alert
// messages); the late/not-late decision is IsLate, which applies grace
// separately. No grace is subtracted here.
func (s Schedule) LatenessMinutes(lastCheckedIn, now time.Time) int {
	d := now.Sub(s.NextExpected(lastCheckedIn))
	m := int(d / time.Minute)
	if d < 0 && d%time.Minute != 0 {
		m--
	}
	return m
}
