package sources

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/policy/variable"
)

// CronWindow is a poll-mode variable reporting whether the current time
// falls inside a recurring window: the window opens at each activation of
// a standard cron expression and stays open for the configured duration.
//
// Common expressions:
//   - "0 3 * * *"   - daily at 3 AM
//   - "0 */6 * * *" - every 6 hours
//   - "0 0 * * 0"   - weekly on Sunday at midnight
type CronWindow struct {
	variable.Meta

	sched  cron.Schedule
	window time.Duration
	now    func() time.Time
}

// NewCronWindow parses the cron expression and builds the variable.
// pollInterval bounds how often the engine re-checks the window; window is
// how long each activation stays open.
func NewCronWindow(name, spec string, window, pollInterval time.Duration) (*CronWindow, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window duration must be positive, got %v", window)
	}
	return &CronWindow{
		Meta:   variable.NewMeta(name, variable.ModePoll, pollInterval),
		sched:  sched,
		window: window,
		now:    time.Now,
	}, nil
}

// Value implements variable.Typed. True when some activation of the
// schedule occurred within the last window duration.
func (w *CronWindow) Value() (bool, bool) {
	now := w.now()
	opened := w.sched.Next(now.Add(-w.window))
	return !opened.After(now), true
}

// NextChange reports when the window state will next flip, for logging and
// diagnostics.
func (w *CronWindow) NextChange() time.Time {
	now := w.now()
	opened := w.sched.Next(now.Add(-w.window))
	if !opened.After(now) {
		// Inside the window: it flips closed when this activation expires,
		// unless another activation extends it.
		closes := opened.Add(w.window)
		if next := w.sched.Next(now); next.Before(closes) {
			return next
		}
		return closes
	}
	return opened
}
