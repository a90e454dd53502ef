// Package cooldown decides whether a user may submit another occupancy report.
package cooldown

import (
	"math"
	"time"
)

// DefaultPeriod is the minimum spacing between two submissions by one user.
const DefaultPeriod = time.Hour

// Window enforces a minimum period between submissions.
type Window struct {
	Period time.Duration
}

// New returns a Window with the given period, or DefaultPeriod when period <= 0.
func New(period time.Duration) Window {
	if period <= 0 {
		period = DefaultPeriod
	}
	return Window{Period: period}
}

// CanSubmit reports whether a submission is allowed at now. A zero last means
// the user never submitted. Exactly one period after last is already allowed.
func (w Window) CanSubmit(last, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= w.Period
}

// Remaining is the time left until the next allowed submission, or 0.
func (w Window) Remaining(last, now time.Time) time.Duration {
	if w.CanSubmit(last, now) {
		return 0
	}
	return w.Period - now.Sub(last)
}

// RemainingMinutes rounds Remaining up to whole minutes.
func (w Window) RemainingMinutes(last, now time.Time) int {
	return int(math.Ceil(float64(w.Remaining(last, now).Milliseconds()) / 60000))
}

// Cutoff is the latest last-submit time that still allows a submission at now.
func (w Window) Cutoff(now time.Time) time.Time {
	return now.Add(-w.Period)
}
