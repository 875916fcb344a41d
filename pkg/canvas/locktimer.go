package canvas

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DefaultLockDuration is how long a canvas stays open before it may be locked.
const DefaultLockDuration = 60 * time.Second

// SecondsRemaining returns the seconds left until a canvas created at
// createdAt becomes lockable. A zero or negative value means it is lockable now.
func SecondsRemaining(createdAt, now time.Time, lockDuration time.Duration) float64 {
	return lockDuration.Seconds() - now.Sub(createdAt).Seconds()
}

// Lockable reports whether the lock window has elapsed.
func Lockable(createdAt, now time.Time, lockDuration time.Duration) bool {
	return SecondsRemaining(createdAt, now, lockDuration) <= 0
}

// FormatRemaining renders a countdown as "X hours Y minutes".
func FormatRemaining(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := math.Floor(seconds / 3600)
	minutes := math.Floor((seconds - hours*3600) / 60)
	return fmt.Sprintf("%d hours %d minutes", int(hours), int(minutes))
}

// LockTimer recomputes SecondsRemaining on a fixed period while the canvas it
// watches is unlocked.
type LockTimer struct {
	state    *State
	duration time.Duration
	period   time.Duration
	now      func() time.Time
}

// NewLockTimer creates a timer ticking every second.
func NewLockTimer(state *State, lockDuration time.Duration) *LockTimer {
	return &LockTimer{
		state:    state,
		duration: lockDuration,
		period:   time.Second,
		now:      time.Now,
	}
}

// Remaining computes the current value without waiting for a tick.
func (t *LockTimer) Remaining() float64 {
	return SecondsRemaining(t.state.Meta().CreatedAt, t.now(), t.duration)
}

// Run publishes the remaining seconds immediately and then once per period.
// The returned channel is closed when the canvas is locked or ctx ends.
func (t *LockTimer) Run(ctx context.Context) <-chan float64 {
	out := make(chan float64, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(t.period)
		defer ticker.Stop()

		for {
			if t.state.Meta().IsLocked {
				return
			}

			select {
			case out <- t.Remaining():
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}
