package game

import (
	"context"
	"time"
)

// TickLimiter paces a loop to a fixed tick interval.
type TickLimiter struct {
	interval time.Duration
	next     time.Time
	resyncs  int
}

// NewTickLimiter creates a limiter for the given interval. interval <= 0 never waits.
func NewTickLimiter(interval time.Duration) *TickLimiter {
	return &TickLimiter{interval: interval}
}

func (l *TickLimiter) Interval() time.Duration { return l.interval }

// Resyncs counts how often the schedule was reset after a hitch.
func (l *TickLimiter) Resyncs() int { return l.resyncs }

// Wait blocks until the next tick is due or ctx is done.
// Deadlines are chained so short sleeps do not accumulate drift.
func (l *TickLimiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		l.next = time.Time{}
		return ctx.Err()
	}

	if l.next.IsZero() {
		l.next = time.Now().Add(l.interval)
	} else {
		l.next = l.next.Add(l.interval)
	}

	if remaining := time.Until(l.next); remaining > 0 {
		t := time.NewTimer(remaining)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	// If we're significantly late (e.g., a long tick), resync to avoid a burst of catch-up ticks
	if late := -time.Until(l.next); late > l.interval {
		l.next = time.Now().Add(l.interval)
		l.resyncs++
	}
	return ctx.Err()
}
