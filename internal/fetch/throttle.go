package fetch

import (
	"context"
	"sync"
	"time"
)

// Throttle serializes calls and spaces them at least minInterval apart,
// measured from the completion of the previous call.
type Throttle struct {
	interval time.Duration
	slot     chan struct{}

	mu   sync.Mutex
	last time.Time

	now func() time.Time
}

// NewThrottle returns a throttle with the supplied minimum spacing. A
// non-positive interval still serializes callers but never sleeps.
func NewThrottle(minInterval time.Duration) *Throttle {
	if minInterval < 0 {
		minInterval = 0
	}
	return &Throttle{
		interval: minInterval,
		slot:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Interval reports the configured minimum spacing.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Do waits for the slot and the remaining interval, runs fn, and records the
// completion time. The mutex only guards the timestamp; the slot is what
// keeps a second caller from overtaking while fn is in flight.
func (t *Throttle) Do(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case t.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-t.slot }()

	if wait := t.remaining(); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	err := fn()

	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
	return err
}

func (t *Throttle) remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last.IsZero() {
		return 0
	}
	return t.interval - t.now().Sub(t.last)
}
