package limiter

import (
	"context"
	"sync"
	"time"
)

// Throttle adapts the inter-request delay for a single host to how the host
// is responding. The next delay is the average of the current delay and the
// last observed latency, clamped to [Floor, Ceiling]; the delay never shrinks
// after a failed response, so an erroring host backs off monotonically until
// it recovers.
type Throttle struct {
	mu      sync.Mutex
	delay   time.Duration
	last    time.Time
	floor   time.Duration
	ceiling time.Duration
}

func NewThrottle(start, floor, ceiling time.Duration) *Throttle {
	if start < floor {
		start = floor
	}
	if ceiling < floor {
		ceiling = floor
	}
	return &Throttle{
		delay:   start,
		floor:   floor,
		ceiling: ceiling,
	}
}

// Wait blocks until the host's current delay has elapsed since the previous
// request, or the context is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	next := t.last.Add(t.delay)
	if next.Before(now) {
		next = now
	}
	t.last = next
	wait := next.Sub(now)
	t.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Update feeds back the latency and outcome of a completed request.
func (t *Throttle) Update(latency time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := (t.delay + latency) / 2
	if !ok && next < t.delay {
		next = t.delay
	}
	t.delay = clamp(next, t.floor, t.ceiling)
}

// Delay reports the current inter-request delay.
func (t *Throttle) Delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
