package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Gate serializes outbound calls so that consecutive grants are spaced at
// least delay apart, no matter how many callers wait concurrently. Each
// caller reserves the next free slot under the lock and then sleeps until
// that slot arrives, so effective throughput is capped at one grant per
// delay interval per Gate.
type Gate struct {
	mu    sync.Mutex
	next  time.Time
	delay time.Duration
	clock clockwork.Clock
}

func NewGate(delay time.Duration, clock clockwork.Clock) *Gate {
	return &Gate{delay: delay, clock: clock}
}

// Wait blocks until the caller's reserved slot arrives or ctx is done.
// A cancelled wait gives up the reservation's wait but not its spacing:
// later callers still queue behind it, keeping the interval invariant
// simple under races.
func (g *Gate) Wait(ctx context.Context) error {
	if g.delay <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	now := g.clock.Now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.delay)
	g.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return ctx.Err()
	}

	select {
	case <-g.clock.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
