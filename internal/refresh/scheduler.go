package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Scheduler fires a full-roster update on an interval that scales with
// roster size, so a bigger roster never refreshes faster than one friend
// per AutoUpdatePerItem amortized. A tick that lands while the previous
// update is still pending is skipped outright, never queued.
type Scheduler struct {
	update  func(ctx context.Context)
	base    time.Duration
	perItem time.Duration
	clock   clockwork.Clock
	logger  zerolog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	enabled   bool
	itemCount int
	busy      atomic.Bool
}

func NewScheduler(update func(ctx context.Context), base, perItem time.Duration, clock clockwork.Clock, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		update:  update,
		base:    base,
		perItem: perItem,
		clock:   clock,
		logger:  logger,
	}
}

// Interval is the effective period for a roster of n items.
func (s *Scheduler) Interval(n int) time.Duration {
	iv := time.Duration(n) * s.perItem
	if iv < s.base {
		iv = s.base
	}
	return iv
}

// Configure restarts the timer whenever enabled or the item count
// changes. Disabling (or an empty roster) stops the timer entirely.
func (s *Scheduler) Configure(enabled bool, itemCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil && enabled == s.enabled && itemCount == s.itemCount {
		return
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.enabled = enabled
	s.itemCount = itemCount

	if !enabled || itemCount == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	interval := s.Interval(itemCount)
	s.logger.Info().Dur("interval", interval).Int("items", itemCount).Msg("auto-update scheduled")
	go s.loop(ctx, interval)
}

// Stop halts the timer; no callbacks fire afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.enabled = false
	s.itemCount = 0
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-s.clock.After(interval):
		case <-ctx.Done():
			return
		}
		// a tick and a stop can race; the stop wins
		if ctx.Err() != nil {
			return
		}

		if !s.busy.CompareAndSwap(false, true) {
			s.logger.Debug().Msg("auto-update tick skipped, previous run still pending")
			continue
		}

		go func() {
			defer s.busy.Store(false)
			s.update(ctx)
		}()
	}
}
