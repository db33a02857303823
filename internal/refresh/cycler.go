package refresh

import (
	"context"
	"sync"
	"time"

	"faceit-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// UpdateFunc refreshes a single friend in place. Errors are the callee's
// business; the cycler keeps touring regardless.
type UpdateFunc func(ctx context.Context, friend domain.Friend)

// State of the cycler's tour over the roster.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCooling
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCooling:
		return "cooling"
	default:
		return "idle"
	}
}

// Cycler is the slow round-robin updater: one friend per interval, in
// roster order, then a cooldown before the next full cycle. It is an
// explicit Idle/Running/Cooling state machine over an injected clock so
// tests can drive it with fake time.
type Cycler struct {
	update   UpdateFunc
	interval time.Duration
	cooldown time.Duration
	enabled  bool
	clock    clockwork.Clock
	logger   zerolog.Logger

	mu     sync.Mutex
	state  State
	cursor int
	cancel context.CancelFunc
}

func NewCycler(update UpdateFunc, interval, cooldown time.Duration, enabled bool, clock clockwork.Clock, logger zerolog.Logger) *Cycler {
	return &Cycler{
		update:   update,
		interval: interval,
		cooldown: cooldown,
		enabled:  enabled,
		clock:    clock,
		logger:   logger,
	}
}

// Start begins touring friends. It is a no-op when the cycler is
// disabled, the roster is empty, or a tour is already in progress.
func (c *Cycler) Start(friends []domain.Friend) {
	if !c.enabled || len(friends) == 0 {
		return
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateRunning
	c.cursor = 0
	c.mu.Unlock()

	roster := make([]domain.Friend, len(friends))
	copy(roster, friends)

	c.logger.Info().Int("friends", len(roster)).Dur("interval", c.interval).Msg("individual update cycle started")
	go c.run(ctx, roster)
}

// Stop cancels any pending tick or cooldown timer and resets the state
// machine. No new updates are dispatched after Stop returns; an update
// already in flight sees its context cancelled and is expected to
// discard its result.
func (c *Cycler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateIdle
	c.cursor = 0
}

func (c *Cycler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cycler) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

func (c *Cycler) run(ctx context.Context, roster []domain.Friend) {
	for {
		for i := range roster {
			select {
			case <-c.clock.After(c.interval):
			case <-ctx.Done():
				return
			}

			c.mu.Lock()
			if c.state != StateRunning {
				c.mu.Unlock()
				return
			}
			c.cursor = i
			c.mu.Unlock()

			c.update(ctx, roster[i])
		}

		c.mu.Lock()
		if c.state != StateRunning {
			c.mu.Unlock()
			return
		}
		c.state = StateCooling
		c.cursor = 0
		c.mu.Unlock()

		c.logger.Debug().Dur("cooldown", c.cooldown).Msg("cycle complete, cooling down")

		select {
		case <-c.clock.After(c.cooldown):
		case <-ctx.Done():
			return
		}

		c.mu.Lock()
		if c.state != StateCooling {
			c.mu.Unlock()
			return
		}
		c.state = StateRunning
		c.mu.Unlock()
	}
}
