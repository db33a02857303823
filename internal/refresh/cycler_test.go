package refresh

import (
	"context"
	"testing"
	"time"

	"faceit-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	testInterval = 1200 * time.Millisecond
	testCooldown = 45 * time.Second
)

func expectUpdate(t *testing.T, calls <-chan string, want string) {
	t.Helper()
	select {
	case got := <-calls:
		if got != want {
			t.Fatalf("expected update for %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected update for %q, got none", want)
	}
}

func expectNoUpdate(t *testing.T, calls <-chan string) {
	t.Helper()
	select {
	case got := <-calls:
		t.Fatalf("expected no update, got %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCycler_FullCycleAndCooldown(t *testing.T) {
	fc := clockwork.NewFakeClock()
	calls := make(chan string, 16)

	c := NewCycler(func(ctx context.Context, f domain.Friend) {
		calls <- f.Nickname
	}, testInterval, testCooldown, true, fc, zerolog.Nop())

	c.Start(roster(3))
	defer c.Stop()

	for _, want := range []string{"player0", "player1", "player2"} {
		fc.BlockUntil(1)
		fc.Advance(testInterval)
		expectUpdate(t, calls, want)
	}

	// cycle finished: cooling down, cursor reset
	fc.BlockUntil(1)
	if got := c.State(); got != StateCooling {
		t.Fatalf("expected cooling state after full cycle, got %v", got)
	}
	if got := c.Cursor(); got != 0 {
		t.Fatalf("expected cursor reset to 0, got %d", got)
	}

	// almost through the cooldown: still quiet
	fc.Advance(testCooldown - time.Second)
	expectNoUpdate(t, calls)

	// cooldown over: the tour restarts from friend 0
	fc.Advance(time.Second)
	fc.BlockUntil(1)
	fc.Advance(testInterval)
	expectUpdate(t, calls, "player0")
}

func TestCycler_StopMidCycle(t *testing.T) {
	fc := clockwork.NewFakeClock()
	calls := make(chan string, 16)

	c := NewCycler(func(ctx context.Context, f domain.Friend) {
		calls <- f.Nickname
	}, testInterval, testCooldown, true, fc, zerolog.Nop())

	c.Start(roster(3))

	fc.BlockUntil(1)
	fc.Advance(testInterval)
	expectUpdate(t, calls, "player0")

	fc.BlockUntil(1)
	c.Stop()

	fc.Advance(10 * testInterval)
	expectNoUpdate(t, calls)

	if got := c.State(); got != StateIdle {
		t.Errorf("expected idle state after Stop, got %v", got)
	}
	if got := c.Cursor(); got != 0 {
		t.Errorf("expected cursor reset after Stop, got %d", got)
	}
}

func TestCycler_StopDuringCooldown(t *testing.T) {
	fc := clockwork.NewFakeClock()
	calls := make(chan string, 16)

	c := NewCycler(func(ctx context.Context, f domain.Friend) {
		calls <- f.Nickname
	}, testInterval, testCooldown, true, fc, zerolog.Nop())

	c.Start(roster(1))

	fc.BlockUntil(1)
	fc.Advance(testInterval)
	expectUpdate(t, calls, "player0")

	fc.BlockUntil(1)
	c.Stop()

	fc.Advance(2 * testCooldown)
	expectNoUpdate(t, calls)
}

func TestCycler_StopCancelsInFlightUpdate(t *testing.T) {
	fc := clockwork.NewFakeClock()
	entered := make(chan struct{})
	release := make(chan struct{})
	observed := make(chan error, 1)

	c := NewCycler(func(ctx context.Context, f domain.Friend) {
		entered <- struct{}{}
		<-release
		observed <- ctx.Err()
	}, testInterval, testCooldown, true, fc, zerolog.Nop())

	c.Start(roster(2))

	fc.BlockUntil(1)
	fc.Advance(testInterval)

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("update never started")
	}

	// the tour is stopped while the update is still running
	c.Stop()
	close(release)

	select {
	case err := <-observed:
		if err == nil {
			t.Error("in-flight update should see a cancelled context after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update never finished")
	}
}

func TestCycler_StartNoops(t *testing.T) {
	fc := clockwork.NewFakeClock()
	calls := make(chan string, 1)
	update := func(ctx context.Context, f domain.Friend) { calls <- f.Nickname }

	disabled := NewCycler(update, testInterval, testCooldown, false, fc, zerolog.Nop())
	disabled.Start(roster(3))
	if got := disabled.State(); got != StateIdle {
		t.Errorf("disabled cycler should stay idle, got %v", got)
	}

	empty := NewCycler(update, testInterval, testCooldown, true, fc, zerolog.Nop())
	empty.Start(nil)
	if got := empty.State(); got != StateIdle {
		t.Errorf("empty roster should stay idle, got %v", got)
	}
}

func TestCycler_DoubleStartIsNoop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	calls := make(chan string, 16)

	c := NewCycler(func(ctx context.Context, f domain.Friend) {
		calls <- f.Nickname
	}, testInterval, testCooldown, true, fc, zerolog.Nop())

	c.Start(roster(2))
	defer c.Stop()
	c.Start(roster(2))

	fc.BlockUntil(1)
	fc.Advance(testInterval)
	expectUpdate(t, calls, "player0")
	// a second runner would produce a duplicate tick here
	expectNoUpdate(t, calls)
}
