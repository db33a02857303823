package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestGate_FirstCallImmediate(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGate(600*time.Millisecond, fc)

	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected immediate grant, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first Wait should not block")
	}
}

func TestGate_SecondCallWaitsDelay(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGate(600*time.Millisecond, fc)

	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	fc.BlockUntil(1)

	select {
	case <-done:
		t.Fatal("second Wait returned before the delay elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	fc.Advance(600 * time.Millisecond)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second Wait never returned after delay")
	}
}

func TestGate_ConcurrentCallersSpaced(t *testing.T) {
	const callers = 4
	delay := 20 * time.Millisecond
	g := NewGate(delay, clockwork.NewRealClock())

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Wait(context.Background()); err != nil {
				t.Errorf("wait failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// N concurrent callers cannot all clear the gate faster than
	// (N-1) spacing intervals.
	elapsed := time.Since(start)
	if want := time.Duration(callers-1) * delay; elapsed < want {
		t.Errorf("all callers granted in %v, want at least %v", elapsed, want)
	}
}

func TestGate_CancelledWait(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGate(time.Second, fc)

	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Wait(ctx) }()

	fc.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled Wait never returned")
	}
}

func TestGate_ZeroDelayNeverBlocks(t *testing.T) {
	g := NewGate(0, clockwork.NewFakeClock())
	for i := 0; i < 10; i++ {
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
}
