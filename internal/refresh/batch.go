package refresh

import (
	"context"
	"math"
	"sync"
	"time"

	"faceit-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// EnrichFunc produces the enriched view of one friend. An error marks the
// friend stale for this round; it never aborts the batch.
type EnrichFunc func(ctx context.Context, friend domain.Friend) (domain.EnrichedFriend, error)

// Result is the per-friend outcome of one batch round.
type Result struct {
	Friend domain.EnrichedFriend
	Err    error
}

// BatchRefresher walks the roster in fixed-size chunks, enriching every
// chunk concurrently and publishing progress plus a partial snapshot
// after each one. A RefreshAll issued while another run is in flight
// cancels the older run; the superseded run stops publishing so it cannot
// clobber newer results.
type BatchRefresher struct {
	enrich     EnrichFunc
	batchSize  int
	pause      time.Duration
	clock      clockwork.Clock
	logger     zerolog.Logger
	onProgress func(int)
	onSnapshot func([]domain.EnrichedFriend)

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	gen     uint64
}

func NewBatchRefresher(enrich EnrichFunc, batchSize int, pause time.Duration, clock clockwork.Clock, logger zerolog.Logger) *BatchRefresher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchRefresher{
		enrich:    enrich,
		batchSize: batchSize,
		pause:     pause,
		clock:     clock,
		logger:    logger,
	}
}

// OnProgress registers the progress observer (0-100). Must be set before
// the first RefreshAll.
func (b *BatchRefresher) OnProgress(fn func(int)) { b.onProgress = fn }

// OnSnapshot registers the partial-result observer. The slice passed is
// owned by the observer.
func (b *BatchRefresher) OnSnapshot(fn func([]domain.EnrichedFriend)) { b.onSnapshot = fn }

func (b *BatchRefresher) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// RefreshAll enriches the whole roster and returns the final list, or nil
// when the run was superseded or ctx cancelled. Per-friend failures yield
// stale entries; RefreshAll itself never fails.
func (b *BatchRefresher) RefreshAll(ctx context.Context, friends []domain.Friend) []domain.EnrichedFriend {
	if len(friends) == 0 {
		return nil
	}

	b.mu.Lock()
	if b.cancel != nil {
		b.logger.Debug().Msg("superseding in-flight refresh")
		b.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.running = true
	b.gen++
	myGen := b.gen
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		// only the run that still owns the slot clears it
		if b.gen == myGen {
			b.cancel = nil
			b.running = false
		}
		b.mu.Unlock()
		cancel()
	}()

	total := len(friends)
	results := make([]domain.EnrichedFriend, total)

	for start := 0; start < total; start += b.batchSize {
		end := min(start+b.batchSize, total)
		chunk := friends[start:end]

		out := make([]Result, len(chunk))
		var wg sync.WaitGroup
		for i, f := range chunk {
			wg.Add(1)
			go func(i int, f domain.Friend) {
				defer wg.Done()
				enriched, err := b.enrich(runCtx, f)
				if err != nil {
					out[i] = Result{Friend: staleEntry(f), Err: err}
					return
				}
				out[i] = Result{Friend: enriched}
			}(i, f)
		}
		wg.Wait()

		if runCtx.Err() != nil {
			b.logger.Debug().Msg("refresh cancelled, dropping partial results")
			return nil
		}

		for i, r := range out {
			if r.Err != nil {
				b.logger.Warn().
					Err(r.Err).
					Str("nickname", chunk[i].Nickname).
					Msg("friend refresh failed, keeping stale entry")
			}
			results[start+i] = r.Friend
		}

		b.publish(end, total, results[:end])

		if end < total {
			select {
			case <-b.clock.After(b.pause):
			case <-runCtx.Done():
				b.logger.Debug().Msg("refresh cancelled during batch pause")
				return nil
			}
		}
	}

	return results
}

func (b *BatchRefresher) publish(done, total int, partial []domain.EnrichedFriend) {
	if b.onProgress != nil {
		b.onProgress(progressOf(done, total))
	}
	if b.onSnapshot != nil {
		snapshot := make([]domain.EnrichedFriend, len(partial))
		copy(snapshot, partial)
		b.onSnapshot(snapshot)
	}
}

func progressOf(done, total int) int {
	p := int(math.Round(float64(done) / float64(total) * 100))
	return min(p, 100)
}

func staleEntry(f domain.Friend) domain.EnrichedFriend {
	return domain.EnrichedFriend{Friend: f}
}
