package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"faceit-dashboard/internal/api"
	"faceit-dashboard/internal/constants"
	"faceit-dashboard/internal/domain"
	"faceit-dashboard/internal/refresh"
	"faceit-dashboard/internal/repository"
	"faceit-dashboard/internal/teams"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrPlayerNotFound is returned when FACEIT does not know the nickname.
var ErrPlayerNotFound = errors.New("player not found on FACEIT")

// FriendService owns the roster and its enriched in-memory view. The
// enriched map and live map are keyed by PlayerID and written by
// whole-entry replacement, so concurrent per-friend completions stay
// independent of each other.
type FriendService struct {
	faceit  *api.FaceitClient
	lcrypt  *api.LcryptClient
	repo    *repository.FriendRepository
	eloRepo *repository.EloHistoryRepository
	batch   *refresh.BatchRefresher
	logger  zerolog.Logger

	onRosterChange func([]domain.Friend)

	mu       sync.RWMutex
	order    []string
	enriched map[string]domain.EnrichedFriend
	liveMap  map[string]domain.LiveMatchInfo
	progress int
}

func NewFriendService(
	faceit *api.FaceitClient,
	lcrypt *api.LcryptClient,
	repo *repository.FriendRepository,
	eloRepo *repository.EloHistoryRepository,
	clock clockwork.Clock,
	logger zerolog.Logger,
) *FriendService {
	s := &FriendService{
		faceit:   faceit,
		lcrypt:   lcrypt,
		repo:     repo,
		eloRepo:  eloRepo,
		logger:   logger,
		enriched: make(map[string]domain.EnrichedFriend),
		liveMap:  make(map[string]domain.LiveMatchInfo),
	}

	s.batch = refresh.NewBatchRefresher(s.enrichFriend, constants.RefreshBatchSize, constants.BatchPause, clock, logger)
	s.batch.OnProgress(s.setProgress)
	s.batch.OnSnapshot(s.applySnapshot)

	return s
}

// OnRosterChange registers the observer called with the full roster after
// every add or remove, so the refresh loops can rescale to the new size.
// Must be set before the server starts taking requests.
func (s *FriendService) OnRosterChange(fn func([]domain.Friend)) { s.onRosterChange = fn }

func (s *FriendService) roster() []domain.Friend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Friend, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.enriched[id]; ok {
			out = append(out, e.Friend)
		}
	}
	return out
}

func (s *FriendService) notifyRosterChanged() {
	if s.onRosterChange != nil {
		s.onRosterChange(s.roster())
	}
}

// LoadRoster hydrates the in-memory view from the database. Call once at
// startup before any refresh loop starts.
func (s *FriendService) LoadRoster(ctx context.Context) ([]domain.Friend, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	friends, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.order = s.order[:0]
	for _, f := range friends {
		s.order = append(s.order, f.PlayerID)
		if _, ok := s.enriched[f.PlayerID]; !ok {
			s.enriched[f.PlayerID] = domain.EnrichedFriend{Friend: f}
		}
	}
	s.mu.Unlock()

	s.logger.Info().Int("friends", len(friends)).Msg("roster loaded")
	return friends, nil
}

// Add resolves a nickname through FACEIT, persists the friend and seeds
// its enriched entry. Profile and lifetime stats are fetched
// concurrently; a supplemental warm-up runs best effort on the side.
func (s *FriendService) Add(ctx context.Context, nickname string) (*domain.Friend, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.logger.Info().Str("nickname", nickname).Msg("adding friend")

	if _, err := s.repo.GetByNickname(ctx, nickname); err == nil {
		return nil, repository.ErrDuplicate
	}

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	player, err := s.faceit.GetPlayerByNickname(apiCtx, nickname)
	if err != nil {
		s.logger.Warn().Err(err).Str("nickname", nickname).Msg("FACEIT lookup failed")
		return nil, ErrPlayerNotFound
	}

	friend := &domain.Friend{
		PlayerID:   player.PlayerID,
		Nickname:   player.Nickname,
		Avatar:     player.Avatar,
		CoverImage: player.CoverImage,
	}
	if cs2, ok := player.Games["cs2"]; ok {
		friend.Level = cs2.SkillLevel
		friend.Elo = cs2.FaceitElo
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		statsCtx, statsCancel := context.WithTimeout(gctx, constants.ExternalAPITimeout)
		defer statsCancel()

		stats, err := s.faceit.GetPlayerStats(statsCtx, player.PlayerID)
		if err != nil {
			// stats are optional on add; the refresh loops fill them in
			s.logger.Debug().Err(err).Str("player_id", player.PlayerID).Msg("lifetime stats unavailable on add")
			return nil
		}
		friend.Wins = parseIntOr(stats.Lifetime.Wins, 0)
		friend.WinRate = parseFloatOr(stats.Lifetime.WinRatePercent, 0)
		friend.HSRate = parseFloatOr(stats.Lifetime.AverageHeadshots, 0)
		friend.KDRatio = parseFloatOr(stats.Lifetime.AverageKDRatio, 0)
		return nil
	})
	g.Go(func() error {
		// warm the supplemental cache so the first batch round is cheap
		if _, err := s.lcrypt.FetchWithCache(gctx, player.Nickname); err != nil {
			s.logger.Debug().Err(err).Str("nickname", player.Nickname).Msg("supplemental warm-up failed")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, friend); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.order = append(s.order, friend.PlayerID)
	s.enriched[friend.PlayerID] = domain.EnrichedFriend{Friend: *friend}
	s.mu.Unlock()

	s.notifyRosterChanged()
	s.logger.Info().Str("player_id", friend.PlayerID).Str("nickname", friend.Nickname).Msg("friend added")
	return friend, nil
}

// Remove deletes a friend everywhere: roster, enriched view, live map.
func (s *FriendService) Remove(ctx context.Context, playerID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.Delete(ctx, playerID); err != nil {
		return err
	}

	s.mu.Lock()
	nickname := ""
	if e, ok := s.enriched[playerID]; ok {
		nickname = e.Nickname
	}
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.enriched, playerID)
	delete(s.liveMap, playerID)
	s.mu.Unlock()

	if nickname != "" {
		s.lcrypt.Invalidate(nickname)
	}

	s.notifyRosterChanged()
	s.logger.Info().Str("player_id", playerID).Msg("friend removed")
	return nil
}

// Snapshot returns the enriched roster in roster order plus the current
// refresh progress.
func (s *FriendService) Snapshot() ([]domain.EnrichedFriend, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EnrichedFriend, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.enriched[id]; ok {
			out = append(out, e)
		}
	}
	return out, s.progress
}

// RefreshAll runs one full batched enrichment pass and persists the
// refreshed stats. Safe to call concurrently; a newer call supersedes the
// older run.
func (s *FriendService) RefreshAll(ctx context.Context) {
	roster := s.roster()
	if len(roster) == 0 {
		return
	}

	results := s.batch.RefreshAll(ctx, roster)
	if results == nil {
		// superseded or cancelled; the newer run persists instead
		return
	}

	updated := make([]domain.Friend, len(results))
	for i, e := range results {
		updated[i] = e.Friend
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if err := s.repo.UpsertBatch(dbCtx, updated); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist refreshed roster")
	}
}

// RefreshOne updates a single friend, used by the round-robin cycler.
func (s *FriendService) RefreshOne(ctx context.Context, f domain.Friend) {
	enriched, err := s.enrichFriend(ctx, f)
	if err != nil {
		s.logger.Debug().Err(err).Str("nickname", f.Nickname).Msg("individual refresh failed, keeping stale entry")
	}
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.enriched[f.PlayerID] = enriched
	s.mu.Unlock()

	if err == nil {
		dbCtx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
		defer cancel()
		if err := s.repo.Upsert(dbCtx, &enriched.Friend); err != nil {
			s.logger.Warn().Err(err).Str("player_id", f.PlayerID).Msg("failed to persist refreshed friend")
		}
	}
}

// LiveTeams partitions the currently-live friends into inferred teams.
func (s *FriendService) LiveTeams() []domain.TeamGroup {
	s.mu.RLock()
	live := make([]domain.EnrichedFriend, 0, len(s.order))
	liveMap := make(map[string]domain.LiveMatchInfo, len(s.liveMap))
	for _, id := range s.order {
		if e, ok := s.enriched[id]; ok && e.IsLive {
			live = append(live, e)
		}
	}
	for id, info := range s.liveMap {
		liveMap[id] = info
	}
	s.mu.RUnlock()

	return teams.Group(live, liveMap)
}

// EloHistory returns the recorded ELO trend for a friend, newest first.
func (s *FriendService) EloHistory(ctx context.Context, playerID string, limit int) ([]domain.EloHistoryEntry, error) {
	if limit <= 0 {
		limit = constants.EloHistoryDefaultLimit
	}
	if limit > constants.EloHistoryMaxLimit {
		limit = constants.EloHistoryMaxLimit
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.repo.Get(ctx, playerID); err != nil {
		return nil, err
	}
	return s.eloRepo.ListByPlayer(ctx, playerID, limit)
}

func (s *FriendService) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// enrichFriend is the single-friend pipeline shared by the batch
// refresher and the cycler: fetch supplemental stats, replace the live
// map entry wholesale, adopt fresher numbers defensively and record ELO
// movement. On failure the friend comes back stale and marked not live.
func (s *FriendService) enrichFriend(ctx context.Context, f domain.Friend) (domain.EnrichedFriend, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	payload, err := s.lcrypt.FetchWithCache(ctx, f.Nickname)
	if errors.Is(err, api.ErrUnavailable) {
		// the stored nickname may be outdated; re-resolve it by player id
		if fresh, renamed := s.reResolve(ctx, f); renamed {
			f = fresh
			payload, err = s.lcrypt.FetchWithCache(ctx, f.Nickname)
		}
	}
	if err != nil {
		s.setLive(f.PlayerID, domain.LiveMatchInfo{})
		return domain.EnrichedFriend{Friend: f}, fmt.Errorf("supplemental fetch for %s: %w", f.Nickname, err)
	}

	live := liveFromPayload(payload)
	s.setLive(f.PlayerID, live)

	updated := f
	// non-numeric or missing upstream values keep the previous known ones
	if payload.Elo > 0 {
		updated.Elo = payload.Elo
	}
	if payload.Level > 0 {
		updated.Level = payload.Level
	}

	if f.Elo > 0 && updated.Elo != f.Elo {
		if err := s.eloRepo.Record(ctx, f.PlayerID, updated.Elo, updated.Elo-f.Elo); err != nil {
			s.logger.Warn().Err(err).Str("player_id", f.PlayerID).Msg("failed to record elo change")
		}
	}

	enriched := domain.EnrichedFriend{
		Friend:          updated,
		Supplemental:    supplementalFromPayload(payload),
		IsLive:          live.IsLive,
		LiveCompetition: live.Competition,
	}
	if live.IsLive {
		liveCopy := live
		enriched.LiveMatch = &liveCopy
	}
	return enriched, nil
}

// reResolve fetches the FACEIT profile by player id and reports whether
// the nickname changed. A renamed friend is persisted immediately so the
// new nickname survives even if the retried supplemental fetch fails.
func (s *FriendService) reResolve(ctx context.Context, f domain.Friend) (domain.Friend, bool) {
	player, err := s.faceit.GetPlayer(ctx, f.PlayerID)
	if err != nil {
		s.logger.Debug().Err(err).Str("player_id", f.PlayerID).Msg("profile re-resolution failed")
		return f, false
	}
	if player.Nickname == "" || player.Nickname == f.Nickname {
		return f, false
	}

	s.logger.Info().
		Str("player_id", f.PlayerID).
		Str("old_nickname", f.Nickname).
		Str("new_nickname", player.Nickname).
		Msg("nickname changed on FACEIT")

	f.Nickname = player.Nickname
	f.Avatar = player.Avatar
	f.CoverImage = player.CoverImage
	if err := s.repo.Upsert(ctx, &f); err != nil {
		s.logger.Warn().Err(err).Str("player_id", f.PlayerID).Msg("failed to persist renamed friend")
	}
	return f, true
}

func (s *FriendService) setLive(playerID string, info domain.LiveMatchInfo) {
	s.mu.Lock()
	s.liveMap[playerID] = info
	s.mu.Unlock()
}

func (s *FriendService) setProgress(p int) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

func (s *FriendService) applySnapshot(partial []domain.EnrichedFriend) {
	s.mu.Lock()
	for _, e := range partial {
		s.enriched[e.PlayerID] = e
	}
	s.mu.Unlock()
}

func supplementalFromPayload(p *api.SupplementalPayload) *domain.SupplementalStats {
	supp := &domain.SupplementalStats{
		Elo:          p.Elo,
		Level:        p.Level,
		Region:       p.Region,
		Country:      p.Country,
		RegionPlace:  p.Ladder.Region,
		CountryPlace: p.Ladder.Country,
		Trend:        p.Trend,
	}
	if p.Today.Present {
		supp.Today = &domain.DailySummary{
			Wins:    p.Today.Win,
			Losses:  p.Today.Lose,
			EloDiff: p.Today.Elo,
			Matches: p.Today.Count,
		}
	}
	return supp
}

func liveFromPayload(p *api.SupplementalPayload) domain.LiveMatchInfo {
	if !p.Current.Present {
		return domain.LiveMatchInfo{}
	}
	return domain.LiveMatchInfo{
		IsLive:      true,
		MatchID:     p.Current.MatchID,
		Competition: p.Current.Competition,
		Map:         p.Current.Map,
		Server:      p.Current.Server,
		Queue:       p.Current.Queue,
		Status:      p.Current.Status,
		State:       p.Current.State,
	}
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseIntOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
