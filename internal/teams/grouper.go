package teams

import (
	"fmt"
	"strings"

	"faceit-dashboard/internal/domain"
)

const (
	minTeamSize = 2
	maxTeamSize = 5
)

// palette cycles across team indices for UI highlighting.
var palette = [...]string{"#ff5500", "#00b4ff", "#22c55e", "#a855f7", "#eab308"}

// Group partitions the live friends into inferred shared-match teams.
// Pass one buckets by exact match id; pass two buckets the leftovers by a
// relaxed competition|map|server|queue key. Buckets outside [2,5] are
// dropped: one player is no team, and more than five in one CS2 match id
// means the id cannot be trusted. Pure and deterministic; bucket
// membership follows input order.
func Group(liveFriends []domain.EnrichedFriend, liveMap map[string]domain.LiveMatchInfo) []domain.TeamGroup {
	var groups []domain.TeamGroup
	used := make(map[string]bool, len(liveFriends))

	// exact pass: same match id
	addPass(&groups, liveFriends, liveMap, used, func(info domain.LiveMatchInfo) (string, bool) {
		if info.MatchID == "" {
			return "", false
		}
		return info.MatchID, true
	})

	// relaxed pass: same competition, map and server
	addPass(&groups, liveFriends, liveMap, used, func(info domain.LiveMatchInfo) (string, bool) {
		return relaxedKey(info), true
	})

	return groups
}

func addPass(
	groups *[]domain.TeamGroup,
	liveFriends []domain.EnrichedFriend,
	liveMap map[string]domain.LiveMatchInfo,
	used map[string]bool,
	keyFn func(domain.LiveMatchInfo) (string, bool),
) {
	order := make([]string, 0, len(liveFriends))
	buckets := make(map[string][]domain.EnrichedFriend)

	for _, f := range liveFriends {
		if used[f.PlayerID] || !f.IsLive {
			continue
		}
		// absent from the live map means not live for grouping purposes
		info, ok := liveMap[f.PlayerID]
		if !ok || !info.IsLive {
			continue
		}
		key, ok := keyFn(info)
		if !ok {
			continue
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], f)
	}

	for _, key := range order {
		members := buckets[key]
		if len(members) < minTeamSize || len(members) > maxTeamSize {
			continue
		}
		idx := len(*groups)
		*groups = append(*groups, domain.TeamGroup{
			ID:            fmt.Sprintf("team-%d", idx),
			Players:       members,
			MatchCriteria: key,
			Color:         palette[idx%len(palette)],
		})
		for _, m := range members {
			used[m.PlayerID] = true
		}
	}
}

func relaxedKey(info domain.LiveMatchInfo) string {
	return strings.Join([]string{
		orUnknown(info.Competition),
		orUnknown(info.Map),
		orUnknown(info.Server),
		orUnknown(info.Queue),
	}, "|")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
