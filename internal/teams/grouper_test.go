package teams

import (
	"fmt"
	"testing"

	"faceit-dashboard/internal/domain"
)

func liveFriend(id string) domain.EnrichedFriend {
	return domain.EnrichedFriend{
		Friend: domain.Friend{PlayerID: id, Nickname: "nick-" + id},
		IsLive: true,
	}
}

func liveRoster(n int) []domain.EnrichedFriend {
	friends := make([]domain.EnrichedFriend, n)
	for i := range friends {
		friends[i] = liveFriend(fmt.Sprintf("p%d", i))
	}
	return friends
}

func sameMatch(friends []domain.EnrichedFriend, matchID string) map[string]domain.LiveMatchInfo {
	m := make(map[string]domain.LiveMatchInfo, len(friends))
	for _, f := range friends {
		m[f.PlayerID] = domain.LiveMatchInfo{IsLive: true, MatchID: matchID}
	}
	return m
}

func TestGroup_ExactMatch(t *testing.T) {
	friends := liveRoster(3)
	groups := Group(friends, sameMatch(friends, "m1"))

	if len(groups) != 1 {
		t.Fatalf("expected exactly one team, got %d", len(groups))
	}
	g := groups[0]
	if len(g.Players) != 3 {
		t.Errorf("expected 3 players, got %d", len(g.Players))
	}
	if g.ID != "team-0" {
		t.Errorf("expected id team-0, got %q", g.ID)
	}
	if g.MatchCriteria != "m1" {
		t.Errorf("expected criteria m1, got %q", g.MatchCriteria)
	}
}

func TestGroup_SizeBounds(t *testing.T) {
	cases := []struct {
		size      int
		wantTeams int
	}{
		{1, 0},
		{2, 1},
		{5, 1},
		{6, 0},
	}
	for _, c := range cases {
		friends := liveRoster(c.size)
		groups := Group(friends, sameMatch(friends, "m1"))
		if len(groups) != c.wantTeams {
			t.Errorf("bucket of %d: expected %d teams, got %d", c.size, c.wantTeams, len(groups))
		}
	}
}

func TestGroup_RelaxedPass(t *testing.T) {
	friends := liveRoster(3)
	liveMap := map[string]domain.LiveMatchInfo{
		// no match id on any of them, but same competition/map/server
		"p0": {IsLive: true, Competition: "ECL", Map: "de_mirage", Server: "eu-west"},
		"p1": {IsLive: true, Competition: "ECL", Map: "de_mirage", Server: "eu-west"},
		"p2": {IsLive: true, Competition: "Faceit", Map: "de_nuke", Server: "eu-east"},
	}

	groups := Group(friends, liveMap)
	if len(groups) != 1 {
		t.Fatalf("expected one relaxed-pass team, got %d", len(groups))
	}
	if len(groups[0].Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(groups[0].Players))
	}
	if want := "ECL|de_mirage|eu-west|unknown"; groups[0].MatchCriteria != want {
		t.Errorf("expected criteria %q, got %q", want, groups[0].MatchCriteria)
	}
}

func TestGroup_ExactThenRelaxed(t *testing.T) {
	friends := liveRoster(5)
	liveMap := map[string]domain.LiveMatchInfo{
		"p0": {IsLive: true, MatchID: "m1"},
		"p1": {IsLive: true, MatchID: "m1"},
		"p2": {IsLive: true, Competition: "ECL", Map: "de_inferno"},
		"p3": {IsLive: true, Competition: "ECL", Map: "de_inferno"},
		"p4": {IsLive: true, Competition: "ECL", Map: "de_inferno"},
	}

	groups := Group(friends, liveMap)
	if len(groups) != 2 {
		t.Fatalf("expected two teams, got %d", len(groups))
	}

	if groups[0].ID != "team-0" || groups[1].ID != "team-1" {
		t.Errorf("ids must be sequential across passes, got %q, %q", groups[0].ID, groups[1].ID)
	}
	if len(groups[0].Players) != 2 || groups[0].MatchCriteria != "m1" {
		t.Errorf("first team should be the exact-match pair, got %+v", groups[0])
	}
	if len(groups[1].Players) != 3 {
		t.Errorf("second team should be the relaxed trio, got %d players", len(groups[1].Players))
	}
	if groups[0].Color == groups[1].Color {
		t.Error("adjacent teams should get distinct palette colors")
	}
}

func TestGroup_ExactMembersExcludedFromRelaxed(t *testing.T) {
	friends := liveRoster(4)
	liveMap := map[string]domain.LiveMatchInfo{
		// exact pair shares the relaxed key with the others
		"p0": {IsLive: true, MatchID: "m1", Competition: "ECL", Map: "de_dust2"},
		"p1": {IsLive: true, MatchID: "m1", Competition: "ECL", Map: "de_dust2"},
		"p2": {IsLive: true, Competition: "ECL", Map: "de_dust2"},
		"p3": {IsLive: true, Competition: "ECL", Map: "de_dust2"},
	}

	groups := Group(friends, liveMap)
	if len(groups) != 2 {
		t.Fatalf("expected two teams, got %d", len(groups))
	}
	for _, g := range groups {
		if len(g.Players) != 2 {
			t.Errorf("team %s: expected 2 players, got %d", g.ID, len(g.Players))
		}
	}
}

func TestGroup_NotLiveExcluded(t *testing.T) {
	friends := liveRoster(3)
	friends[2].IsLive = false

	liveMap := sameMatch(friends, "m1")
	groups := Group(friends, liveMap)

	if len(groups) != 1 {
		t.Fatalf("expected one team, got %d", len(groups))
	}
	if len(groups[0].Players) != 2 {
		t.Errorf("non-live friend must be excluded, got %d players", len(groups[0].Players))
	}
}

func TestGroup_AbsentFromLiveMapExcluded(t *testing.T) {
	friends := liveRoster(3)
	liveMap := sameMatch(friends[:2], "m1")

	groups := Group(friends, liveMap)
	if len(groups) != 1 {
		t.Fatalf("expected one team, got %d", len(groups))
	}
	if len(groups[0].Players) != 2 {
		t.Errorf("friend missing from the live map must be excluded, got %d players", len(groups[0].Players))
	}
}

func TestGroup_Deterministic(t *testing.T) {
	friends := liveRoster(4)
	liveMap := sameMatch(friends, "m9")

	first := Group(friends, liveMap)
	for i := 0; i < 10; i++ {
		again := Group(friends, liveMap)
		if len(again) != len(first) {
			t.Fatal("group count changed between runs")
		}
		for j := range again {
			if again[j].ID != first[j].ID || len(again[j].Players) != len(first[j].Players) {
				t.Fatal("grouping is not deterministic")
			}
			for k := range again[j].Players {
				if again[j].Players[k].PlayerID != first[j].Players[k].PlayerID {
					t.Fatal("player order changed between runs")
				}
			}
		}
	}
}
