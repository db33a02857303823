package service

import (
	"testing"

	"faceit-dashboard/internal/domain"
)

func TestGroupRecordings(t *testing.T) {
	recordings := []domain.Recording{
		{Nickname: "Player1", Filename: "a.mp4"},
		{Nickname: "player1", Filename: "b.mp4"},
		{Nickname: "PLAYER2", Filename: "c.mp4"},
	}

	grouped := GroupRecordings(recordings)

	if len(grouped) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(grouped))
	}
	if got := grouped["player1"]; len(got) != 2 || got[0].Filename != "a.mp4" || got[1].Filename != "b.mp4" {
		t.Errorf("player1 bucket wrong: %+v", got)
	}
	if got := grouped["player2"]; len(got) != 1 || got[0].Filename != "c.mp4" {
		t.Errorf("player2 bucket wrong: %+v", got)
	}
}

func TestGroupRecordings_Empty(t *testing.T) {
	if got := GroupRecordings(nil); len(got) != 0 {
		t.Errorf("expected empty map, got %+v", got)
	}
}
