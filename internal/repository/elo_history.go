package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"faceit-dashboard/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type EloHistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewEloHistoryRepository(db *sql.DB, logger zerolog.Logger) *EloHistoryRepository {
	return &EloHistoryRepository{db: db, logger: logger}
}

// Record appends one observed ELO change for a friend.
func (r *EloHistoryRepository) Record(ctx context.Context, playerID string, elo, eloDiff int) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate history id: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO elo_history (id, player_id, elo, elo_diff, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		id, playerID, elo, eloDiff, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record elo history for %s: %w", playerID, err)
	}

	r.logger.Debug().
		Str("player_id", playerID).
		Int("elo", elo).
		Int("elo_diff", eloDiff).
		Msg("elo change recorded")
	return nil
}

// ListByPlayer returns the most recent entries for a friend, newest first.
func (r *EloHistoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]domain.EloHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, player_id, elo, elo_diff, recorded_at
		 FROM elo_history WHERE player_id = ?
		 ORDER BY recorded_at DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list elo history for %s: %w", playerID, err)
	}
	defer rows.Close()

	var entries []domain.EloHistoryEntry
	for rows.Next() {
		var e domain.EloHistoryEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Elo, &e.EloDiff, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
