package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"faceit-dashboard/internal/constants"
	"faceit-dashboard/internal/domain"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a roster lookup misses.
var ErrNotFound = errors.New("friend not found")

// ErrDuplicate is returned when adding a player already on the roster.
var ErrDuplicate = errors.New("friend already on roster")

type FriendRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewFriendRepository(db *sql.DB, logger zerolog.Logger) *FriendRepository {
	return &FriendRepository{db: db, logger: logger}
}

const friendColumns = `player_id, nickname, avatar, cover_image, level, elo, wins, win_rate, hs_rate, kd_ratio, created_at, updated_at`

func (r *FriendRepository) Get(ctx context.Context, playerID string) (*domain.Friend, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+friendColumns+` FROM friends WHERE player_id = ?`, playerID)
	return scanFriend(row)
}

func (r *FriendRepository) GetByNickname(ctx context.Context, nickname string) (*domain.Friend, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+friendColumns+` FROM friends WHERE nickname = ? COLLATE NOCASE`, nickname)
	return scanFriend(row)
}

func (r *FriendRepository) List(ctx context.Context) ([]domain.Friend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+friendColumns+` FROM friends ORDER BY created_at, player_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []domain.Friend
	for rows.Next() {
		f, err := scanFriend(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, *f)
	}
	return friends, rows.Err()
}

func (r *FriendRepository) Insert(ctx context.Context, f *domain.Friend) error {
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friends (`+friendColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.PlayerID, f.Nickname, f.Avatar, f.CoverImage, f.Level, f.Elo, f.Wins,
		f.WinRate, f.HSRate, f.KDRatio, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert friend %s: %w", f.PlayerID, err)
	}
	return nil
}

func (r *FriendRepository) Upsert(ctx context.Context, f *domain.Friend) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friends (`+friendColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (player_id) DO UPDATE SET
			nickname = excluded.nickname,
			avatar = excluded.avatar,
			cover_image = excluded.cover_image,
			level = excluded.level,
			elo = excluded.elo,
			wins = excluded.wins,
			win_rate = excluded.win_rate,
			hs_rate = excluded.hs_rate,
			kd_ratio = excluded.kd_ratio,
			updated_at = excluded.updated_at`,
		f.PlayerID, f.Nickname, f.Avatar, f.CoverImage, f.Level, f.Elo, f.Wins,
		f.WinRate, f.HSRate, f.KDRatio, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert friend %s: %w", f.PlayerID, err)
	}
	return nil
}

// UpsertBatch writes roster updates in one transaction, chunked so a huge
// roster cannot hold the write lock for the whole pass.
func (r *FriendRepository) UpsertBatch(ctx context.Context, friends []domain.Friend) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i := 0; i < len(friends); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(friends))
		for _, f := range friends[i:end] {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO friends (`+friendColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (player_id) DO UPDATE SET
					nickname = excluded.nickname,
					avatar = excluded.avatar,
					cover_image = excluded.cover_image,
					level = excluded.level,
					elo = excluded.elo,
					wins = excluded.wins,
					win_rate = excluded.win_rate,
					hs_rate = excluded.hs_rate,
					kd_ratio = excluded.kd_ratio,
					updated_at = excluded.updated_at`,
				f.PlayerID, f.Nickname, f.Avatar, f.CoverImage, f.Level, f.Elo, f.Wins,
				f.WinRate, f.HSRate, f.KDRatio, now, now)
			if err != nil {
				return fmt.Errorf("failed to upsert friend %s: %w", f.PlayerID, err)
			}
		}
	}

	return tx.Commit()
}

func (r *FriendRepository) Delete(ctx context.Context, playerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friends WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("failed to delete friend %s: %w", playerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFriend(row rowScanner) (*domain.Friend, error) {
	var f domain.Friend
	err := row.Scan(&f.PlayerID, &f.Nickname, &f.Avatar, &f.CoverImage, &f.Level,
		&f.Elo, &f.Wins, &f.WinRate, &f.HSRate, &f.KDRatio, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
