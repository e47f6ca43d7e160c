package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GamesReleasedBetween(ctx context.Context, start, end time.Time) ([]ReleasedGame, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, genres, platforms
		FROM games
		WHERE release_date >= $1 AND release_date < $2`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReleasedGame
	for rows.Next() {
		var g ReleasedGame
		if err := rows.Scan(&g.GameID, &g.Genres, &g.Platforms); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) LatestSnapshotDate(ctx context.Context, from, to time.Time) (time.Time, bool, error) {
	var lower *time.Time
	if !from.IsZero() {
		lower = &from
	}
	var day *time.Time
	err := r.db.QueryRow(ctx, `
		SELECT max(snapshot_date)
		FROM game_snapshots
		WHERE snapshot_date < $2
		  AND ($1::date IS NULL OR snapshot_date >= $1::date)`, lower, to).Scan(&day)
	if err != nil {
		return time.Time{}, false, err
	}
	if day == nil {
		return time.Time{}, false, nil
	}
	return day.UTC(), true, nil
}

func (r *PostgresRepo) SnapshotsOn(ctx context.Context, day time.Time) ([]SnapshotRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.game_id, g.genres, s.followers_count
		FROM game_snapshots s
		JOIN games g ON g.id = s.game_id
		WHERE s.snapshot_date = $1`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		if err := rows.Scan(&row.GameID, &row.Genres, &row.Followers); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
