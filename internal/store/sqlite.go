// Package store provides an embedded SQLite backend implementing the catalog,
// analytics and sync run repositories in one file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"gamecatalog/internal/analytics"
	"gamecatalog/internal/catalog"
	"gamecatalog/internal/ingest"
)

const (
	dayLayout = "2006-01-02"
	// Fixed width so timestamps sort lexically.
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

// SQLite wraps *sql.DB on modernc.org/sqlite (pure Go).
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens path (":memory:" is fine) and creates the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: serializes writers and keeps :memory: a single database.
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) migrate() error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			steam_app_id INTEGER UNIQUE,
			name TEXT NOT NULL,
			slug TEXT NOT NULL DEFAULT '',
			short_description TEXT NOT NULL DEFAULT '',
			full_description TEXT NOT NULL DEFAULT '',
			release_date TEXT,
			price TEXT,
			metacritic_score INTEGER,
			genres TEXT NOT NULL DEFAULT '[]',
			platforms TEXT NOT NULL DEFAULT '[]',
			store_url TEXT NOT NULL DEFAULT '',
			header_image_url TEXT NOT NULL DEFAULT '',
			is_coming_soon INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_release_date ON games(release_date)`,
		`CREATE TABLE IF NOT EXISTS game_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL REFERENCES games(id),
			snapshot_date TEXT NOT NULL,
			followers_count INTEGER NOT NULL DEFAULT 0,
			raw_data BLOB,
			created_at TEXT NOT NULL,
			UNIQUE (game_id, snapshot_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_snapshots_date ON game_snapshots(snapshot_date)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			trigger TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			processed INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLite) stamp() string { return s.now().UTC().Format(tsLayout) }

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

func decodeTags(raw string) ([]string, error) {
	var tags []string
	if raw == "" {
		return []string{}, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags %q: %w", raw, err)
	}
	return tags, nil
}

func nullDay(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(dayLayout), Valid: true}
}

// Catalog repository.

const gameColumns = `id, steam_app_id, name, slug, short_description, full_description,
		release_date, price, metacritic_score, genres, platforms, store_url, header_image_url, is_coming_soon,
		created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) GetByAppID(ctx context.Context, appID int64) (catalog.Game, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE steam_app_id = ?`, appID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Game{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Game{}, fmt.Errorf("get game %d: %w", appID, err)
	}
	return g, nil
}

func (s *SQLite) ListReleasedBetween(ctx context.Context, start, end time.Time) ([]catalog.Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games
		WHERE release_date >= ? AND release_date < ?
		ORDER BY release_date, name`,
		start.UTC().Format(dayLayout), end.UTC().Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("query games by release: %w", err)
	}
	defer rows.Close()

	var out []catalog.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan games by release: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGame(row rowScanner) (catalog.Game, error) {
	var (
		g                    catalog.Game
		steamID              sql.NullInt64
		release, price       sql.NullString
		metacritic           sql.NullInt64
		genres, platforms    string
		createdAt, updatedAt string
	)
	err := row.Scan(&g.ID, &steamID, &g.Name, &g.Slug, &g.ShortDescription, &g.FullDescription,
		&release, &price, &metacritic, &genres, &platforms, &g.StoreURL, &g.HeaderImageURL, &g.IsComingSoon,
		&createdAt, &updatedAt)
	if err != nil {
		return catalog.Game{}, err
	}

	if steamID.Valid {
		g.SteamAppID = catalog.Int64Ptr(steamID.Int64)
	}
	if release.Valid {
		if t, err := time.Parse(dayLayout, release.String); err == nil {
			g.ReleaseDate = &t
		}
	}
	if price.Valid {
		d, err := decimal.NewFromString(price.String)
		if err != nil {
			return catalog.Game{}, fmt.Errorf("parse price %q: %w", price.String, err)
		}
		g.Price = decimal.NewNullDecimal(d)
	}
	if metacritic.Valid {
		v := int(metacritic.Int64)
		g.MetacriticScore = &v
	}
	if g.Genres, err = decodeTags(genres); err != nil {
		return catalog.Game{}, err
	}
	if g.Platforms, err = decodeTags(platforms); err != nil {
		return catalog.Game{}, err
	}
	g.CreatedAt, _ = time.Parse(tsLayout, createdAt)
	g.UpdatedAt, _ = time.Parse(tsLayout, updatedAt)
	return g, nil
}

func (s *SQLite) UpsertDetails(ctx context.Context, g *catalog.Game) error {
	if g.SteamAppID == nil {
		return errors.New("upsert game: steam app id required")
	}
	genres, err := encodeTags(g.Genres)
	if err != nil {
		return err
	}
	platforms, err := encodeTags(g.Platforms)
	if err != nil {
		return err
	}
	var price sql.NullString
	if g.Price.Valid {
		price = sql.NullString{String: g.Price.Decimal.StringFixed(2), Valid: true}
	}
	var metacritic sql.NullInt64
	if g.MetacriticScore != nil {
		metacritic = sql.NullInt64{Int64: int64(*g.MetacriticScore), Valid: true}
	}

	now := s.stamp()
	var createdAt, updatedAt string
	err = s.db.QueryRowContext(ctx, `INSERT INTO games (id, steam_app_id, name, slug, short_description,
			full_description, release_date, price, metacritic_score, genres, platforms, store_url,
			header_image_url, is_coming_soon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(steam_app_id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			short_description = excluded.short_description,
			full_description = CASE WHEN excluded.full_description <> '' THEN excluded.full_description ELSE games.full_description END,
			release_date = COALESCE(excluded.release_date, games.release_date),
			price = COALESCE(excluded.price, games.price),
			metacritic_score = COALESCE(excluded.metacritic_score, games.metacritic_score),
			genres = CASE WHEN json_array_length(excluded.genres) > 0 THEN excluded.genres ELSE games.genres END,
			platforms = CASE WHEN json_array_length(excluded.platforms) > 0 THEN excluded.platforms ELSE games.platforms END,
			store_url = excluded.store_url,
			header_image_url = excluded.header_image_url,
			is_coming_soon = excluded.is_coming_soon,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at`,
		uuid.NewString(), *g.SteamAppID, g.Name, catalog.Slugify(g.Name), g.ShortDescription,
		g.FullDescription, nullDay(g.ReleaseDate), price, metacritic, genres, platforms, g.StoreURL,
		g.HeaderImageURL, g.IsComingSoon, now, now,
	).Scan(&g.ID, &createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("upsert game %d: %w", *g.SteamAppID, err)
	}
	g.CreatedAt, _ = time.Parse(tsLayout, createdAt)
	g.UpdatedAt, _ = time.Parse(tsLayout, updatedAt)
	return nil
}

func (s *SQLite) UpsertPlaceholder(ctx context.Context, p catalog.Placeholder) (string, error) {
	now := s.stamp()
	var id string
	err := s.db.QueryRowContext(ctx, `INSERT INTO games (id, steam_app_id, name, slug, store_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(steam_app_id) DO UPDATE SET
			store_url = excluded.store_url,
			updated_at = excluded.updated_at
		RETURNING id`,
		uuid.NewString(), p.SteamAppID, p.Name, catalog.Slugify(p.Name), p.StoreURL, now, now,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert placeholder game %d: %w", p.SteamAppID, err)
	}
	return id, nil
}

func (s *SQLite) UpsertSnapshot(ctx context.Context, snap *catalog.Snapshot) error {
	day := catalog.Day(snap.SnapshotDate)
	var createdAt string
	err := s.db.QueryRowContext(ctx, `INSERT INTO game_snapshots (game_id, snapshot_date, followers_count, raw_data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(game_id, snapshot_date) DO UPDATE SET
			followers_count = excluded.followers_count,
			raw_data = excluded.raw_data
		RETURNING id, created_at`,
		snap.GameID, day.Format(dayLayout), snap.Followers, snap.RawData, s.stamp(),
	).Scan(&snap.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot for game %s: %w", snap.GameID, err)
	}
	snap.SnapshotDate = day
	snap.CreatedAt, _ = time.Parse(tsLayout, createdAt)
	return nil
}

func (s *SQLite) ListSnapshots(ctx context.Context, gameID string) ([]catalog.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, game_id, snapshot_date, followers_count, raw_data, created_at
		FROM game_snapshots WHERE game_id = ? ORDER BY snapshot_date`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []catalog.Snapshot
	for rows.Next() {
		var snap catalog.Snapshot
		var day, createdAt string
		if err := rows.Scan(&snap.ID, &snap.GameID, &day, &snap.Followers, &snap.RawData, &createdAt); err != nil {
			return nil, fmt.Errorf("scan snapshots: %w", err)
		}
		snap.SnapshotDate, _ = time.Parse(dayLayout, day)
		snap.CreatedAt, _ = time.Parse(tsLayout, createdAt)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Analytics reader.

func (s *SQLite) GamesReleasedBetween(ctx context.Context, start, end time.Time) ([]analytics.ReleasedGame, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, genres, platforms FROM games
		WHERE release_date >= ? AND release_date < ?`,
		start.UTC().Format(dayLayout), end.UTC().Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("query released games: %w", err)
	}
	defer rows.Close()

	var out []analytics.ReleasedGame
	for rows.Next() {
		var g analytics.ReleasedGame
		var genres, platforms string
		if err := rows.Scan(&g.GameID, &genres, &platforms); err != nil {
			return nil, fmt.Errorf("scan released games: %w", err)
		}
		if g.Genres, err = decodeTags(genres); err != nil {
			return nil, err
		}
		if g.Platforms, err = decodeTags(platforms); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLite) LatestSnapshotDate(ctx context.Context, from, to time.Time) (time.Time, bool, error) {
	lower := ""
	if !from.IsZero() {
		lower = from.UTC().Format(dayLayout)
	}
	var day sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(snapshot_date) FROM game_snapshots
		WHERE snapshot_date < ? AND snapshot_date >= ?`, to.UTC().Format(dayLayout), lower).Scan(&day)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query latest snapshot date: %w", err)
	}
	if !day.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(dayLayout, day.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (s *SQLite) SnapshotsOn(ctx context.Context, day time.Time) ([]analytics.SnapshotRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.game_id, g.genres, s.followers_count
		FROM game_snapshots s JOIN games g ON g.id = s.game_id
		WHERE s.snapshot_date = ?`, day.UTC().Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("query snapshots on %s: %w", day.Format(dayLayout), err)
	}
	defer rows.Close()

	var out []analytics.SnapshotRow
	for rows.Next() {
		var r analytics.SnapshotRow
		var genres string
		if err := rows.Scan(&r.GameID, &genres, &r.Followers); err != nil {
			return nil, fmt.Errorf("scan snapshot rows: %w", err)
		}
		if r.Genres, err = decodeTags(genres); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Sync runs.

func (s *SQLite) CreateRun(ctx context.Context, run *ingest.Run) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO sync_runs (id, trigger, status, started_at) VALUES (?, ?, ?, ?)`,
		id, run.Trigger, run.Status, run.StartedAt.UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}
	run.ID = id
	return nil
}

func (s *SQLite) UpdateRun(ctx context.Context, run *ingest.Run) error {
	var finished sql.NullString
	if run.FinishedAt != nil {
		finished = sql.NullString{String: run.FinishedAt.UTC().Format(tsLayout), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `UPDATE sync_runs SET finished_at = ?, status = ?, processed = ?,
		succeeded = ?, failed = ?, skipped = ?, error = ? WHERE id = ?`,
		finished, run.Status, run.Processed, run.Succeeded, run.Failed, run.Skipped, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("update sync run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]ingest.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, trigger, started_at, finished_at, status,
		processed, succeeded, failed, skipped, error
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var out []ingest.Run
	for rows.Next() {
		var run ingest.Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&run.ID, &run.Trigger, &started, &finished, &run.Status,
			&run.Processed, &run.Succeeded, &run.Failed, &run.Skipped, &run.Error); err != nil {
			return nil, fmt.Errorf("scan sync runs: %w", err)
		}
		run.StartedAt, _ = time.Parse(tsLayout, started)
		if finished.Valid {
			t, _ := time.Parse(tsLayout, finished.String)
			run.FinishedAt = &t
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
