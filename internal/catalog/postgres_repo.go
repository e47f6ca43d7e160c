package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

const gameColumns = `id, steam_app_id, name, slug, short_description, full_description, release_date,
		price::text, metacritic_score, genres, platforms, store_url, header_image_url, is_coming_soon,
		created_at, updated_at`

func (r *PostgresRepo) GetByAppID(ctx context.Context, appID int64) (Game, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, "SELECT "+gameColumns+" FROM games WHERE steam_app_id = $1", appID)
	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Game{}, ErrNotFound
		}
		return Game{}, err
	}
	return g, nil
}

func (r *PostgresRepo) UpsertDetails(ctx context.Context, g *Game) error {
	if g.SteamAppID == nil {
		return errors.New("upsert game: steam app id required")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		INSERT INTO games (id, steam_app_id, name, slug, short_description, full_description, release_date,
			price, metacritic_score, genres, platforms, store_url, header_image_url, is_coming_soon,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12, $13, $14, now(), now())
		ON CONFLICT (steam_app_id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			short_description = EXCLUDED.short_description,
			full_description = CASE WHEN EXCLUDED.full_description <> '' THEN EXCLUDED.full_description ELSE games.full_description END,
			release_date = COALESCE(EXCLUDED.release_date, games.release_date),
			price = COALESCE(EXCLUDED.price, games.price),
			metacritic_score = COALESCE(EXCLUDED.metacritic_score, games.metacritic_score),
			genres = CASE WHEN cardinality(EXCLUDED.genres) > 0 THEN EXCLUDED.genres ELSE games.genres END,
			platforms = CASE WHEN cardinality(EXCLUDED.platforms) > 0 THEN EXCLUDED.platforms ELSE games.platforms END,
			store_url = EXCLUDED.store_url,
			header_image_url = EXCLUDED.header_image_url,
			is_coming_soon = EXCLUDED.is_coming_soon,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		uuid.NewString(), *g.SteamAppID, g.Name, Slugify(g.Name), g.ShortDescription, g.FullDescription,
		g.ReleaseDate, priceParam(g.Price), g.MetacriticScore, nonNil(g.Genres), nonNil(g.Platforms),
		g.StoreURL, g.HeaderImageURL, g.IsComingSoon,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert game %d: %w", *g.SteamAppID, err)
	}
	return nil
}

func (r *PostgresRepo) UpsertPlaceholder(ctx context.Context, p Placeholder) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		INSERT INTO games (id, steam_app_id, name, slug, store_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (steam_app_id) DO UPDATE SET
			store_url = EXCLUDED.store_url,
			updated_at = now()
		RETURNING id`

	var id string
	err := r.db.QueryRow(ctx, sql, uuid.NewString(), p.SteamAppID, p.Name, Slugify(p.Name), p.StoreURL).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert placeholder game %d: %w", p.SteamAppID, err)
	}
	return id, nil
}

func (r *PostgresRepo) UpsertSnapshot(ctx context.Context, s *Snapshot) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		INSERT INTO game_snapshots (game_id, snapshot_date, followers_count, raw_data, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (game_id, snapshot_date) DO UPDATE SET
			followers_count = EXCLUDED.followers_count,
			raw_data = EXCLUDED.raw_data
		RETURNING id, created_at`

	day := Day(s.SnapshotDate)
	err := r.db.QueryRow(ctx, sql, s.GameID, day, s.Followers, rawParam(s.RawData)).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot for game %s: %w", s.GameID, err)
	}
	s.SnapshotDate = day
	return nil
}

func (r *PostgresRepo) ListSnapshots(ctx context.Context, gameID string) ([]Snapshot, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, game_id, snapshot_date, followers_count, raw_data, created_at
		FROM game_snapshots
		WHERE game_id = $1
		ORDER BY snapshot_date ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.GameID, &s.SnapshotDate, &s.Followers, &s.RawData, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListReleasedBetween(ctx context.Context, start, end time.Time) ([]Game, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, "SELECT "+gameColumns+` FROM games
		WHERE release_date >= $1 AND release_date < $2
		ORDER BY release_date ASC, name ASC`, Day(start), Day(end))
	if err != nil {
		return nil, fmt.Errorf("query games by release: %w", err)
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ScanGame reads a row selected with the standard game column list.
func scanGame(row pgx.Row) (Game, error) {
	var g Game
	var price *string
	var metacritic *int32
	if err := row.Scan(
		&g.ID, &g.SteamAppID, &g.Name, &g.Slug, &g.ShortDescription, &g.FullDescription, &g.ReleaseDate,
		&price, &metacritic, &g.Genres, &g.Platforms, &g.StoreURL, &g.HeaderImageURL, &g.IsComingSoon,
		&g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return Game{}, err
	}
	if price != nil {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return Game{}, fmt.Errorf("parse price %q: %w", *price, err)
		}
		g.Price = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	if metacritic != nil {
		v := int(*metacritic)
		g.MetacriticScore = &v
	}
	return g, nil
}

func priceParam(p decimal.NullDecimal) *string {
	if !p.Valid {
		return nil
	}
	s := p.Decimal.StringFixed(2)
	return &s
}

// rawParam keeps payloads as bytes; pages are not guaranteed to be UTF-8.
func rawParam(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
