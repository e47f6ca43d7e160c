package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gamecatalog/internal/catalog"
	"gamecatalog/internal/config"
	"gamecatalog/internal/ingest"
	"gamecatalog/internal/platform/logging"
	"gamecatalog/internal/store"
)

var (
	genres    = []string{"Action", "Adventure", "Casual", "Indie", "RPG", "Simulation", "Strategy", "Sports", "Racing", "Free to Play"}
	platforms = []string{"windows", "mac", "linux"}
)

func main() {
	var (
		count = flag.Int("games", 200, "Number of games to generate")
		days  = flag.Int("days", 120, "Days of follower history per game")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer closeRepo()

	if err := seed(ctx, repo, *count, *days, time.Now().UTC(), logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func openRepository(ctx context.Context, cfg config.Config) (catalog.Repository, func(), error) {
	if cfg.DBDriver == config.DriverSQLite {
		db, err := store.OpenSQLite(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewPostgresRepo(pool, cfg.DBTimeout), pool.Close, nil
}

// seed writes count synthetic games released over the last year, each with
// a daily follower series ending today.
func seed(ctx context.Context, repo catalog.Repository, count, days int, now time.Time, logger *slog.Logger) error {
	rng := rand.New(rand.NewSource(42))
	logger.Info("generating games", "count", count, "days", days)

	for i := 0; i < count; i++ {
		appID := int64(900000 + i)
		release := catalog.Day(now.AddDate(0, 0, -rng.Intn(365)))
		price := decimal.New(int64(rng.Intn(6000)), -2)

		g := &catalog.Game{
			SteamAppID:       catalog.Int64Ptr(appID),
			Name:             fmt.Sprintf("Seed Game %d", i+1),
			ShortDescription: "Generated for local development.",
			ReleaseDate:      &release,
			Price:            decimal.NewNullDecimal(price),
			Genres:           pick(rng, genres, 1+rng.Intn(3)),
			Platforms:        pick(rng, platforms, 1+rng.Intn(3)),
			StoreURL:         fmt.Sprintf("https://store.steampowered.com/app/%d", appID),
		}
		if err := repo.UpsertDetails(ctx, g); err != nil {
			return err
		}

		followers := int64(100 + rng.Intn(50000))
		for d := days - 1; d >= 0; d-- {
			day := now.AddDate(0, 0, -d)
			rec := ingest.NewReconciler(repo, func() time.Time { return day })
			followers += int64(rng.Intn(200) - 50)
			if followers < 0 {
				followers = 0
			}
			if _, err := rec.RecordSnapshot(ctx, g.ID, followers, nil); err != nil {
				return err
			}
		}

		if (i+1)%50 == 0 {
			logger.Info("seed progress", "games", i+1, "total", count)
		}
	}
	logger.Info("seed complete", "games", count)
	return nil
}

func pick(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}
