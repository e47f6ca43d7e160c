package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"gamecatalog/internal/analytics"
	"gamecatalog/internal/catalog"
	"gamecatalog/internal/config"
	"gamecatalog/internal/httpx"
	"gamecatalog/internal/ingest"
	"gamecatalog/internal/platform/logging"
	"gamecatalog/internal/platform/steam"
	"gamecatalog/internal/platform/telemetry"
	"gamecatalog/internal/resilience"
	"gamecatalog/internal/store"
)

// repositories bundles the storage ports for whichever driver is configured.
type repositories struct {
	db        pinger
	games     catalog.Repository
	analytics analytics.Reader
	runs      ingest.RunRepository
	close     func()
}

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	tel, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		ServiceName: cfg.OTelServiceName,
		Interval:    cfg.OTelExportInterval,
	}, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "err", err)
		}
	}()

	// Retry and breaker sit outside the governor so every attempt is spaced.
	transport := &http.Client{Timeout: cfg.SteamTimeout}
	governed := resilience.NewGovernor(cfg.SteamRequestDelay).Wrap(transport)
	policy := resilience.NewPolicy(governed, resilience.PolicyConfig{
		Name:            "steam",
		RetryCount:      cfg.SteamRetryCount,
		BackoffBase:     cfg.SteamBackoffBase,
		BreakerFailures: cfg.SteamBreakerFailures,
		BreakerOpen:     cfg.SteamBreakerOpen,
	}, logger)
	client := steam.NewClient(policy, cfg.SteamBaseURL, cfg.SteamUserAgent)
	gate, err := steam.NewGate(client, cfg.SteamUserAgent, cfg.RobotsCacheTTL, logger)
	if err != nil {
		return fmt.Errorf("robots gate: %w", err)
	}

	var work ingest.WorkSource = ingest.StaticList(cfg.SyncAppIDs)
	if cfg.SyncWorklistFile != "" {
		work = ingest.FileList{Path: cfg.SyncWorklistFile}
	}

	syncSvc := ingest.NewService(ingest.Deps{
		Client:     client,
		Gate:       gate,
		Popularity: steam.HTMLPopularity{},
		Reconciler: ingest.NewReconciler(repos.games, time.Now),
		Work:       work,
		Runs:       repos.runs,
		Logger:     logger,
		Meters:     tel.MeterProvider(),
	})

	limiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := newRouter(routerDeps{
		DB:             repos.db,
		Catalog:        catalog.NewHTTPHandler(catalog.NewService(repos.games)),
		Analytics:      analytics.NewHTTPHandler(analytics.NewService(repos.analytics, time.Now, logger)),
		Jobs:           ingest.NewHTTPHandler(ctx, syncSvc),
		InternalSecret: cfg.InternalSecret,
		Limiter:        limiter,
		Logger:         logger,
	})
	if cfg.InternalSecret == "" {
		logger.Warn("INTERNAL_SECRET is empty, internal job endpoints are unauthenticated")
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.Addr, "db_driver", cfg.DBDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	if cfg.SyncEnabled {
		scheduler := ingest.NewScheduler(syncSvc, cfg.SyncInterval, true, logger)
		g.Go(func() error { return scheduler.Run(gctx) })
	} else {
		logger.Info("periodic sync disabled")
	}

	err = g.Wait()
	// Manual passes hold the base context and stop with it.
	syncSvc.Wait()
	logger.Info("shutdown complete")
	return err
}

func openRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.DBDriver == config.DriverSQLite {
		db, err := store.OpenSQLite(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("database connection OK", "driver", cfg.DBDriver, "path", cfg.DBDSN)
		return &repositories{
			db:        db,
			games:     db,
			analytics: db,
			runs:      db,
			close:     func() { _ = db.Close() },
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", redactDSN(cfg.DBDSN), err)
	}
	logger.Info("database connection OK", "driver", cfg.DBDriver)
	return &repositories{
		db:        pool,
		games:     catalog.NewPostgresRepo(pool, cfg.DBTimeout),
		analytics: analytics.NewPostgresRepo(pool),
		runs:      ingest.NewPostgresRepo(pool),
		close:     pool.Close,
	}, nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
