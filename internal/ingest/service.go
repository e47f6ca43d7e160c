package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"gamecatalog/internal/catalog"
	"gamecatalog/internal/platform/steam"
)

// Deps groups the collaborators of a Service. Runs may be nil.
type Deps struct {
	Client     SteamClient
	Gate       Gate
	Popularity PopularityExtractor
	Reconciler *Reconciler
	Work       WorkSource
	Runs       RunRepository
	Logger     *slog.Logger
	Now        func() time.Time
	// Meters defaults to the global provider.
	Meters metric.MeterProvider
}

type Service struct {
	client     SteamClient
	gate       Gate
	popularity PopularityExtractor
	rec        *Reconciler
	work       WorkSource
	runs       RunRepository
	logger     *slog.Logger
	now        func() time.Time
	metrics    *syncMetrics

	manual atomic.Bool
	bg     sync.WaitGroup
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		client:     d.Client,
		gate:       d.Gate,
		popularity: d.Popularity,
		rec:        d.Reconciler,
		work:       d.Work,
		runs:       d.Runs,
		logger:     d.Logger,
		now:        d.Now,
		metrics:    newSyncMetrics(d.Meters),
	}
}

// FetchOne synchronizes a single app. The structured API is tried first; any
// failure there falls back to scraping the store page, which is only done
// when robots.txt allows it.
func (s *Service) FetchOne(ctx context.Context, appID int64) (Result, error) {
	resp, err := s.client.AppDetails(ctx, appID)
	var reason string
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		reason = err.Error()
	case !resp.OK():
		reason = fmt.Sprintf("status %d", resp.Status)
	default:
		details, perr := steam.ParseAppDetails(appID, resp.Body)
		if perr == nil {
			return s.storeDetails(ctx, details, resp.Body)
		}
		reason = perr.Error()
	}

	s.logger.Info("structured fetch unusable, falling back to store page", "app_id", appID, "reason", reason)
	return s.fallback(ctx, appID)
}

func (s *Service) storeDetails(ctx context.Context, d steam.AppDetails, raw []byte) (Result, error) {
	g := &catalog.Game{
		SteamAppID:       catalog.Int64Ptr(d.AppID),
		Name:             d.Name,
		ShortDescription: d.ShortDescription,
		FullDescription:  d.DetailedDescription,
		ReleaseDate:      d.ReleaseDate,
		Price:            d.Price,
		MetacriticScore:  d.MetacriticScore,
		Genres:           d.Genres,
		Platforms:        d.Platforms,
		StoreURL:         s.client.AppURL(d.AppID),
		HeaderImageURL:   d.HeaderImage,
		IsComingSoon:     d.ComingSoon,
	}
	if err := s.rec.UpsertDetails(ctx, g); err != nil {
		return Result{}, err
	}
	// The API carries no follower count.
	snap, err := s.rec.RecordSnapshot(ctx, g.ID, 0, raw)
	if err != nil {
		return Result{}, err
	}
	return Result{AppID: d.AppID, Outcome: OutcomeStructured, GameID: g.ID, Followers: snap.Followers}, nil
}

func (s *Service) fallback(ctx context.Context, appID int64) (Result, error) {
	if !s.gate.Allowed(ctx) {
		s.logger.Warn("robots.txt disallows store page, skipping", "app_id", appID)
		return Result{AppID: appID, Outcome: OutcomeSkipped}, nil
	}

	page, err := s.client.StorePage(ctx, appID)
	if err != nil {
		return Result{}, err
	}
	if !page.OK() {
		return Result{}, fmt.Errorf("store page for app %d: status %d", appID, page.Status)
	}

	followers := s.popularity.Extract(page.Body)
	gameID, err := s.rec.UpsertPlaceholder(ctx, appID, fmt.Sprintf("App %d", appID), s.client.PageURL(appID))
	if err != nil {
		return Result{}, err
	}
	if _, err := s.rec.RecordSnapshot(ctx, gameID, followers, page.Body); err != nil {
		return Result{}, err
	}
	return Result{AppID: appID, Outcome: OutcomeFallback, GameID: gameID, Followers: followers}, nil
}

// SyncMany processes every id from the work source in order. Failures are
// counted and logged per id and never abort the pass; cancellation stops it
// between ids.
func (s *Service) SyncMany(ctx context.Context, trigger string) (run Run, err error) {
	run = Run{Trigger: trigger, StartedAt: s.now().UTC(), Status: StatusRunning}
	if s.runs != nil {
		if cErr := s.runs.CreateRun(ctx, &run); cErr != nil {
			s.logger.Warn("create sync run failed", "error", cErr)
		}
	}

	defer func() {
		finished := s.now().UTC()
		run.FinishedAt = &finished
		switch {
		case err != nil:
			run.Status = StatusFailed
			run.Error = err.Error()
		case ctx.Err() != nil:
			run.Status = StatusCancelled
		default:
			run.Status = StatusCompleted
		}
		if s.runs != nil && run.ID != "" {
			// The run row is written even when ctx was cancelled.
			uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if uErr := s.runs.UpdateRun(uctx, &run); uErr != nil {
				s.logger.Warn("update sync run failed", "run_id", run.ID, "error", uErr)
			}
			cancel()
		}
		s.metrics.finished(ctx, &run)
		s.logger.Info("sync finished",
			"run_id", run.ID,
			"trigger", run.Trigger,
			"status", run.Status,
			"processed", run.Processed,
			"succeeded", run.Succeeded,
			"failed", run.Failed,
			"skipped", run.Skipped,
		)
	}()

	ids, err := s.work.AppIDs(ctx)
	if err != nil {
		return run, fmt.Errorf("load work list: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		res, ferr := s.FetchOne(ctx, id)
		if ferr != nil && ctx.Err() != nil {
			break
		}
		run.Processed++
		if ferr != nil {
			run.Failed++
			s.metrics.failed(ctx)
			s.logger.Error("sync app failed", "app_id", id, "error", ferr)
			continue
		}
		s.metrics.fetched(ctx, res.Outcome)
		if res.Outcome == OutcomeSkipped {
			run.Skipped++
			continue
		}
		run.Succeeded++
		s.logger.Debug("synced app", "app_id", id, "outcome", res.Outcome, "game_id", res.GameID, "followers", res.Followers)
	}
	return run, nil
}

// TriggerManual starts a detached SyncMany on base and returns immediately.
// Only one manual pass may be in flight.
func (s *Service) TriggerManual(base context.Context) (time.Time, error) {
	if !s.manual.CompareAndSwap(false, true) {
		return time.Time{}, ErrSyncInProgress
	}
	started := s.now().UTC()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer s.manual.Store(false)
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("manual sync panicked", "panic", p)
			}
		}()
		if _, err := s.SyncMany(base, TriggerManual); err != nil {
			s.logger.Error("manual sync failed", "error", err)
		}
	}()
	return started, nil
}

// Wait blocks until background manual passes have returned.
func (s *Service) Wait() { s.bg.Wait() }

func (s *Service) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRuns(ctx, limit)
}
