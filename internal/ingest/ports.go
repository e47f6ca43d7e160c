package ingest

import (
	"context"

	"gamecatalog/internal/platform/steam"
)

// SteamClient is the upstream surface the pipeline needs.
type SteamClient interface {
	AppDetails(ctx context.Context, appID int64) (steam.Response, error)
	StorePage(ctx context.Context, appID int64) (steam.Response, error)
	AppURL(appID int64) string
	PageURL(appID int64) string
}

// Gate reports whether the store pages may be scraped.
type Gate interface {
	Allowed(ctx context.Context) bool
}

// PopularityExtractor reads a follower count from a raw page. 0 means unknown.
type PopularityExtractor interface {
	Extract(raw []byte) int64
}

// WorkSource yields the app ids to synchronize.
type WorkSource interface {
	AppIDs(ctx context.Context) ([]int64, error)
}

type RunRepository interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
