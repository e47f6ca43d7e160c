package analytics

import (
	"context"
	"time"
)

// Reader is the read side the aggregator needs. Day values are UTC midnights.
type Reader interface {
	// GamesReleasedBetween returns games whose release date is in [start, end).
	GamesReleasedBetween(ctx context.Context, start, end time.Time) ([]ReleasedGame, error)
	// LatestSnapshotDate returns the latest snapshot day in [from, to). A
	// zero from means no lower bound. ok is false when there is none.
	LatestSnapshotDate(ctx context.Context, from, to time.Time) (day time.Time, ok bool, err error)
	SnapshotsOn(ctx context.Context, day time.Time) ([]SnapshotRow, error)
}
