package catalog

import (
	"context"
	"time"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=catalog

// Repository defines the contract for catalog storage.
//
// UpsertDetails and UpsertPlaceholder resolve a game by its Steam app id.
// UpsertSnapshot keeps at most one row per game and UTC day.
// ListReleasedBetween returns games released in [start, end), ordered by
// release date then name.
type Repository interface {
	GetByAppID(ctx context.Context, appID int64) (Game, error)
	UpsertDetails(ctx context.Context, g *Game) error
	UpsertPlaceholder(ctx context.Context, p Placeholder) (string, error)
	UpsertSnapshot(ctx context.Context, s *Snapshot) error
	ListSnapshots(ctx context.Context, gameID string) ([]Snapshot, error)
	ListReleasedBetween(ctx context.Context, start, end time.Time) ([]Game, error)
}
