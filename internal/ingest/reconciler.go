package ingest

import (
	"context"
	"time"

	"gamecatalog/internal/catalog"
)

// Reconciler writes fetched data into the catalog. Each call commits on its
// own: a game is persisted before its snapshot is attempted.
type Reconciler struct {
	repo catalog.Repository
	now  func() time.Time
}

func NewReconciler(repo catalog.Repository, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{repo: repo, now: now}
}

// UpsertDetails inserts the game or overwrites its descriptive fields.
func (r *Reconciler) UpsertDetails(ctx context.Context, g *catalog.Game) error {
	return r.repo.UpsertDetails(ctx, g)
}

// UpsertPlaceholder creates a minimal game when the id is unknown; an
// existing game only gets its store URL refreshed.
func (r *Reconciler) UpsertPlaceholder(ctx context.Context, appID int64, name, storeURL string) (string, error) {
	return r.repo.UpsertPlaceholder(ctx, catalog.Placeholder{
		SteamAppID: appID,
		Name:       name,
		StoreURL:   storeURL,
	})
}

// RecordSnapshot stores today's (UTC) observation for gameID. A second call
// on the same day overwrites followers and payload.
func (r *Reconciler) RecordSnapshot(ctx context.Context, gameID string, followers int64, raw []byte) (catalog.Snapshot, error) {
	s := catalog.Snapshot{
		GameID:       gameID,
		SnapshotDate: catalog.Day(r.now()),
		Followers:    followers,
		RawData:      raw,
	}
	if err := r.repo.UpsertSnapshot(ctx, &s); err != nil {
		return catalog.Snapshot{}, err
	}
	return s, nil
}
