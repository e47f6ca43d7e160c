package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamecatalog/internal/analytics"
	"gamecatalog/internal/catalog"
	"gamecatalog/internal/testutil"
)

func TestPostgresRepo_Reader(t *testing.T) {
	pool := testutil.PostgresPool(t)
	games := catalog.NewPostgresRepo(pool, 5*time.Second)
	reader := analytics.NewPostgresRepo(pool)
	ctx := context.Background()

	oct := time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC)
	g := &catalog.Game{SteamAppID: catalog.Int64Ptr(1), Name: "One", ReleaseDate: &oct,
		Genres: []string{"Action"}, Platforms: []string{"windows"}}
	require.NoError(t, games.UpsertDetails(ctx, g))

	released, err := reader.GamesReleasedBetween(ctx, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, g.ID, released[0].GameID)

	snapDay := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, games.UpsertSnapshot(ctx, &catalog.Snapshot{GameID: g.ID, SnapshotDate: snapDay, Followers: 42}))

	day, ok, err := reader.LatestSnapshotDate(ctx, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, snapDay.Equal(day))

	_, ok, err = reader.LatestSnapshotDate(ctx, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := reader.SnapshotsOn(ctx, snapDay)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0].Followers)
	assert.Equal(t, []string{"Action"}, rows[0].Genres)
}
