package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamecatalog/internal/catalog"
	"gamecatalog/internal/ingest"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLite_UpsertDetailsIsIdempotent(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	release := day(2022, 2, 25)
	score := 88

	g := &catalog.Game{
		SteamAppID:      catalog.Int64Ptr(1675200),
		Name:            "Steam Deck",
		ReleaseDate:     &release,
		Price:           decimal.NewNullDecimal(decimal.RequireFromString("349.00")),
		MetacriticScore: &score,
		Genres:          []string{"Action"},
		Platforms:       []string{"linux"},
		StoreURL:        "https://store.example/app/1675200",
	}
	require.NoError(t, s.UpsertDetails(ctx, g))
	firstID := g.ID
	require.NotEmpty(t, firstID)

	again := &catalog.Game{
		SteamAppID: catalog.Int64Ptr(1675200),
		Name:       "Steam Deck OLED",
		StoreURL:   "https://store.example/app/1675200",
	}
	require.NoError(t, s.UpsertDetails(ctx, again))
	assert.Equal(t, firstID, again.ID)

	got, err := s.GetByAppID(ctx, 1675200)
	require.NoError(t, err)
	assert.Equal(t, "Steam Deck OLED", got.Name)
	assert.Equal(t, "steam-deck-oled", got.Slug)
	// Fields absent from the second payload are kept.
	require.NotNil(t, got.ReleaseDate)
	assert.Equal(t, release, *got.ReleaseDate)
	assert.Equal(t, []string{"Action"}, got.Genres)
	assert.Equal(t, "349.00", got.Price.Decimal.StringFixed(2))
	assert.Equal(t, 88, *got.MetacriticScore)
}

func TestSQLite_PlaceholderKeepsExistingName(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	g := &catalog.Game{SteamAppID: catalog.Int64Ptr(10), Name: "Counter-Strike", StoreURL: "https://store.example/app/10"}
	require.NoError(t, s.UpsertDetails(ctx, g))

	id, err := s.UpsertPlaceholder(ctx, catalog.Placeholder{SteamAppID: 10, Name: "App 10", StoreURL: "https://store.example/app/10/"})
	require.NoError(t, err)
	assert.Equal(t, g.ID, id)

	got, err := s.GetByAppID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Counter-Strike", got.Name)
	assert.Equal(t, "https://store.example/app/10/", got.StoreURL)

	newID, err := s.UpsertPlaceholder(ctx, catalog.Placeholder{SteamAppID: 20, Name: "App 20", StoreURL: "https://store.example/app/20/"})
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)
}

func TestSQLite_GetByAppIDNotFound(t *testing.T) {
	s := openTestDB(t)
	_, err := s.GetByAppID(context.Background(), 404)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSQLite_SnapshotDedupPerDay(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	id, err := s.UpsertPlaceholder(ctx, catalog.Placeholder{SteamAppID: 1, Name: "App 1"})
	require.NoError(t, err)

	first := &catalog.Snapshot{GameID: id, SnapshotDate: time.Date(2025, 10, 20, 1, 0, 0, 0, time.UTC), Followers: 10, RawData: []byte("a")}
	require.NoError(t, s.UpsertSnapshot(ctx, first))
	second := &catalog.Snapshot{GameID: id, SnapshotDate: time.Date(2025, 10, 20, 23, 0, 0, 0, time.UTC), Followers: 12, RawData: []byte("b")}
	require.NoError(t, s.UpsertSnapshot(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	next := &catalog.Snapshot{GameID: id, SnapshotDate: time.Date(2025, 10, 21, 0, 0, 1, 0, time.UTC), Followers: 15}
	require.NoError(t, s.UpsertSnapshot(ctx, next))

	snaps, err := s.ListSnapshots(ctx, id)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, day(2025, 10, 20), snaps[0].SnapshotDate)
	assert.Equal(t, int64(12), snaps[0].Followers)
	assert.Equal(t, []byte("b"), snaps[0].RawData)
	assert.Equal(t, day(2025, 10, 21), snaps[1].SnapshotDate)
}

func TestSQLite_ConcurrentSnapshotWritesConverge(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	id, err := s.UpsertPlaceholder(ctx, catalog.Placeholder{SteamAppID: 7, Name: "App 7"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			snap := &catalog.Snapshot{GameID: id, SnapshotDate: day(2025, 10, 20), Followers: int64(n)}
			assert.NoError(t, s.UpsertSnapshot(ctx, snap))
		}(i)
	}
	wg.Wait()

	snaps, err := s.ListSnapshots(ctx, id)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestSQLite_AnalyticsReader(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	oct := day(2025, 10, 3)
	g := &catalog.Game{SteamAppID: catalog.Int64Ptr(1), Name: "One", ReleaseDate: &oct,
		Genres: []string{"Action", "Indie"}, Platforms: []string{"windows"}}
	require.NoError(t, s.UpsertDetails(ctx, g))
	nov := day(2025, 11, 1)
	require.NoError(t, s.UpsertDetails(ctx, &catalog.Game{SteamAppID: catalog.Int64Ptr(2), Name: "Two", ReleaseDate: &nov}))

	released, err := s.GamesReleasedBetween(ctx, day(2025, 10, 1), day(2025, 11, 1))
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, []string{"Action", "Indie"}, released[0].Genres)
	assert.Equal(t, []string{"windows"}, released[0].Platforms)

	for _, d := range []time.Time{day(2025, 8, 28), day(2025, 10, 2)} {
		require.NoError(t, s.UpsertSnapshot(ctx, &catalog.Snapshot{GameID: g.ID, SnapshotDate: d, Followers: 5}))
	}

	latest, ok, err := s.LatestSnapshotDate(ctx, day(2025, 9, 1), day(2025, 10, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	latest, ok, err = s.LatestSnapshotDate(ctx, time.Time{}, day(2025, 10, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, day(2025, 8, 28), latest)

	rows, err := s.SnapshotsOn(ctx, day(2025, 10, 2))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, g.ID, rows[0].GameID)
	assert.Equal(t, int64(5), rows[0].Followers)
	assert.Equal(t, []string{"Action", "Indie"}, rows[0].Genres)
}

func TestSQLite_SyncRuns(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	run := &ingest.Run{Trigger: ingest.TriggerManual, Status: ingest.StatusRunning, StartedAt: time.Date(2025, 10, 20, 6, 0, 0, 0, time.UTC)}
	require.NoError(t, s.CreateRun(ctx, run))
	require.NotEmpty(t, run.ID)

	finished := run.StartedAt.Add(time.Minute)
	run.FinishedAt = &finished
	run.Status = ingest.StatusCompleted
	run.Processed, run.Succeeded, run.Failed, run.Skipped = 3, 1, 1, 1
	require.NoError(t, s.UpdateRun(ctx, run))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ingest.StatusCompleted, runs[0].Status)
	assert.Equal(t, 3, runs[0].Processed)
	require.NotNil(t, runs[0].FinishedAt)
	assert.Equal(t, finished, *runs[0].FinishedAt)
}

func TestSQLite_SnapshotKeepsRawBytes(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	id, err := s.UpsertPlaceholder(ctx, catalog.Placeholder{SteamAppID: 730, Name: "App 730"})
	require.NoError(t, err)

	raw := []byte("<html>\x00caf\xe9 \xe2\x82")
	require.NoError(t, s.UpsertSnapshot(ctx, &catalog.Snapshot{GameID: id, SnapshotDate: day(2025, 10, 20), RawData: raw}))

	snaps, err := s.ListSnapshots(ctx, id)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, raw, snaps[0].RawData)
}

func TestSQLite_ReleaseListingAndCalendar(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	seed := []struct {
		appID     int64
		name      string
		release   time.Time
		genres    []string
		platforms []string
	}{
		{1, "Zeta Action", day(2025, 11, 10), []string{"Action"}, []string{"windows"}},
		{2, "Alpha Action", day(2025, 11, 10), []string{"Action", "Indie"}, []string{"windows", "linux"}},
		{3, "Late RPG", day(2025, 11, 30), []string{"RPG"}, []string{"mac"}},
		{4, "December RPG", day(2025, 12, 1), []string{"RPG"}, []string{"windows"}},
		{5, "October Indie", day(2025, 10, 31), []string{"Indie"}, []string{"windows"}},
	}
	for _, g := range seed {
		release := g.release
		require.NoError(t, s.UpsertDetails(ctx, &catalog.Game{
			SteamAppID:  catalog.Int64Ptr(g.appID),
			Name:        g.name,
			ReleaseDate: &release,
			Genres:      g.genres,
			Platforms:   g.platforms,
		}))
	}
	_, err := s.UpsertPlaceholder(ctx, catalog.Placeholder{SteamAppID: 6, Name: "App 6"})
	require.NoError(t, err)

	games, err := s.ListReleasedBetween(ctx, day(2025, 11, 1), day(2025, 12, 1))
	require.NoError(t, err)
	names := make([]string, 0, len(games))
	for _, g := range games {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Alpha Action", "Zeta Action", "Late RPG"}, names)

	svc := catalog.NewService(s)
	month := day(2025, 11, 1)

	filtered, err := svc.ListByMonth(ctx, month, catalog.Filter{Platform: "Windows", Genre: "ACTION"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	filtered, err = svc.ListByMonth(ctx, month, catalog.Filter{Platform: "linux"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Alpha Action", filtered[0].Name)

	cal, err := svc.Calendar(ctx, month, catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "2025-11", cal.Month)
	assert.Equal(t, []catalog.CalendarDay{
		{Date: "2025-11-10", Count: 2},
		{Date: "2025-11-30", Count: 1},
	}, cal.Days)

	cal, err = svc.Calendar(ctx, month, catalog.Filter{Genre: "rpg"})
	require.NoError(t, err)
	assert.Equal(t, []catalog.CalendarDay{{Date: "2025-11-30", Count: 1}}, cal.Days)
}
