package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
)

type Service struct {
	reader Reader
	now    func() time.Time
	logger *slog.Logger
}

func NewService(reader Reader, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: reader, now: now, logger: logger}
}

// GenreLeaderboard counts games released in month per genre. A game counts
// once for each genre it carries, so percentages are shares of all
// (genre, game) pairs. platform, when set, keeps only games available on it.
func (s *Service) GenreLeaderboard(ctx context.Context, month time.Time, platform string) ([]GenreShare, error) {
	start := MonthStart(month)
	games, err := s.reader.GamesReleasedBetween(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	platform = strings.TrimSpace(platform)
	members := make(map[string]map[string]struct{})
	for _, g := range games {
		if platform != "" && !hasPlatform(g.Platforms, platform) {
			continue
		}
		for _, genre := range g.Genres {
			addMember(members, genre, g.GameID)
		}
	}

	total := 0
	for _, ids := range members {
		total += len(ids)
	}
	out := make([]GenreShare, 0, len(members))
	for genre, ids := range members {
		out = append(out, GenreShare{
			Genre:      genre,
			Count:      len(ids),
			Percentage: math.RoundToEven(float64(len(ids))/float64(total)*100*100) / 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	return out, nil
}

func hasPlatform(platforms []string, want string) bool {
	for _, p := range platforms {
		if strings.EqualFold(strings.TrimSpace(p), want) {
			return true
		}
	}
	return false
}

func addMember(members map[string]map[string]struct{}, genre, gameID string) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return
	}
	ids, ok := members[genre]
	if !ok {
		ids = make(map[string]struct{})
		members[genre] = ids
	}
	ids[gameID] = struct{}{}
}

type rankedGenre struct {
	genre string
	count int
	avg   int64
}

type monthRanking struct {
	label string
	top   []rankedGenre
}

// GenreTrends ranks genres month by month over the last months months. Each
// month is measured on its latest snapshot day; a month without one borrows
// the latest earlier day, and a month with nothing at or before its end is
// left out.
func (s *Service) GenreTrends(ctx context.Context, months int, includeCurrent bool) ([]GenreTrend, error) {
	if months <= 0 || months > maxTrendSpan {
		return nil, ErrInvalidMonths
	}

	var rankings []monthRanking
	for _, start := range MonthList(s.now(), months, includeCurrent) {
		end := start.AddDate(0, 1, 0)
		day, ok, err := s.resolveDay(ctx, start, end)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Debug("no snapshot for month", "month", start.Format(MonthLayout))
			continue
		}
		rows, err := s.reader.SnapshotsOn(ctx, day)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, monthRanking{
			label: start.Format(MonthLayout),
			top:   rankDay(rows),
		})
	}
	if len(rankings) == 0 {
		return nil, ErrNoData
	}
	return buildSeries(rankings), nil
}

func (s *Service) resolveDay(ctx context.Context, start, end time.Time) (time.Time, bool, error) {
	day, ok, err := s.reader.LatestSnapshotDate(ctx, start, end)
	if err != nil || ok {
		return day, ok, err
	}
	return s.reader.LatestSnapshotDate(ctx, time.Time{}, end)
}

func rankDay(rows []SnapshotRow) []rankedGenre {
	members := make(map[string]map[string]struct{})
	followers := make(map[string]int64, len(rows))
	for _, r := range rows {
		followers[r.GameID] = r.Followers
		for _, genre := range r.Genres {
			addMember(members, genre, r.GameID)
		}
	}

	ranked := make([]rankedGenre, 0, len(members))
	for genre, ids := range members {
		var sum int64
		for id := range ids {
			sum += followers[id]
		}
		ranked = append(ranked, rankedGenre{
			genre: genre,
			count: len(ids),
			avg:   int64(math.RoundToEven(float64(sum) / float64(len(ids)))),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].genre < ranked[j].genre
	})
	if len(ranked) > topGenres {
		ranked = ranked[:topGenres]
	}
	return ranked
}

func buildSeries(rankings []monthRanking) []GenreTrend {
	var order []string
	seen := make(map[string]bool)
	for _, m := range rankings {
		for _, r := range m.top {
			if !seen[r.genre] {
				seen[r.genre] = true
				order = append(order, r.genre)
			}
		}
	}

	out := make([]GenreTrend, 0, len(order))
	for _, genre := range order {
		series := GenreTrend{Genre: genre, Data: make([]TrendPoint, 0, len(rankings))}
		for _, m := range rankings {
			p := TrendPoint{Month: m.label}
			for i, r := range m.top {
				if r.genre == genre {
					rank, avg := i+1, r.avg
					p.Rank, p.AvgFollowers = &rank, &avg
					break
				}
			}
			series.Data = append(series.Data, p)
		}
		out = append(out, series)
	}
	return out
}
