package catalog

import (
	"context"
	"strings"
	"time"
)

// MonthLayout is the yyyy-MM label used by the release listings.
const MonthLayout = "2006-01"

// Filter narrows a release listing. Empty fields match everything; matching
// is case-insensitive on whole tag values.
type Filter struct {
	Platform string
	Genre    string
}

func (f Filter) match(g Game) bool {
	return hasTag(g.Platforms, f.Platform) && hasTag(g.Genres, f.Genre)
}

func hasTag(tags []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// CalendarDay counts the releases on one day.
type CalendarDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CalendarMonth is the per-day release count for a month. Days without
// releases are omitted.
type CalendarMonth struct {
	Month string        `json:"month"`
	Days  []CalendarDay `json:"days"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByAppID(ctx context.Context, appID int64) (Game, error) {
	return s.repo.GetByAppID(ctx, appID)
}

// History returns a game and its daily snapshots, oldest first.
func (s *Service) History(ctx context.Context, appID int64) (Game, []Snapshot, error) {
	g, err := s.repo.GetByAppID(ctx, appID)
	if err != nil {
		return Game{}, nil, err
	}
	snaps, err := s.repo.ListSnapshots(ctx, g.ID)
	if err != nil {
		return Game{}, nil, err
	}
	return g, snaps, nil
}

// ListByMonth returns the games released in the month containing month,
// ordered by release date.
func (s *Service) ListByMonth(ctx context.Context, month time.Time, f Filter) ([]Game, error) {
	start := monthStart(month)
	games, err := s.repo.ListReleasedBetween(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	out := make([]Game, 0, len(games))
	for _, g := range games {
		if f.match(g) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Calendar groups the month's filtered releases by day.
func (s *Service) Calendar(ctx context.Context, month time.Time, f Filter) (CalendarMonth, error) {
	games, err := s.ListByMonth(ctx, month, f)
	if err != nil {
		return CalendarMonth{}, err
	}
	cal := CalendarMonth{Month: monthStart(month).Format(MonthLayout), Days: []CalendarDay{}}
	for _, g := range games {
		if g.ReleaseDate == nil {
			continue
		}
		day := g.ReleaseDate.UTC().Format("2006-01-02")
		// Games arrive ordered by release date.
		if n := len(cal.Days); n > 0 && cal.Days[n-1].Date == day {
			cal.Days[n-1].Count++
			continue
		}
		cal.Days = append(cal.Days, CalendarDay{Date: day, Count: 1})
	}
	return cal, nil
}

func monthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
