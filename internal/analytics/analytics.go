package analytics

import (
	"errors"
	"time"
)

var (
	// ErrNoData is returned when none of the requested months has a snapshot
	// on or before its end.
	ErrNoData = errors.New("no snapshot data for requested months")
	// ErrInvalidMonth is returned for a month that is not yyyy-MM.
	ErrInvalidMonth = errors.New("month must be formatted as yyyy-MM")
	// ErrInvalidMonths is returned when the trend window is out of range.
	ErrInvalidMonths = errors.New("months must be between 1 and 120")
)

const (
	MonthLayout  = "2006-01"
	topGenres    = 5
	maxTrendSpan = 120
)

// ReleasedGame is a game with the attributes the leaderboard groups on.
type ReleasedGame struct {
	GameID    string
	Genres    []string
	Platforms []string
}

// SnapshotRow is one day's snapshot joined to its game's genres.
type SnapshotRow struct {
	GameID    string
	Genres    []string
	Followers int64
}

type GenreShare struct {
	Genre      string  `json:"genre"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is a genre's position in one month. Rank and AvgFollowers are
// nil when the genre was outside that month's top 5.
type TrendPoint struct {
	Month        string `json:"month"`
	AvgFollowers *int64 `json:"avg_followers"`
	Rank         *int   `json:"rank"`
}

type GenreTrend struct {
	Genre string       `json:"genre"`
	Data  []TrendPoint `json:"data"`
}

// MonthStart returns the first instant of t's month in UTC.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth parses a yyyy-MM label.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

// MonthList returns the starts of the last n months, oldest first, ending at
// now's month when includeCurrent is set and at the month before otherwise.
func MonthList(now time.Time, n int, includeCurrent bool) []time.Time {
	last := MonthStart(now)
	if !includeCurrent {
		last = last.AddDate(0, -1, 0)
	}
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = last.AddDate(0, i-(n-1), 0)
	}
	return out
}
