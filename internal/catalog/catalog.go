package catalog

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a game is not in the catalog.
var ErrNotFound = errors.New("game not found")

// Game is a catalog entry for an external title. SteamAppID is nil for
// entries that were never resolved against the store.
type Game struct {
	ID               string              `json:"id"`
	SteamAppID       *int64              `json:"steam_app_id,omitempty"`
	Name             string              `json:"name"`
	Slug             string              `json:"slug,omitempty"`
	ShortDescription string              `json:"short_description,omitempty"`
	FullDescription  string              `json:"full_description,omitempty"`
	ReleaseDate      *time.Time          `json:"release_date,omitempty"`
	Price            decimal.NullDecimal `json:"price"`
	MetacriticScore  *int                `json:"metacritic_score,omitempty"`
	Genres           []string            `json:"genres"`
	Platforms        []string            `json:"platforms"`
	StoreURL         string              `json:"store_url,omitempty"`
	HeaderImageURL   string              `json:"header_image_url,omitempty"`
	IsComingSoon     bool                `json:"is_coming_soon"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Snapshot is one daily observation of a game's popularity together with the
// payload it was derived from.
type Snapshot struct {
	ID           int64     `json:"id"`
	GameID       string    `json:"game_id"`
	SnapshotDate time.Time `json:"snapshot_date"`
	Followers    int64     `json:"followers"`
	RawData      []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Placeholder holds what the page fallback knows about a game.
type Placeholder struct {
	SteamAppID int64
	Name       string
	StoreURL   string
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds a URL-friendly slug from a display name.
func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
