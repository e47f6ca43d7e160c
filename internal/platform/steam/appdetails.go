package steam

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var (
	// ErrAppUnavailable means the API answered but reported success=false
	// or returned no entry for the requested id.
	ErrAppUnavailable = errors.New("appdetails: app unavailable")
	// ErrMalformed means the payload could not be interpreted.
	ErrMalformed = errors.New("appdetails: malformed payload")
)

// AppDetails is the subset of the appdetails payload the catalog keeps.
type AppDetails struct {
	AppID               int64
	Name                string
	ShortDescription    string
	DetailedDescription string
	HeaderImage         string
	ReleaseDate         *time.Time
	ComingSoon          bool
	Genres              []string
	Platforms           []string
	Price               decimal.NullDecimal
	MetacriticScore     *int
}

type appEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type appData struct {
	Name                string `json:"name"`
	ShortDescription    string `json:"short_description"`
	DetailedDescription string `json:"detailed_description"`
	HeaderImage         string `json:"header_image"`
	ReleaseDate         struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	Genres []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Platforms     map[string]bool `json:"platforms"`
	PriceOverview *struct {
		Final int64 `json:"final"`
	} `json:"price_overview"`
	Metacritic *struct {
		Score int `json:"score"`
	} `json:"metacritic"`
}

// ParseAppDetails extracts the entry for appID from an appdetails body of the
// form {"<id>":{"success":true,"data":{...}}}.
func ParseAppDetails(appID int64, raw []byte) (AppDetails, error) {
	var envelope map[string]appEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return AppDetails{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	entry, ok := envelope[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success {
		return AppDetails{}, ErrAppUnavailable
	}

	var data appData
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return AppDetails{}, fmt.Errorf("%w: data: %v", ErrMalformed, err)
	}
	name := strings.TrimSpace(data.Name)
	if name == "" {
		return AppDetails{}, fmt.Errorf("%w: missing name", ErrMalformed)
	}

	d := AppDetails{
		AppID:               appID,
		Name:                name,
		ShortDescription:    data.ShortDescription,
		DetailedDescription: data.DetailedDescription,
		HeaderImage:         data.HeaderImage,
		ReleaseDate:         ParseReleaseDate(data.ReleaseDate.Date),
		ComingSoon:          data.ReleaseDate.ComingSoon,
	}
	for _, g := range data.Genres {
		if g.Description != "" {
			d.Genres = append(d.Genres, g.Description)
		}
	}
	for _, p := range []string{"windows", "mac", "linux"} {
		if data.Platforms[p] {
			d.Platforms = append(d.Platforms, p)
		}
	}
	if data.PriceOverview != nil {
		d.Price = decimal.NewNullDecimal(decimal.New(data.PriceOverview.Final, -2))
	}
	if data.Metacritic != nil && data.Metacritic.Score > 0 {
		score := data.Metacritic.Score
		d.MetacriticScore = &score
	}
	return d, nil
}

var releaseLayouts = []string{
	"Jan 2, 2006",
	"2 Jan, 2006",
	"January 2, 2006",
	"2 January, 2006",
	"2 Jan 2006",
	"2006-01-02",
	"Jan 2006",
	"January 2006",
}

// ParseReleaseDate accepts the date layouts the store renders. Anything else,
// including "Coming soon" and "Q3 2026", yields nil.
func ParseReleaseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range releaseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}
