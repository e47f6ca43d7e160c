package steam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDetails = `{"1675200":{"success":true,"data":{
	"type":"hardware","name":"Steam Deck","short_description":"Portable PC",
	"detailed_description":"<p>Long form</p>",
	"header_image":"https://cdn.example/header.jpg",
	"release_date":{"coming_soon":false,"date":"25 Feb, 2022"},
	"genres":[{"id":"1","description":"Action"},{"id":"25","description":"Adventure"}],
	"platforms":{"windows":true,"mac":false,"linux":true},
	"price_overview":{"currency":"USD","initial":39900,"final":34900},
	"metacritic":{"score":88,"url":"https://example"}}}}`

func TestParseAppDetails(t *testing.T) {
	d, err := ParseAppDetails(1675200, []byte(sampleDetails))
	require.NoError(t, err)

	assert.Equal(t, "Steam Deck", d.Name)
	assert.Equal(t, "Portable PC", d.ShortDescription)
	assert.Equal(t, "https://cdn.example/header.jpg", d.HeaderImage)
	require.NotNil(t, d.ReleaseDate)
	assert.Equal(t, time.Date(2022, 2, 25, 0, 0, 0, 0, time.UTC), *d.ReleaseDate)
	assert.Equal(t, []string{"Action", "Adventure"}, d.Genres)
	assert.Equal(t, []string{"windows", "linux"}, d.Platforms)
	require.True(t, d.Price.Valid)
	assert.Equal(t, "349.00", d.Price.Decimal.StringFixed(2))
	require.NotNil(t, d.MetacriticScore)
	assert.Equal(t, 88, *d.MetacriticScore)
}

func TestParseAppDetails_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"success false", `{"42":{"success":false}}`, ErrAppUnavailable},
		{"other id only", `{"7":{"success":true,"data":{"name":"x"}}}`, ErrAppUnavailable},
		{"not json", `<html>oops</html>`, ErrMalformed},
		{"data wrong shape", `{"42":{"success":true,"data":[]}}`, ErrMalformed},
		{"missing name", `{"42":{"success":true,"data":{"short_description":"x"}}}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAppDetails(42, []byte(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseReleaseDate(t *testing.T) {
	want := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"Oct 20, 2025", "20 Oct, 2025", "October 20, 2025", "2025-10-20"} {
		got := ParseReleaseDate(s)
		if assert.NotNil(t, got, s) {
			assert.Equal(t, want, *got, s)
		}
	}
	assert.Nil(t, ParseReleaseDate(""))
	assert.Nil(t, ParseReleaseDate("Coming soon"))
	assert.Nil(t, ParseReleaseDate("Q3 2026"))
}

func TestHTMLPopularity(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int64
	}{
		{"meta review count", `<html><head><meta itemprop="reviewCount" content="12,345"></head></html>`, 12345},
		{"user reviews count", `<div><span class="user_reviews_count">(1,024)</span></div>`, 1024},
		{"followers text", `<p>Community: 98,765 Followers</p>`, 98765},
		{"nothing", `<html><body>hello</body></html>`, 0},
		{"empty", ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLPopularity{}.Extract([]byte(tt.html)))
		})
	}
}

func TestClient_Requests(t *testing.T) {
	var paths []string
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		agents = append(agents, r.UserAgent())
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/", "gamecatalog-test/1.0")
	ctx := context.Background()

	_, err := c.AppDetails(ctx, 10)
	require.NoError(t, err)
	resp, err := c.StorePage(ctx, 10)
	require.NoError(t, err)
	_, err = c.Robots(ctx)
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, []string{"/api/appdetails?appids=10&cc=us&l=en", "/app/10/", "/robots.txt"}, paths)
	assert.Equal(t, "gamecatalog-test/1.0", agents[0])
	assert.Equal(t, srv.URL+"/app/10", c.AppURL(10))
}

type fakeRobots struct {
	resp  Response
	err   error
	calls atomic.Int32
}

func (f *fakeRobots) Robots(context.Context) (Response, error) {
	f.calls.Add(1)
	return f.resp, f.err
}

func (f *fakeRobots) BaseURL() string { return "https://store.example" }

func TestGate_Decisions(t *testing.T) {
	tests := []struct {
		name  string
		resp  Response
		err   error
		allow bool
	}{
		{"blanket disallow", Response{Status: 200, Body: []byte("User-agent: *\nDisallow: /\n")}, nil, false},
		{"partial disallow", Response{Status: 200, Body: []byte("User-agent: *\nDisallow: /share/\n")}, nil, true},
		{"other agent disallowed", Response{Status: 200, Body: []byte("User-agent: badbot\nDisallow: /\n")}, nil, true},
		{"fetch error", Response{}, errors.New("dial tcp: refused"), true},
		{"server error", Response{Status: 503}, nil, true},
		{"empty file", Response{Status: 200}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGate(&fakeRobots{resp: tt.resp, err: tt.err}, "gamecatalog/1.0", 0, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.allow, g.Allowed(context.Background()))
		})
	}
}

func TestGate_CachesWithinTTL(t *testing.T) {
	f := &fakeRobots{resp: Response{Status: 200, Body: []byte("User-agent: *\nDisallow: /\n")}}
	g, err := NewGate(f, "gamecatalog/1.0", time.Hour, nil)
	require.NoError(t, err)

	now := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	assert.False(t, g.Allowed(context.Background()))
	assert.False(t, g.Allowed(context.Background()))
	assert.Equal(t, int32(1), f.calls.Load())

	now = now.Add(2 * time.Hour)
	g.Allowed(context.Background())
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestGate_ZeroTTLRechecks(t *testing.T) {
	f := &fakeRobots{resp: Response{Status: 200}}
	g, err := NewGate(f, "gamecatalog/1.0", 0, nil)
	require.NoError(t, err)

	g.Allowed(context.Background())
	g.Allowed(context.Background())
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestGate_FailOpenNotCached(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		err  error
	}{
		{"fetch error", Response{}, errors.New("dial tcp: refused")},
		{"server error", Response{Status: 503}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRobots{resp: tt.resp, err: tt.err}
			g, err := NewGate(f, "gamecatalog/1.0", time.Hour, nil)
			require.NoError(t, err)
			now := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
			g.now = func() time.Time { return now }

			assert.True(t, g.Allowed(context.Background()))

			// Upstream recovers and now forbids scraping.
			f.resp = Response{Status: 200, Body: []byte("User-agent: *\nDisallow: /\n")}
			f.err = nil
			assert.False(t, g.Allowed(context.Background()))
			assert.False(t, g.Allowed(context.Background()))
			assert.Equal(t, int32(2), f.calls.Load())
		})
	}
}
