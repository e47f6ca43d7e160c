// Package steam talks to the Steam storefront: the appdetails JSON API, the
// public store pages and robots.txt.
package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gamecatalog/internal/resilience"
)

const (
	DefaultBaseURL = "https://store.steampowered.com"
	maxBodyBytes   = 8 << 20
)

// Response is a fully read upstream response.
type Response struct {
	Status int
	Body   []byte
}

func (r Response) OK() bool { return r.Status >= 200 && r.Status <= 299 }

type Client struct {
	doer      resilience.Doer
	baseURL   string
	userAgent string
}

// NewClient builds a client sending every request through doer, which is
// normally the governed, retrying transport chain.
func NewClient(doer resilience.Doer, baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		doer:      doer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

func (c *Client) BaseURL() string   { return c.baseURL }
func (c *Client) UserAgent() string { return c.userAgent }

// AppURL is the canonical store URL recorded for structured results.
func (c *Client) AppURL(appID int64) string {
	return fmt.Sprintf("%s/app/%d", c.baseURL, appID)
}

// PageURL is the store page fetched by the fallback path.
func (c *Client) PageURL(appID int64) string {
	return c.AppURL(appID) + "/"
}

func (c *Client) AppDetails(ctx context.Context, appID int64) (Response, error) {
	return c.get(ctx, fmt.Sprintf("%s/api/appdetails?appids=%d&cc=us&l=en", c.baseURL, appID))
}

func (c *Client) StorePage(ctx context.Context, appID int64) (Response, error) {
	return c.get(ctx, c.PageURL(appID))
}

func (c *Client) Robots(ctx context.Context) (Response, error) {
	return c.get(ctx, c.baseURL+"/robots.txt")
}

func (c *Client) get(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	// Skips the age gate on mature titles.
	req.Header.Set("Cookie", "birthtime=0; wants_mature_content=1")

	resp, err := c.doer.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read %s: %w", url, err)
	}
	return Response{Status: resp.StatusCode, Body: body}, nil
}
