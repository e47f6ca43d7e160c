package steam

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/temoto/robotstxt"
)

// RobotsFetcher returns the raw robots.txt of the upstream origin.
type RobotsFetcher interface {
	Robots(ctx context.Context) (Response, error)
	BaseURL() string
}

type robotsDecision struct {
	allowed bool
	expires time.Time
}

// Gate decides whether the store pages may be scraped. It fails open: an
// unreachable or unreadable robots.txt allows, and that decision is not
// cached so the next call checks again.
type Gate struct {
	fetcher   RobotsFetcher
	userAgent string
	ttl       time.Duration
	cache     *lru.Cache
	now       func() time.Time
	logger    *slog.Logger
}

// NewGate builds a gate caching decisions for ttl. A zero ttl re-checks on
// every call.
func NewGate(fetcher RobotsFetcher, userAgent string, ttl time.Duration, logger *slog.Logger) (*Gate, error) {
	cache, err := lru.New(16)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		fetcher:   fetcher,
		userAgent: userAgent,
		ttl:       ttl,
		cache:     cache,
		now:       time.Now,
		logger:    logger,
	}, nil
}

func (g *Gate) Allowed(ctx context.Context) bool {
	origin := g.fetcher.BaseURL()
	now := g.now()
	if g.ttl > 0 {
		if v, ok := g.cache.Get(origin); ok {
			if d := v.(robotsDecision); now.Before(d.expires) {
				return d.allowed
			}
		}
	}

	allowed, cacheable := g.check(ctx, origin)
	if g.ttl > 0 && cacheable {
		g.cache.Add(origin, robotsDecision{allowed: allowed, expires: now.Add(g.ttl)})
	}
	return allowed
}

// check reports the decision and whether it came from a robots.txt body
// that was actually read.
func (g *Gate) check(ctx context.Context, origin string) (allowed, cacheable bool) {
	resp, err := g.fetcher.Robots(ctx)
	if err != nil {
		g.logger.Warn("robots.txt fetch failed, allowing", "origin", origin, "error", err)
		return true, false
	}
	if !resp.OK() {
		g.logger.Warn("robots.txt unavailable, allowing", "origin", origin, "status", resp.Status)
		return true, false
	}

	data, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		g.logger.Warn("robots.txt unparseable, allowing", "origin", origin, "error", err)
		return true, false
	}
	allowed = data.FindGroup(g.userAgent).Test("/")
	if !allowed {
		g.logger.Info("robots.txt disallows scraping", "origin", origin, "user_agent", g.userAgent)
	}
	return allowed, true
}
