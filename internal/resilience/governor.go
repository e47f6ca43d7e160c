package resilience

import (
	"context"
	"net/http"
	"time"
)

// Governor serializes outbound requests and keeps at least Delay between
// consecutive sends. It is a single slot, not a token bucket: a caller holds
// the slot while it sleeps out the remaining gap.
type Governor struct {
	slot  chan struct{}
	last  time.Time
	delay time.Duration

	now   func() time.Time
	sleep SleepFunc
}

func NewGovernor(delay time.Duration) *Governor {
	return &Governor{
		slot:  make(chan struct{}, 1),
		delay: delay,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// WithClock replaces the time source and sleeper. Used by tests.
func (g *Governor) WithClock(now func() time.Time, sleep SleepFunc) *Governor {
	g.now = now
	g.sleep = sleep
	return g
}

// Wait blocks until the caller may send. It returns ctx.Err() if ctx ends
// first, in which case no send is recorded.
func (g *Governor) Wait(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slot }()

	if !g.last.IsZero() {
		if remaining := g.delay - g.now().Sub(g.last); remaining > 0 {
			if err := g.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	g.last = g.now()
	return nil
}

// Wrap returns a Doer that waits for the governor before each send.
func (g *Governor) Wrap(next Doer) Doer {
	return DoerFunc(func(req *http.Request) (*http.Response, error) {
		if err := g.Wait(req.Context()); err != nil {
			return nil, err
		}
		return next.Do(req)
	})
}
