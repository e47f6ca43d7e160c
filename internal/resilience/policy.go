package resilience

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without any network I/O while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

type PolicyConfig struct {
	Name            string
	RetryCount      int
	BackoffBase     time.Duration
	BreakerFailures int
	BreakerOpen     time.Duration
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Name:            "steam",
		RetryCount:      3,
		BackoffBase:     2 * time.Second,
		BreakerFailures: 5,
		BreakerOpen:     30 * time.Second,
	}
}

// Policy retries non-2xx outcomes with exponential backoff and trips a
// circuit breaker after consecutive non-2xx outcomes. Transport errors are
// returned as they are: they are neither retried nor counted.
type Policy struct {
	next   Doer
	cfg    PolicyConfig
	cb     *gobreaker.CircuitBreaker
	sleep  SleepFunc
	logger *slog.Logger
}

// statusError carries a non-2xx response through the breaker so it is
// counted as a failure while the response stays available to the caller.
type statusError struct {
	resp *http.Response
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.resp.StatusCode)
}

func NewPolicy(next Doer, cfg PolicyConfig, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BreakerFailures < 1 {
		cfg.BreakerFailures = 1
	}
	failures := uint32(cfg.BreakerFailures)
	p := &Policy{next: next, cfg: cfg, sleep: sleepCtx, logger: logger}
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpen,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			return !errors.As(err, &se)
		},
	})
	return p
}

// WithSleep replaces the backoff sleeper. Used by tests.
func (p *Policy) WithSleep(sleep SleepFunc) *Policy {
	p.sleep = sleep
	return p
}

// State reports the breaker state ("closed", "open", "half-open").
func (p *Policy) State() string { return p.cb.State().String() }

func (p *Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.BackoffBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.Reset()
	return b
}

// Do sends req, retrying up to RetryCount times on non-2xx responses. Once
// retries are exhausted the last response is returned with a nil error.
func (p *Policy) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	bo := p.newBackOff()

	for attempt := 0; ; attempt++ {
		resp, err := p.attempt(req)
		if err != nil {
			return nil, err
		}
		if isSuccess(resp.StatusCode) || attempt >= p.cfg.RetryCount {
			return resp, nil
		}

		delay := bo.NextBackOff()
		p.logger.Warn("retrying upstream request",
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"delay", delay,
		)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := p.sleep(ctx, delay); err != nil {
			return nil, err
		}
		if req, err = rewind(req); err != nil {
			return nil, err
		}
	}
}

func (p *Policy) attempt(req *http.Request) (*http.Response, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		resp, err := p.next.Do(req)
		if err != nil {
			return nil, err
		}
		if !isSuccess(resp.StatusCode) {
			return nil, &statusError{resp: resp}
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, p.cfg.Name)
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.resp, nil
	}
	if err != nil {
		return nil, err
	}
	return out.(*http.Response), nil
}

func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}
