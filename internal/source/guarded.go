package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"plex-newsletter/internal/document"
	"plex-newsletter/internal/metrics"
)

// BreakerConfig controls when a failing source is short-circuited.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig suits a media server on the local network.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          2 * time.Minute,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// Guarded wraps a Source with a rate limiter and a circuit breaker, and
// records fetch metrics.
type Guarded struct {
	inner   Source
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuarded allows perSecond requests with the given burst.
func NewGuarded(inner Source, perSecond float64, burst int, cfg BreakerConfig) *Guarded {
	if burst <= 0 {
		burst = 1
	}
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("source: circuit breaker state changed", "source", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// cancellations and missing config say nothing about server health
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNotConfigured)
		},
	}
	return &Guarded{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *Guarded) Name() string { return g.inner.Name() }

func (g *Guarded) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit: %w", g.inner.Name(), err)
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Recent(ctx, kind, count)
	})
	metrics.RecordSourceFetch(g.inner.Name(), string(kind), err)
	if err != nil {
		return nil, err
	}
	return res.([]document.MediaEntryInput), nil
}

// State exposes the breaker state for health output.
func (g *Guarded) State() string {
	return g.breaker.State().String()
}
