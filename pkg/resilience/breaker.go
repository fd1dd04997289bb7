// Package resilience guards calls to upstream services with circuit breakers.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"subscout/pkg/observability"
)

// ErrCircuitOpen is returned instead of calling an upstream that is failing
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerConfig holds configuration for a circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker once
	// MinRequests have been seen in the current interval.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used for every upstream
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Breaker wraps a gobreaker circuit breaker
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	name    string
	metrics *observability.Collector
}

// NewBreaker creates a breaker. metrics may be nil.
func NewBreaker(cfg BreakerConfig, logger *zap.Logger, metrics *observability.Collector) *Breaker {
	b := &Breaker{name: cfg.Name, metrics: metrics}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, int(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err) || errors.Is(err, context.Canceled)
		},
	})
	return b
}

// Do runs fn through the breaker. When the breaker rejects the call the
// returned error wraps ErrCircuitOpen.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	b.metrics.RecordUpstream(b.name, err)
	return err
}

// State reports the breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

type clientError struct{ err error }

func (e *clientError) Error() string { return e.err.Error() }
func (e *clientError) Unwrap() error { return e.err }

// ClientError marks err as caused by the request rather than the upstream.
// Client errors are returned to the caller but do not count as failures.
func ClientError(err error) error {
	if err == nil {
		return nil
	}
	return &clientError{err: err}
}

func IsClientError(err error) bool {
	var ce *clientError
	return errors.As(err, &ce)
}
