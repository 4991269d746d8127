package storage

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/resilience"
)

// guarded routes calls to a remote store through a circuit breaker.
type guarded struct {
	Store
	breaker *resilience.Breaker
}

// DefaultBreaker opens after three consecutive failures and retries
// after thirty seconds. A missing snapshot is not a failure.
func DefaultBreaker(name string) *resilience.Breaker {
	return resilience.New(name, resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoSnapshot) || errors.Is(err, context.Canceled)
		},
	})
}

// Guarded wraps s so that Save and Load fail fast with
// resilience.ErrCircuitOpen while s keeps failing.
func Guarded(s Store, breaker *resilience.Breaker) Store {
	return &guarded{Store: s, breaker: breaker}
}

func (g *guarded) Save(ctx context.Context, snapshot []byte) error {
	return g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.Store.Save(ctx, snapshot)
	})
}

func (g *guarded) Load(ctx context.Context) ([]byte, error) {
	return resilience.Call(ctx, g.breaker, g.Store.Load)
}
