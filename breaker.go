package main

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
)

// breakerImages stops calling a failing image backend for a while.
// An open breaker is reported like any other image failure.
type breakerImages struct {
	next ImageGenerator
	cb   *gobreaker.CircuitBreaker
}

func newBreakerImages(next ImageGenerator, logger *log.Logger) *breakerImages {
	return &breakerImages{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "images",
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// Cancelled batches and empty answers say nothing about backend health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoImage)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (b *breakerImages) GenerateImage(ctx context.Context, theme Theme, style string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateImage(ctx, theme, style)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
