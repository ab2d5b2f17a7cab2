package rest

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/olusolaa/appliance-converge/internal/core/ports"
)

const (
	minRequestsPerSecond = 1
	maxRequestsPerSecond = 100
)

// newLimiter bounds request rate against the management plane, which is
// shared with the appliance's own control processes.
func newLimiter(rps int, logger ports.Logger) *rate.Limiter {
	limitValue := DefaultRequestsPerSecond
	if rps >= minRequestsPerSecond && rps <= maxRequestsPerSecond {
		limitValue = rps
	} else if rps != 0 {
		logger.Warnf(context.Background(), "Invalid requests_per_second (%d), using default %d. Valid range: %d-%d.",
			rps, DefaultRequestsPerSecond, minRequestsPerSecond, maxRequestsPerSecond)
	}
	logger.Debugf(context.Background(), "Appliance API rate limiter: %d RPS", limitValue)
	return rate.NewLimiter(rate.Limit(limitValue), limitValue)
}

func wait(ctx context.Context, l *rate.Limiter, logger ports.Logger) error {
	if err := l.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Warnf(ctx, "Error waiting for appliance API rate limiter: %v", err)
		}
		return err
	}
	return nil
}
