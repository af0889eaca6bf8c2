// Package retry holds the two leaf loop primitives shared by the platform
// adapters: a fixed-delay bounded retry and a bounded polling watcher with
// a per-call-site timeout policy.
package retry

import (
	"context"
	"log/slog"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do runs fn up to cfg.MaxAttempts times with a fixed delay between
// attempts, logging each failed attempt with its index. On exhaustion the
// last error is returned unchanged.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		slog.Default().WarnContext(ctx, "retry attempt failed",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", lastErr,
		)
		if attempt < attempts {
			if err := sleep(ctx, cfg.Delay); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
