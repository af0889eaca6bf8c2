package retry

import (
	"context"
	"errors"
	"time"
)

// TimeoutPolicy decides what an exhausted poll loop produces. The two
// behaviors are deliberate, separately configured knobs: generation jobs
// must fail hard, while post-publish status checks prefer availability and
// synthesize success from the last observed value.
type TimeoutPolicy int

const (
	FailOnTimeout TimeoutPolicy = iota
	AssumeSuccessOnTimeout
)

var ErrPollTimeout = errors.New("poll attempts exhausted")

type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	OnTimeout   TimeoutPolicy
}

// Poll calls check until isTerminal approves a result or the attempt
// budget runs out. Exhaustion is resolved by cfg.OnTimeout: FailOnTimeout
// returns ErrPollTimeout, AssumeSuccessOnTimeout returns the last observed
// result with a nil error. A check error aborts the loop immediately.
func Poll[T any](ctx context.Context, cfg PollConfig, check func(ctx context.Context) (T, error), isTerminal func(T) bool) (T, error) {
	var last T
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := check(ctx)
		if err != nil {
			return last, err
		}
		last = result
		if isTerminal(result) {
			return result, nil
		}
		if attempt < attempts {
			if err := sleep(ctx, cfg.Interval); err != nil {
				return last, err
			}
		}
	}

	if cfg.OnTimeout == AssumeSuccessOnTimeout {
		return last, nil
	}
	return last, ErrPollTimeout
}
