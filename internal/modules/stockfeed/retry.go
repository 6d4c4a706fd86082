package stockfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrRetriesExhausted is returned when every fetch attempt failed. It is fatal for the run.
var ErrRetriesExhausted = errors.New("stock feed retries exhausted")

// RetryPolicy bounds transport retries: login and download are retried as one unit.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

type retryingFetcher struct {
	next   Fetcher
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Retrying wraps next with a fixed-backoff retry loop.
func Retrying(next Fetcher, policy RetryPolicy, logger *slog.Logger) Fetcher {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &retryingFetcher{next: next, policy: policy, logger: logger, sleep: sleepContext}
}

func (r *retryingFetcher) Fetch(ctx context.Context) (Feed, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		feed, err := r.next.Fetch(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.InfoContext(ctx, "stock feed fetched after retry", "attempt", attempt)
			}
			return feed, nil
		}
		if errors.Is(err, ErrInvalidReport) || ctx.Err() != nil {
			return Feed{}, err
		}
		lastErr = err
		if attempt == r.policy.Attempts {
			break
		}
		r.logger.WarnContext(ctx, "stock feed fetch failed, retrying",
			"attempt", attempt,
			"max_attempts", r.policy.Attempts,
			"delay", r.policy.Delay.String(),
			"error", err,
		)
		if err := r.sleep(ctx, r.policy.Delay); err != nil {
			return Feed{}, err
		}
	}
	return Feed{}, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, r.policy.Attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
