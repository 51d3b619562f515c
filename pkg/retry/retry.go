// Package retry provides the single retry policy shared by every retryable
// remote call in the pipeline: feed fetch, transcript read, document write
// and ingestion trigger all use the same schedule.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy retries an operation up to MaxAttempts times, sleeping
// BaseDelay*2^(attempt-1) between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *slog.Logger
}

// Default is the schedule used across the pipeline: 3 attempts with
// 1s/2s/4s delays.
var Default = Policy{MaxAttempts: 3, BaseDelay: time.Second}

// Do runs fn until it succeeds or attempts are exhausted. The last error is
// returned wrapped with the operation name and attempt count.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := p.BaseDelay << (attempt - 1)
		if p.Logger != nil {
			p.Logger.Warn("retrying after failure",
				slog.String("operation", op),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()))
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
