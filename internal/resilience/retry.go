// Package resilience provides fault tolerance patterns
package resilience

import (
	"context"
	"log/slog"
	"time"
)

// Retry configuration constants
const (
	DefaultMaxAttempts = 1
	DefaultInterval    = 500 * time.Millisecond
)

// Config holds fixed-interval retry settings.
type Config struct {
	MaxAttempts int           // total attempts, including the first
	Interval    time.Duration // fixed sleep between attempts
	IsRetryable func(error) bool
}

// DefaultConfig returns single-attempt settings (retry is opt-in).
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
		IsRetryable: func(error) bool { return true },
	}
}

// Do executes fn up to cfg.MaxAttempts times with a fixed interval between
// attempts. Cancellation is checked before every attempt. Returns nil on the
// first success, the last error otherwise.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	cfg = cfg.withDefaults()
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if !cfg.IsRetryable(lastErr) || attempt == cfg.MaxAttempts {
			return lastErr
		}

		slog.Debug("retrying after error", "attempt", attempt, "max", cfg.MaxAttempts, "interval", cfg.Interval, "error", lastErr)

		if cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
		}
	}
	return lastErr
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Interval < 0 {
		c.Interval = DefaultInterval
	}
	if c.IsRetryable == nil {
		c.IsRetryable = func(error) bool { return true }
	}
	return c
}
