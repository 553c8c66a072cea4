package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirst(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 3, Interval: 0}, func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Do() = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 3, Interval: 0}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Do() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("always fail")

	err := Do(context.Background(), Config{MaxAttempts: 3, Interval: 0}, func() error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("Do() = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want exactly 3 attempts", calls)
	}
}

func TestDoNonRetryableError(t *testing.T) {
	calls := 0
	fatal := errors.New("bad template")
	cfg := Config{
		MaxAttempts: 5,
		Interval:    0,
		IsRetryable: func(err error) bool { return !errors.Is(err, fatal) },
	}

	err := Do(context.Background(), cfg, func() error {
		calls++
		return fatal
	})

	if !errors.Is(err, fatal) {
		t.Errorf("Do() = %v, want %v", err, fatal)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, Config{MaxAttempts: 100, Interval: 20 * time.Millisecond}, func() error {
		calls++
		return errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
	if calls == 0 {
		t.Error("fn should have run at least once before cancellation")
	}
}

func TestDoCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Config{MaxAttempts: 3, Interval: 0}, func() error {
		calls++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after pre-cancelled context", calls)
	}
}

func TestDoFixedInterval(t *testing.T) {
	start := time.Now()
	interval := 25 * time.Millisecond

	_ = Do(context.Background(), Config{MaxAttempts: 3, Interval: interval}, func() error {
		return errors.New("fail")
	})

	// Two sleeps between three attempts.
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("elapsed = %v, want at least %v", elapsed, 2*interval)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, DefaultMaxAttempts)
	}
	if cfg.IsRetryable == nil {
		t.Error("IsRetryable should default to always-retry")
	}
}
