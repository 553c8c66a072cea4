package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 3, ResetTimeout: time.Minute})
	fail := errors.New("tool failed")

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return fail }); !errors.Is(err, fail) {
			t.Fatalf("attempt %d: got %v, want underlying error", i, err)
		}
	}

	if b.State() != Open {
		t.Errorf("State() = %v, want open", b.State())
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("Execute after open = %v, want ErrOpen", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 3, ResetTimeout: time.Minute})
	fail := errors.New("fail")

	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return fail })

	if b.State() != Closed {
		t.Errorf("State() = %v, want closed after interleaved success", b.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenSuccesses: 2})

	_ = b.Execute(func() error { return errors.New("fail") })
	if b.State() != Open {
		t.Fatalf("State() = %v, want open", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	// Two successes in half-open close the circuit.
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open execute = %v, want nil", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("State() = %v, want half-open", b.State())
	}
	_ = b.Execute(func() error { return nil })
	if b.State() != Closed {
		t.Errorf("State() = %v, want closed after recovery", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 1, ResetTimeout: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	_ = b.Execute(func() error { return errors.New("still failing") })
	if b.State() != Open {
		t.Errorf("State() = %v, want open after half-open failure", b.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half-open"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
