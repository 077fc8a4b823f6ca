package resilience

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	failing := errors.New("db down")
	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return failing }); !errors.Is(err, failing) {
			t.Fatalf("expected dependency error, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	if err := b.Do(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
	if called {
		t.Fatalf("expected fn to be skipped while open")
	}

	now = now.Add(6 * time.Second)
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", state)
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	_ = b.Do(func() error { return errors.New("x") })
	now = now.Add(2 * time.Second)
	_ = b.Do(func() error { return errors.New("still down") })

	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
}
