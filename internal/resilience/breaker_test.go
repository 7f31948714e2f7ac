package resilience

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var errPublish = errors.New("nats: no responders")

func trip(b *Breaker, n int) {
	for range n {
		_ = b.Execute(func() error { return errPublish })
	}
}

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker("nats", 3, time.Second)
	called := false
	if err := b.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if b.State() != "closed" {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("postgres", 3, time.Second)
	trip(b, 3)

	err := b.Execute(func() error {
		t.Fatal("fn must not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "postgres: ") {
		t.Errorf("expected breaker name in error, got %q", err)
	}
	if b.State() != "open" {
		t.Errorf("expected open, got %s", b.State())
	}
}

func TestFailurePassesThroughOriginalError(t *testing.T) {
	b := NewBreaker("nats", 3, time.Second)
	if err := b.Execute(func() error { return errPublish }); !errors.Is(err, errPublish) {
		t.Fatalf("expected original error, got %v", err)
	}
}

func TestTransitionsToHalfOpenAfterTimeout(t *testing.T) {
	now := time.Now()
	b := NewBreaker("nats", 2, time.Second)
	b.now = func() time.Time { return now }

	trip(b, 2)
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(2 * time.Second)
	if b.State() != "half-open" {
		t.Errorf("expected half-open, got %s", b.State())
	}

	called := false
	if err := b.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("expected no error in half-open, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called in half-open")
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed after half-open success, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("nats", 2, time.Second)
	b.now = func() time.Time { return now }

	trip(b, 2)
	now = now.Add(2 * time.Second)
	trip(b, 1)

	if b.State() != "open" {
		t.Fatalf("expected open after half-open failure, got %s", b.State())
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("nats", 3, time.Second)

	trip(b, 2)
	_ = b.Execute(func() error { return nil })
	trip(b, 2)

	called := false
	if err := b.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestNilBreakerRunsDirectly(t *testing.T) {
	var b *Breaker
	if err := b.Execute(func() error { return errPublish }); !errors.Is(err, errPublish) {
		t.Fatalf("expected fn error, got %v", err)
	}
}
