package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream unavailable")

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	b := NewBreaker(Settings{Name: "test", MaxFailures: 3, OpenTimeout: time.Hour}, discard())
	calls := 0
	fail := func(context.Context) error {
		calls++
		return errUpstream
	}

	for i := 0; i < 3; i++ {
		if err := b.Execute(context.Background(), fail); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d error = %v, want %v", i, err, errUpstream)
		}
	}
	if got := b.State(); got != "open" {
		t.Errorf("State() = %q, want open", got)
	}

	if err := b.Execute(context.Background(), fail); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() on open breaker error = %v, want ErrCircuitOpen", err)
	}
	if calls != 3 {
		t.Errorf("operation called %d times, want 3", calls)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	t.Parallel()

	b := NewBreaker(Settings{Name: "test", MaxFailures: 2}, discard())
	ops := []error{errUpstream, nil, errUpstream, nil, errUpstream}
	for i, want := range ops {
		err := b.Execute(context.Background(), func(context.Context) error { return want })
		if !errors.Is(err, want) {
			t.Fatalf("call %d error = %v, want %v", i, err, want)
		}
	}
	if got := b.State(); got != "closed" {
		t.Errorf("State() = %q, want closed", got)
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	b := NewBreaker(Settings{Name: "test", MaxFailures: 1}, discard())
	err := b.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if got := b.State(); got != "closed" {
		t.Errorf("State() = %q, want closed", got)
	}
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	t.Parallel()

	b := NewBreaker(Settings{Name: "test", MaxFailures: 1, OpenTimeout: 20 * time.Millisecond}, discard())
	_ = b.Execute(context.Background(), func(context.Context) error { return errUpstream })
	if got := b.State(); got != "open" {
		t.Fatalf("State() = %q, want open", got)
	}

	time.Sleep(40 * time.Millisecond)
	if err := b.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("trial call error = %v", err)
	}
	if got := b.State(); got != "closed" {
		t.Errorf("State() after successful trial = %q, want closed", got)
	}
}

func TestBreakerIgnoresListedErrors(t *testing.T) {
	t.Parallel()

	errRejected := errors.New("request rejected")
	b := NewBreaker(Settings{Name: "test", MaxFailures: 2, Ignore: []error{errRejected}}, discard())
	for i := 0; i < 5; i++ {
		err := b.Execute(context.Background(), func(context.Context) error {
			return fmt.Errorf("call %d: %w", i, errRejected)
		})
		if !errors.Is(err, errRejected) {
			t.Fatalf("call %d error = %v, want %v", i, err, errRejected)
		}
	}
	if got := b.State(); got != "closed" {
		t.Errorf("State() = %q, want closed", got)
	}

	for i := 0; i < 2; i++ {
		_ = b.Execute(context.Background(), func(context.Context) error { return errUpstream })
	}
	if got := b.State(); got != "open" {
		t.Errorf("State() after real failures = %q, want open", got)
	}
}
