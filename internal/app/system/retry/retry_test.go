package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/threadhive/threadhive/internal/app/system/retry"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), retry.DefaultPolicy, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	p := retry.Policy{Retries: 3, Initial: time.Millisecond, Multiplier: 2}
	calls := 0
	err := retry.Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsBudget(t *testing.T) {
	p := retry.Policy{Retries: 3, Initial: time.Millisecond, Multiplier: 2}
	want := errors.New("still down")
	calls := 0
	err := retry.Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected final error %v, got %v", want, err)
	}
	// 1 initial attempt + 3 retries
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestDo_BackoffTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	// Default policy: delays of 500ms, 1s, 2s between four failing attempts,
	// roughly 3.5s total before giving up.
	start := time.Now()
	err := retry.Do(context.Background(), retry.DefaultPolicy, func(ctx context.Context) error {
		return errors.New("always fails")
	})
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed < 3*time.Second {
		t.Errorf("backoff too short: %v", elapsed)
	}
	if elapsed > 5*time.Second {
		t.Errorf("backoff too long: %v", elapsed)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	p := retry.Policy{Retries: 3, Initial: time.Millisecond, Multiplier: 2}
	calls := 0
	err := retry.Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return retry.Permanent(errors.New("not found"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !retry.IsPermanent(err) {
		t.Error("expected permanent error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	p := retry.Policy{Retries: 3, Initial: time.Second, Multiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := retry.Do(ctx, p, func(ctx context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
