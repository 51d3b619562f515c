package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	calls := 0
	err := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call on immediate success, got %d", calls)
	}
}

func TestDo_SucceedsOnLaterAttempt(t *testing.T) {
	calls := 0
	err := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed despite eventual success: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	underlying := errors.New("still down")
	err := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), "write document", func(ctx context.Context) error {
		calls++
		return underlying
	})
	if err == nil {
		t.Fatal("Expected error after exhausted attempts")
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 calls, got %d", calls)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected the last error wrapped, got: %v", err)
	}
	if !strings.Contains(err.Error(), "write document failed after 3 attempts") {
		t.Errorf("Expected operation name and attempt count, got: %v", err)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	Policy{}.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 {
		t.Errorf("Expected 1 call for an unset policy, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Policy{MaxAttempts: 3, BaseDelay: time.Hour}.Do(ctx, "fetch", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context cancellation, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no retry after cancellation, got %d calls", calls)
	}
}
