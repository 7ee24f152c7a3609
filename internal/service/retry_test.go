package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/config"

	"github.com/cenkalti/backoff/v5"
)

func testRetryConfig(attempts int) config.RetryConfig {
	return config.RetryConfig{
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		MaxAttempts: attempts,
	}
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	got, err := withRetry(context.Background(), testRetryConfig(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("upstream 503")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("withRetry() = %q, want %q", got, "ok")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), testRetryConfig(3), func() (string, error) {
		calls++
		return "", errors.New("upstream 503")
	})

	if err == nil {
		t.Fatal("withRetry() expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryHonorsPermanentErrors(t *testing.T) {
	calls := 0
	wantErr := errors.New("bad payload")
	_, err := withRetry(context.Background(), testRetryConfig(5), func() (string, error) {
		calls++
		return "", backoff.Permanent(wantErr)
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("withRetry() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1: permanent errors must not be retried", calls)
	}
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := withRetry(ctx, testRetryConfig(5), func() (string, error) {
		calls++
		return "", errors.New("upstream 503")
	})

	if err == nil {
		t.Fatal("withRetry() expected error on cancelled context")
	}
	if calls > 1 {
		t.Errorf("calls = %d, want at most 1 after cancellation", calls)
	}
}
