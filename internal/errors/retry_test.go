package errors

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"
)

type flakyError struct{ retry bool }

func (e *flakyError) Error() string   { return "flaky" }
func (e *flakyError) Retryable() bool { return e.retry }

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 2}
}

func TestRetryWithResult(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastRetry(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &flakyError{retry: true}
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("RetryWithResult() = %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithResult_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &flakyError{retry: false}
	_, err := RetryWithResult(context.Background(), fastRetry(), func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if !stderrors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithResult_GivesUp(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), fastRetry(), func(ctx context.Context) (int, error) {
		calls++
		return 0, UpstreamError("bad gateway")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithResult_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithResult(ctx, fastRetry(), func(ctx context.Context) (int, error) {
		t.Fatal("fn should not run on a cancelled context")
		return 0, nil
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHTTPRetryableStatus(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable} {
		if !HTTPRetryableStatus(code) {
			t.Errorf("%d should be retryable", code)
		}
	}
	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusForbidden} {
		if HTTPRetryableStatus(code) {
			t.Errorf("%d should not be retryable", code)
		}
	}
}
