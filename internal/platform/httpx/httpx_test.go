package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := map[int]bool{
		200: false,
		400: false,
		404: false,
		408: true,
		429: true,
		500: true,
		503: true,
	}
	for code, want := range cases {
		if got := IsRetryableHTTPStatus(code); got != want {
			t.Fatalf("IsRetryableHTTPStatus(%d): want=%v got=%v", code, want, got)
		}
	}
}

func TestIsRetryableErrorStatusError(t *testing.T) {
	if !IsRetryableError(&StatusError{StatusCode: 503}) {
		t.Fatalf("expected 503 to be retryable")
	}
	if IsRetryableError(&StatusError{StatusCode: 422}) {
		t.Fatalf("expected 422 to be terminal")
	}
	if IsRetryableError(context.Canceled) {
		t.Fatalf("expected canceled context to be terminal")
	}
}

func TestRetryStopsOnTerminalError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, time.Millisecond, func(int) (*http.Response, error) {
		calls++
		return nil, &StatusError{StatusCode: 400}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestRetryRecovers(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, time.Millisecond, func(int) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, &StatusError{StatusCode: 503}
		}
		return &http.Response{StatusCode: 200}, nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 2, time.Millisecond, func(int) (*http.Response, error) {
		calls++
		return nil, &StatusError{StatusCode: 502}
	})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got=%T", err)
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}
