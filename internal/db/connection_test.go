package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func testPolicy(maxAttempts int, retryable func(error) bool) (RetryPolicy, *[]time.Duration) {
	var sleeps []time.Duration
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     10 * time.Second,
		Retryable:   retryable,
		sleep:       func(d time.Duration) { sleeps = append(sleeps, d) },
	}, &sleeps
}

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	policy, sleeps := testPolicy(5, IsConnectivityError)

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("dial tcp 10.0.0.1:5432: connection refused")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(*sleeps) != 2 {
		t.Errorf("expected 2 backoff sleeps, got %d", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d != 10*time.Second {
			t.Errorf("expected fixed 10s backoff, got %v", d)
		}
	}
}

func TestRetryPolicyStopsOnNonRetryableError(t *testing.T) {
	policy, sleeps := testPolicy(5, IsConnectivityError)

	authErr := errors.New("pq: password authentication failed for user \"ops\"")
	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return authErr
	})

	if !errors.Is(err, authErr) {
		t.Fatalf("expected original error back unchanged, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts)
	}
	if len(*sleeps) != 0 {
		t.Errorf("expected no backoff sleeps, got %d", len(*sleeps))
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	policy, _ := testPolicy(3, IsConnectivityError)

	connErr := errors.New("dial tcp: i/o timeout")
	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return connErr
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, connErr) {
		t.Errorf("expected last error wrapped, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryPolicyHonorsContext(t *testing.T) {
	policy, _ := testPolicy(5, IsConnectivityError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := policy.Do(ctx, func() error {
		attempts++
		return errors.New("connection refused")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Errorf("expected no attempts after cancellation, got %d", attempts)
	}
}

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"io timeout", errors.New("read tcp: i/o timeout"), true},
		{"unknown host", errors.New("lookup db.internal: no such host"), true},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("unreachable")}, true},
		{"wrapped timeout", fmt.Errorf("ping: %w", context.DeadlineExceeded), true},
		{"auth failure", errors.New("pq: password authentication failed"), false},
		{"syntax error", errors.New("pq: syntax error at or near \"SELEC\""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnectivityError(tt.err); got != tt.want {
				t.Errorf("IsConnectivityError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
