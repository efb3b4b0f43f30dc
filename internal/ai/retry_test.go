package ai

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"resumeforge/internal/errors"
)

func TestBackoff(t *testing.T) {
	p := newRetryPolicy(3, errors.Discard())

	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{1, time.Second, 1100 * time.Millisecond},
		{2, 2 * time.Second, 2200 * time.Millisecond},
		{3, 4 * time.Second, 4400 * time.Millisecond},
		{10, maxBackoff, maxBackoff},
	}

	for _, tt := range tests {
		got := p.backoff(tt.attempt)
		if got < tt.min || got > tt.max {
			t.Errorf("backoff(%d) = %v, want between %v and %v", tt.attempt, got, tt.min, tt.max)
		}
	}
}

func TestExecuteWithRetry(t *testing.T) {
	transient := &HTTPStatusError{StatusCode: 503}
	permanent := &HTTPStatusError{StatusCode: 400}

	tests := []struct {
		name      string
		errs      []error
		wantErr   error
		wantCalls int
	}{
		{"first try", []error{nil}, nil, 1},
		{"recovers", []error{transient, transient, nil}, nil, 3},
		{"gives up", []error{transient, transient, transient, transient}, transient, 3},
		{"permanent error stops", []error{permanent, nil}, permanent, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newRetryPolicy(2, errors.Discard())
			p.baseDelay = time.Millisecond

			calls := 0
			got, err := executeWithRetry(context.Background(), p, "test", func(context.Context) (string, error) {
				err := tt.errs[calls]
				calls++
				if err != nil {
					return "", err
				}
				return "done", nil
			})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil {
				if err != nil || got != "done" {
					t.Errorf("got %q, %v; want done, nil", got, err)
				}
				return
			}
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecuteWithRetryStopsOnCancel(t *testing.T) {
	p := newRetryPolicy(5, errors.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := executeWithRetry(ctx, p, "test", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, &HTTPStatusError{StatusCode: 503}
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err == nil {
		t.Fatal("expected an error")
	}
}
