package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want FailureReason
	}{
		{"nil", nil, ReasonNone},
		{"canceled", context.Canceled, ReasonCanceled},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ReasonTimeout},
		{"breaker open", gobreaker.ErrOpenState, ReasonUnavailable},
		{"breaker half-open", gobreaker.ErrTooManyRequests, ReasonUnavailable},
		{"429", &HTTPStatusError{StatusCode: 429}, ReasonRateLimited},
		{"401", &HTTPStatusError{StatusCode: 401}, ReasonUnauthorized},
		{"403", &HTTPStatusError{StatusCode: 403}, ReasonUnauthorized},
		{"400", &HTTPStatusError{StatusCode: 400}, ReasonInvalidRequest},
		{"404", &HTTPStatusError{StatusCode: 404}, ReasonInvalidRequest},
		{"503", &HTTPStatusError{StatusCode: 503}, ReasonUnavailable},
		{"504", &HTTPStatusError{StatusCode: 504}, ReasonTimeout},
		{"googleapi 500", &googleapi.Error{Code: 500}, ReasonUnavailable},
		{"googleapi 429 wrapped", fmt.Errorf("retry: %w", &googleapi.Error{Code: 429}), ReasonRateLimited},
		{"connection refused", refused, ReasonUnavailable},
		{"generation error keeps reason", &GenerationError{Reason: ReasonEmptyResponse}, ReasonEmptyResponse},
		{"anything else", stderrors.New("mystery"), ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"attempt timeout", context.DeadlineExceeded, true},
		{"429", &HTTPStatusError{StatusCode: 429}, true},
		{"502", &googleapi.Error{Code: 502}, true},
		{"401", &HTTPStatusError{StatusCode: 401}, false},
		{"400", &googleapi.Error{Code: 400}, false},
		{"network", &net.OpError{Op: "dial", Err: stderrors.New("refused")}, true},
		{"plain", stderrors.New("bad input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestOutcome(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		out := Succeeded(&Generation{Text: "- Built X"})
		assert.True(t, out.OK())
		assert.NoError(t, out.Err())
	})

	t.Run("failure derives reason from cause", func(t *testing.T) {
		cause := &HTTPStatusError{StatusCode: 429, Body: "slow down"}
		out := Failed(ReasonNone, cause)
		assert.False(t, out.OK())
		assert.Equal(t, ReasonRateLimited, out.Reason)

		var genErr *GenerationError
		require.ErrorAs(t, out.Err(), &genErr)
		assert.Equal(t, ReasonRateLimited, genErr.Reason)
		assert.ErrorIs(t, out.Err(), cause)
		assert.Contains(t, out.Err().Error(), "rate_limited")
	})

	t.Run("zero outcome is an error", func(t *testing.T) {
		var genErr *GenerationError
		require.ErrorAs(t, Outcome{}.Err(), &genErr)
		assert.Equal(t, ReasonEmptyResponse, genErr.Reason)
	})
}
