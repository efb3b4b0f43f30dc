package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// FailureReason is a stable code describing why a generation failed
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonRateLimited    FailureReason = "rate_limited"
	ReasonTimeout        FailureReason = "timeout"
	ReasonUnavailable    FailureReason = "unavailable"
	ReasonUnauthorized   FailureReason = "unauthorized"
	ReasonInvalidRequest FailureReason = "invalid_request"
	ReasonEmptyResponse  FailureReason = "empty_response"
	ReasonCanceled       FailureReason = "canceled"
	ReasonUnknown        FailureReason = "unknown"
)

// Outcome is the result of a Generate call. Exactly one of Generation and
// Reason is set.
type Outcome struct {
	Generation *Generation
	Reason     FailureReason
	Cause      error
}

// Succeeded returns an Outcome carrying gen
func Succeeded(gen *Generation) Outcome {
	return Outcome{Generation: gen}
}

// Failed returns an Outcome for a failed call. An empty reason is derived
// from cause.
func Failed(reason FailureReason, cause error) Outcome {
	if reason == ReasonNone {
		reason = Classify(cause)
	}
	return Outcome{Reason: reason, Cause: cause}
}

// OK reports whether the call produced text
func (o Outcome) OK() bool {
	return o.Reason == ReasonNone && o.Generation != nil
}

// Err returns nil on success and a *GenerationError otherwise
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	reason := o.Reason
	if reason == ReasonNone {
		reason = ReasonEmptyResponse
	}
	return &GenerationError{Reason: reason, Cause: o.Cause}
}

// GenerationError is the error form of a failed Outcome
type GenerationError struct {
	Reason FailureReason
	Cause  error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// HTTPStatusError is returned by HTTP based providers for non-2xx responses
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Classify maps an error from a provider call to a FailureReason
func Classify(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Reason
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ReasonUnavailable
	}

	if code := statusCode(err); code != 0 {
		return reasonForStatus(code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout
		}
		return ReasonUnavailable
	}

	return ReasonUnknown
}

// statusCode extracts an HTTP status code from the known provider error types
func statusCode(err error) int {
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return googleErr.Code
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	return 0
}

func reasonForStatus(code int) FailureReason {
	switch {
	case code == http.StatusTooManyRequests:
		return ReasonRateLimited
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ReasonUnauthorized
	case code == http.StatusBadRequest, code == http.StatusNotFound, code == http.StatusUnprocessableEntity:
		return ReasonInvalidRequest
	case code == http.StatusGatewayTimeout, code == http.StatusRequestTimeout:
		return ReasonTimeout
	case code >= 500:
		return ReasonUnavailable
	default:
		return ReasonUnknown
	}
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	switch statusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	case 0:
	default:
		return false
	}

	// Timeouts and connection errors
	var netErr net.Error
	return errors.As(err, &netErr)
}
