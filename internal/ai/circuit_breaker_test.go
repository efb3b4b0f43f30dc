package ai

import (
	stderrors "errors"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/sony/gobreaker/v2"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewCircuitBreaker[string]("Disabled", config.CircuitBreakerConfig{Enabled: false}, errors.Discard())
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// nil breaker executes directly and reports healthy
	got, err := cb.Execute(func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("Execute() = %q, %v; want ok, nil", got, err)
	}
	if !cb.IsHealthy() {
		t.Error("nil circuit breaker should be healthy")
	}
	if enabled := cb.Stats()["enabled"]; enabled != false {
		t.Errorf("Expected enabled=false, got %v", enabled)
	}
}

func TestCircuitBreakerStats(t *testing.T) {
	cb := NewCircuitBreaker[string]("gemini", testBreakerConfig(), errors.Discard())
	if cb == nil {
		t.Fatal("Circuit breaker should not be nil")
	}

	stats := cb.Stats()

	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("Circuit breaker name not found")
	}
	if name != "AI-gemini" {
		t.Errorf("Expected circuit breaker name 'AI-gemini', got '%s'", name)
	}

	state, ok := stats["state"].(string)
	if !ok {
		t.Fatal("Circuit breaker state not found")
	}
	if state != "closed" {
		t.Errorf("Expected initial state 'closed', got '%s'", state)
	}

	if enabled, _ := stats["enabled"].(bool); !enabled {
		t.Error("Circuit breaker should be enabled")
	}
	if !cb.IsHealthy() {
		t.Error("Circuit breaker should be healthy initially")
	}
}

func TestCircuitBreakerTrips(t *testing.T) {
	cb := NewCircuitBreaker[string]("trip", testBreakerConfig(), errors.Discard())
	failure := stderrors.New("upstream down")

	for range 2 {
		if _, err := cb.Execute(func() (string, error) { return "", failure }); !stderrors.Is(err, failure) {
			t.Fatalf("Expected upstream error, got %v", err)
		}
	}

	if cb.IsHealthy() {
		t.Fatal("Circuit breaker should be open after repeated failures")
	}

	called := false
	_, err := cb.Execute(func() (string, error) {
		called = true
		return "ok", nil
	})
	if !stderrors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}
	if called {
		t.Error("Open circuit breaker should not call the function")
	}
	if reason := Classify(err); reason != ReasonUnavailable {
		t.Errorf("Classify(open state) = %q, want %q", reason, ReasonUnavailable)
	}
}

func TestCircuitBreakerIndependentInstances(t *testing.T) {
	first := NewCircuitBreaker[string]("first", testBreakerConfig(), errors.Discard())
	second := NewCircuitBreaker[string]("second", testBreakerConfig(), errors.Discard())
	failure := stderrors.New("boom")

	for range 2 {
		_, _ = first.Execute(func() (string, error) { return "", failure })
	}

	if first.IsHealthy() {
		t.Error("first breaker should be open")
	}
	if !second.IsHealthy() {
		t.Error("second breaker should be unaffected")
	}
}
