package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
)

// Certificates expiring within these windows degrade the health report
const (
	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
)

// healthHandler reports service health. With ?model=true it also asks the
// generator whether its model is reachable.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "resumeforge",
		"version":   s.Version,
	}
	healthy := true

	if r.URL.Query().Get("model") == "true" {
		info := s.checkModelHealth(r.Context())
		response["model"] = info
		if !info.Available {
			healthy = false
		}
	}

	if reporter, ok := s.deps.Generator.(ai.BreakerReporter); ok {
		response["circuit_breakers"] = reporter.BreakerStats()
		if !reporter.IsHealthy() {
			healthy = false
		}
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkModelHealth asks the generator for model availability within the
// configured model check timeout
func (s *Server) checkModelHealth(ctx context.Context) *ai.ModelInfo {
	timeout := s.AppConfig.AI.ModelCheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	info := s.deps.Generator.ModelInfo(ctx)
	if info == nil {
		return &ai.ModelInfo{Available: false, Error: "model information unavailable"}
	}
	return info
}

// checkCertificateHealth reports TLS certificate expiry, or nil when the
// server is not reloading certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.Certificates == nil {
		return nil
	}

	certStatus := make(map[string]any)
	timeToExpiry, err := s.Certificates.TimeToExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= certCriticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= certWarningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	certStatus["reload"] = s.Certificates.Stats()
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service":        "resumeforge",
		"version":        s.Version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"server": map[string]any{
			"max_request_size_bytes": s.Config.MaxRequestSize,
			"delete_after_download":  s.Config.DeleteAfterDownload,
			"tls_mode":               s.Config.TLS.Mode,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.deps.Store != nil {
		if stats, err := s.deps.Store.Stats(); err == nil {
			response["storage"] = stats
		} else {
			s.logger.LogError(err, "Failed to collect storage stats")
			response["storage"] = map[string]any{"error": err.Error()}
		}
	}

	if reporter, ok := s.deps.Generator.(ai.BreakerReporter); ok {
		response["circuit_breakers"] = reporter.BreakerStats()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses a JSON request body into v. The returned status is
// the one the caller should answer with on error.
func parseJSONRequest(r *http.Request, v any) (int, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return http.StatusUnsupportedMediaType, fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return http.StatusBadRequest, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return http.StatusOK, nil
}

// statusForReason maps a generation failure reason to an HTTP status
func statusForReason(reason ai.FailureReason) int {
	switch reason {
	case ai.ReasonRateLimited:
		return http.StatusTooManyRequests
	case ai.ReasonTimeout:
		return http.StatusGatewayTimeout
	case ai.ReasonUnavailable, ai.ReasonCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// writeAppError answers with the status that fits err. Generation failures
// carry their reason in the body.
func (s *Server) writeAppError(w http.ResponseWriter, title string, err error) {
	var genErr *ai.GenerationError
	if stderrors.As(err, &genErr) {
		reason := ai.Classify(err)
		s.logger.LogError(err, title, "reason", string(reason))
		writeJSON(w, statusForReason(reason), ErrorResponse{
			Error:   title,
			Message: err.Error(),
			Reason:  string(reason),
		})
		return
	}

	status := http.StatusInternalServerError
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Type {
		case errors.ErrorTypeValidation, errors.ErrorTypeDocument:
			status = http.StatusBadRequest
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.LogError(err, title)
	}
	writeErrorResponse(w, title, err.Error(), status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: error, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
