package server

import (
	"net/http"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/storage"
	"resumeforge/internal/tailor"
	"resumeforge/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// SuggestRequest is the body of POST /suggest
type SuggestRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

// UploadResponse is returned by POST /upload
type UploadResponse struct {
	Success     bool                      `json:"success"`
	SessionID   string                    `json:"session_id"`
	Message     string                    `json:"message"`
	DownloadURL string                    `json:"download_url"`
	Mode        string                    `json:"mode"`
	Stats       types.ReconstructionStats `json:"stats"`
}

// Dependencies are the collaborators the handlers call. Obs may be nil.
type Dependencies struct {
	Generator ai.TextGenerator
	Tailor    *tailor.Service
	Store     *storage.Store
	Obs       *observability.ObservabilityManager
}

// Server holds configuration for the HTTP server
type Server struct {
	Version string

	// Full application configuration
	AppConfig *config.Config
	Config    config.ServerConfig

	// API Authentication
	APIKeys map[string]bool

	// Rate limiting
	RateLimiter *LimiterManager

	// TLS certificate reloading, set by Start when enabled
	Certificates *CertReloader

	deps    Dependencies
	metrics *observability.Metrics
	logger  *errors.Logger
	started time.Time
	handler http.Handler
}

// NewServer creates a Server from the application configuration
func NewServer(appCfg *config.Config, version string, deps Dependencies, logger *errors.Logger) *Server {
	cfg := appCfg.Server

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	s := &Server{
		Version:     version,
		AppConfig:   appCfg,
		Config:      cfg,
		APIKeys:     apiKeyMap,
		RateLimiter: rateLimiter,
		deps:        deps,
		metrics:     deps.Obs.GetMetrics(),
		logger:      logger,
		started:     time.Now(),
	}
	s.handler = s.setupRoutes()
	return s
}

// ServeHTTP dispatches to the router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close releases background resources held by the server
func (s *Server) Close() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
	if s.Certificates != nil {
		if err := s.Certificates.Stop(); err != nil {
			s.logger.LogError(err, "Failed to stop certificate reloader")
		}
	}
}
