package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health               - Health check (?model=true checks the model)")
	fmt.Println("  GET  /stats                - Server statistics")
	fmt.Println("  POST /upload               - Tailor a resume (requires API key)")
	fmt.Println("  GET  /download/{sessionID} - Download a tailored resume (requires API key)")
	fmt.Println("  POST /reconstruct          - Substitute bullets without a model (requires API key)")
	fmt.Println("  POST /suggest              - Keyword suggestions (requires API key)")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to protected endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.Config.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.Config.MaxRequestSize, float64(s.Config.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	rl := s.Config.RateLimit
	if rl.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n", rl.RequestsPerMin, rl.BurstCapacity)
		if rl.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if rl.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}
