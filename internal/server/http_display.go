package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(tlsEnabled bool) {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	fmt.Printf("Starting server on %s://%s:%s\n", scheme, s.Host, s.Port)

	s.displayEndpoints()
	s.displayLimits()
	s.displayRateLimitInfo()
	if tlsEnabled && s.certs != nil && s.certs.watcher != nil {
		fmt.Println("TLS auto-reload: ENABLED (file watching)")
	}
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health       - Health check with AI model status")
	fmt.Println("  GET  /stats        - Server statistics")
	fmt.Println("  POST /screen       - Screen PDF resumes (multipart: jobDescription, resumes)")
	fmt.Println("  POST /screen/text  - Screen plain text resumes (JSON)")
	fmt.Println("  POST /analyze      - Extract job requirements (JSON)")
}

// displayLimits shows upload and batch limits
func (s *Server) displayLimits() {
	if s.MaxUploadSize > 0 {
		fmt.Printf("Upload size limit: %d bytes (%.1f MB)\n", s.MaxUploadSize, float64(s.MaxUploadSize)/(1024*1024))
	} else {
		fmt.Println("Upload size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
	fmt.Printf("Batch limit: %d resumes per request\n", s.Screening.MaxFiles)
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter == nil {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	scope := "shared by all clients"
	if s.RateLimit.ByIP {
		scope = "per IP"
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min %s, burst: %d)\n",
		s.RateLimit.RequestsPerMin, scope, s.RateLimit.BurstCapacity)
}
