package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Start serves the API until ctx is cancelled, then drains in-flight
// requests and releases the certificate watcher and rate limiter.
func (s *Server) Start(ctx context.Context) error {
	httpServer, err := s.newHTTPServer()
	if err != nil {
		return err
	}
	defer s.cleanup()

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	tlsEnabled := httpServer.TLSConfig != nil
	s.displayServerInfo(tlsEnabled)
	s.Logger.Info("Starting HTTP server", "address", listener.Addr().String(), "tls_enabled", tlsEnabled)

	served := make(chan error, 1)
	go func() {
		if tlsEnabled {
			// Certificates come from TLSConfig.GetCertificate.
			served <- httpServer.ServeTLS(listener, "", "")
			return
		}
		served <- httpServer.Serve(listener)
	}()

	select {
	case err := <-served:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Shutdown requested, draining connections", "timeout", shutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Graceful shutdown timed out, closing connections")
		return httpServer.Close()
	}
	s.Logger.Info("Server shutdown completed")
	return nil
}

func (s *Server) newHTTPServer() (*http.Server, error) {
	tlsConfig, err := s.configureTLS()
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              net.JoinHostPort(s.Host, s.Port),
		Handler:           s.Handler(),
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
		ErrorLog:          s.Logger.StdLogger(),
	}, nil
}

func (s *Server) cleanup() {
	if s.certs != nil {
		if err := s.certs.stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
