package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"resumescreener/internal/config"
	"resumescreener/internal/errors"
)

// certificateStore serves the current server certificate and swaps it in
// place when the files on disk change.
type certificateStore struct {
	mu       sync.RWMutex
	cfg      config.TLSConfig
	cert     *tls.Certificate
	notAfter time.Time

	reloadCount   int
	reloadFailure int
	lastReload    time.Time
	lastError     string

	watcher *CertWatcher
	logger  *errors.Logger
}

func newCertificateStore(cfg config.TLSConfig, logger *errors.Logger) (*certificateStore, error) {
	cs := &certificateStore{cfg: cfg, logger: logger}
	if err := cs.load(); err != nil {
		return nil, err
	}
	return cs, nil
}

// load reads the certificate pair from content or files and replaces the
// served certificate.
func (cs *certificateStore) load() error {
	cert, err := loadServerCertificate(cs.cfg)
	if err != nil {
		return err
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	cs.mu.Lock()
	cs.cert = &cert
	cs.notAfter = leaf.NotAfter
	cs.mu.Unlock()
	return nil
}

// Reload is the CertWatcher callback. A failed reload keeps the previous
// certificate in service.
func (cs *certificateStore) Reload() {
	err := cs.load()

	cs.mu.Lock()
	cs.reloadCount++
	cs.lastReload = time.Now()
	if err != nil {
		cs.reloadFailure++
		cs.lastError = err.Error()
	} else {
		cs.lastError = ""
	}
	cs.mu.Unlock()

	if err != nil {
		cs.logger.LogError(err, "Failed to reload TLS certificates")
		return
	}
	cs.logger.Info("TLS certificates reloaded successfully")
}

// GetCertificate implements tls.Config.GetCertificate.
func (cs *certificateStore) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.cert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cs.cert, nil
}

// TimeToExpiry returns how long the served certificate stays valid.
func (cs *certificateStore) TimeToExpiry(now time.Time) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.cert == nil {
		return 0, fmt.Errorf("no server certificate loaded")
	}
	return cs.notAfter.Sub(now), nil
}

// Status reports the reload counters and the watcher state.
func (cs *certificateStore) Status() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	status := map[string]any{
		"not_after":      cs.notAfter,
		"reload_count":   cs.reloadCount,
		"reload_failure": cs.reloadFailure,
		"auto_reload":    cs.watcher != nil,
	}
	if !cs.lastReload.IsZero() {
		status["last_reload_time"] = cs.lastReload
	}
	if cs.lastError != "" {
		status["last_reload_error"] = cs.lastError
	}
	if cs.watcher != nil {
		status["watcher_running"] = cs.watcher.IsRunning()
		status["watched_files"] = cs.watcher.GetWatchedFiles()
	}
	return status
}

// watch starts reloading on file changes. Only file based certificates can
// be watched.
func (cs *certificateStore) watch() error {
	if !cs.cfg.AutoReload.Enabled || !cs.cfg.UsesFileCertificates() {
		return nil
	}

	watcher := NewCertWatcher(cs.cfg.CertFile, cs.cfg.KeyFile, cs.cfg.AutoReload.DebounceDelay, cs.Reload, cs.logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}

	cs.mu.Lock()
	cs.watcher = watcher
	cs.mu.Unlock()
	return nil
}

func (cs *certificateStore) stop() error {
	cs.mu.RLock()
	watcher := cs.watcher
	cs.mu.RUnlock()
	if watcher == nil {
		return nil
	}
	return watcher.Stop()
}

// configureTLS loads the certificate and returns the TLS configuration, or
// nil when TLS is disabled.
func (s *Server) configureTLS() (*tls.Config, error) {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil, nil
	case "server":
	default:
		return nil, fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", s.TLSConfig.Mode)
	}

	certs, err := newCertificateStore(s.TLSConfig, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up TLS: %w", err)
	}
	if err := certs.watch(); err != nil {
		return nil, err
	}
	s.certs = certs

	return buildTLSConfig(s.TLSConfig, certs), nil
}

func buildTLSConfig(cfg config.TLSConfig, certs *certificateStore) *tls.Config {
	tlsConfig := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: certs.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}
	if cfg.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}
	return tlsConfig
}

// loadServerCertificate loads the server certificate from content or files
func loadServerCertificate(cfg config.TLSConfig) (tls.Certificate, error) {
	if cfg.CertContent != "" && cfg.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}
