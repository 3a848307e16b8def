package config

import "fmt"

// ValidateTLSConfig checks the TLS mode, certificate sources and minimum
// version.
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS
	if err := validateTLSMode(tls); err != nil {
		return err
	}
	return validateTLSVersion(tls)
}

func validateTLSMode(tls TLSConfig) error {
	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", tls.Mode)
	}

	certSources := countSet(tls.CertFile, tls.CertContent)
	keySources := countSet(tls.KeyFile, tls.KeyContent)
	switch {
	case certSources == 0 || keySources == 0:
		return fmt.Errorf("TLS certificate and key are required for server mode (provide either files or content)")
	case certSources > 1:
		return fmt.Errorf("cannot specify both certFile and certContent - choose one")
	case keySources > 1:
		return fmt.Errorf("cannot specify both keyFile and keyContent - choose one")
	}
	return nil
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	}
	return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
}

// UsesFileCertificates reports whether the server certificate comes from
// disk, the only case where watching for changes makes sense.
func (t TLSConfig) UsesFileCertificates() bool {
	return t.CertFile != "" && t.KeyFile != "" && t.CertContent == "" && t.KeyContent == ""
}
