package cli

import (
	"fmt"

	"resumescreener/internal/config"
	"resumescreener/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume screening",
	Long: `Start an HTTP server that exposes the screening pipeline as a REST API.

Available endpoints:
- POST /screen: Screen uploaded PDF resumes (multipart form)
- POST /screen/text: Screen plain text resumes (JSON)
- POST /analyze: Extract requirements from a job description
- GET /health: Health check including AI models and certificates
- GET /stats: Server limits and rate limiting info

Screening endpoints accept ?format=json|csv|pdf.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeFlags(cmd, &cfg.Server)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	svc, err := newServices(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := server.NewServer(server.NewServerConfig(cfg, Version), svc.screener, svc.ai, svc.observability, logger)
	return srv.Start(cmd.Context())
}

// applyServeFlags copies the flags that were set on the command line over
// the loaded server configuration.
func applyServeFlags(cmd *cobra.Command, serverCfg *config.ServerConfig) {
	overrides := map[string]*string{
		"port":      &serverCfg.Port,
		"host":      &serverCfg.Host,
		"tls-mode":  &serverCfg.TLS.Mode,
		"cert-file": &serverCfg.TLS.CertFile,
		"key-file":  &serverCfg.TLS.KeyFile,
	}
	for name, target := range overrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if value, err := cmd.Flags().GetString(name); err == nil {
			*target = value
		}
	}
}
