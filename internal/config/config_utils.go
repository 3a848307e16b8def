package config

import (
	"fmt"
	"net"
	"os"

	"resumescreener/internal/errors"
)

// envSources are the variables worth reporting when they override a value.
var envSources = []string{
	EnvPrefix + "_AI_APIKEY",
	EnvPrefix + "_AI_MODEL",
	EnvPrefix + "_SERVER_PORT",
	EnvPrefix + "_SERVER_HOST",
	EnvPrefix + "_APP_LOGLEVEL",
	EnvPrefix + "_VAULT_ENABLED",
	"GEMINI_API_KEY",
}

// applyFallbacks fills values that depend on other settings or on the
// GEMINI_API_KEY variable used by Google's own tooling.
func (c *Config) applyFallbacks() {
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode == "server" {
		c.Server.TLS.MinVersion = "1.2"
	}
	if c.Observability.ServiceInstance == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "1"
		}
		c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, host)
	}
	if c.App.LogLevel == "debug" {
		c.Observability.ConsoleOutput = true
	}
}

// logSources records where the configuration came from. Only the names of
// environment overrides are logged, never their values.
func (c *Config) logSources(logger *errors.Logger, configFile string, dotenvLoaded bool) {
	if configFile == "" {
		configFile = "none"
	}
	var overrides []string
	for _, name := range envSources {
		if os.Getenv(name) != "" {
			overrides = append(overrides, name)
		}
	}

	logger.Debug("Configuration loaded",
		"config_file", configFile,
		"dotenv", dotenvLoaded,
		"env_overrides", overrides,
		"model", c.AI.Model,
		"api_key_set", c.AI.APIKey != "",
		"max_files", c.Screening.MaxFiles,
		"job_description_length", fmt.Sprintf("%d..%d", c.Screening.MinJobDescriptionLength, c.Screening.MaxJobDescriptionLength),
		"server", net.JoinHostPort(c.Server.Host, c.Server.Port),
		"tls_mode", c.Server.TLS.Mode,
		"vault", c.Vault.Enabled,
		"observability", c.Observability.Enabled)
}
