package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"resumescreener/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KVv2 read paths,
// e.g. "secret/data/screener/gemini").
type VaultSecrets struct {
	GeminiKey string `mapstructure:"geminiKey"` // key "api_key"
	TLSCerts  string `mapstructure:"tlsCerts"`  // keys "cert" and "key"
}

// VaultSecret is the data and version of one KVv2 secret.
type VaultSecret struct {
	Data    map[string]any
	Version int
}

// secretReader is the part of VaultClient the secret loaders need.
type secretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
}

const vaultReadTimeout = 10 * time.Second

// VaultClient reads KVv2 secrets.
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	ctx, cancel := context.WithTimeout(context.Background(), vaultReadTimeout)
	defer cancel()
	health, err := client.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiConfig.Address, err)
	}
	if health.Sealed {
		return nil, fmt.Errorf("vault at %s is sealed", apiConfig.Address)
	}
	logger.Info("Connected to Vault",
		"address", apiConfig.Address,
		"version", health.Version,
		"cluster_name", health.ClusterName)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file.
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// splitKVv2Path splits a configured secret path into the engine mount and
// the secret path. Both "secret/data/app/key" (the HTTP API form) and
// "secret/app/key" are accepted.
func splitKVv2Path(path string) (mount, secret string, err error) {
	mount, rest, ok := strings.Cut(strings.Trim(path, "/"), "/")
	if !ok || mount == "" || rest == "" {
		return "", "", fmt.Errorf("invalid KVv2 secret path %q (expected <mount>/<path>)", path)
	}
	if after, found := strings.CutPrefix(rest, "data/"); found && after != "" {
		rest = after
	}
	return mount, rest, nil
}

// GetSecretV2 reads the latest version of a KVv2 secret.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	mount, secretPath, err := splitKVv2Path(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), vaultReadTimeout)
	defer cancel()
	secret, err := vc.client.KVv2(mount).Get(ctx, secretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	result := &VaultSecret{Data: secret.Data}
	if secret.VersionMetadata != nil {
		result.Version = secret.VersionMetadata.Version
	}
	vc.logger.Debug("Read secret from Vault", "path", path, "version", result.Version)
	return result, nil
}

// GetStringSecret reads one string field of a KVv2 secret.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, err := stringField(secret, path, key)
	if err != nil {
		return "", err
	}
	vc.logger.Debug("Read string secret from Vault", "path", path, "key", key, "value", maskSecret(value))
	return value, nil
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case len(value) > 0:
		return "****"
	default:
		return ""
	}
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	logger.Info("Loading secrets from Vault",
		"gemini_key_path", config.Vault.Secrets.GeminiKey,
		"tls_certs_path", config.Vault.Secrets.TLSCerts)

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	return applySecrets(client, config, logger)
}

func applySecrets(client secretReader, config *Config, logger *errors.Logger) error {
	if err := loadGeminiKey(client, config, logger); err != nil {
		return err
	}
	if err := loadTLSCerts(client, config, logger); err != nil {
		return err
	}
	logger.Info("Successfully completed applying secrets from Vault")
	return nil
}

func loadGeminiKey(client secretReader, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.GeminiKey
	if path == "" {
		return nil
	}

	geminiKey, err := client.GetStringSecret(path, "api_key")
	if err != nil {
		logger.LogError(err, "Failed to load Gemini API key from Vault", "path", path)
		return fmt.Errorf("failed to load Gemini API key from vault: %w", err)
	}

	if geminiKey == "" {
		logger.Warn("Empty Gemini API key found in Vault", "path", path)
		return nil
	}

	applyGeminiKeyToConfig(config, geminiKey)
	logger.Info("Gemini API key loaded from Vault and applied to all AI configurations")
	return nil
}

// applyGeminiKeyToConfig sets the global key and fills any operation that
// has no key of its own.
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	for _, op := range config.operations() {
		if op.cfg.APIKey == "" {
			op.cfg.APIKey = geminiKey
		}
	}
}

func loadTLSCerts(client secretReader, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.TLSCerts
	if path == "" {
		return nil
	}

	tlsData, err := client.GetSecretV2(path)
	if err != nil {
		logger.LogError(err, "Failed to load TLS certificates from Vault", "path", path)
		return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
	}

	for _, field := range []string{"cert_file", "key_file"} {
		if _, found := tlsData.Data[field]; found {
			return fmt.Errorf("vault TLS configuration error: '%s' field is no longer supported. Store certificate content in '%s' field instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}

	loaded := 0
	loaded += loadSingleCertificate(tlsData, "cert", &config.Server.TLS.CertContent)
	loaded += loadSingleCertificate(tlsData, "key", &config.Server.TLS.KeyContent)

	// Content from Vault replaces any file paths so only one source is configured.
	if config.Server.TLS.CertContent != "" {
		config.Server.TLS.CertFile = ""
	}
	if config.Server.TLS.KeyContent != "" {
		config.Server.TLS.KeyFile = ""
	}

	logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	return nil
}

func loadSingleCertificate(tlsData *VaultSecret, key string, target *string) int {
	if content, ok := tlsData.Data[key].(string); ok && content != "" {
		*target = content
		return 1
	}
	return 0
}
