package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"resumescreener/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the screener reads.
const EnvPrefix = "SCREENER"

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (SCREENER_AI_APIKEY, then GEMINI_API_KEY)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Screening     ScreeningConfig     `mapstructure:"screening"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds global AI settings plus one block per extraction operation.
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`

	Requirements OperationAIConfig `mapstructure:"requirements"`
	Resume       OperationAIConfig `mapstructure:"resume"`
	Explain      OperationAIConfig `mapstructure:"explain"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for one operation. Unset fields
// fall back to the global AIConfig values.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	Prompts          PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig overrides the built-in prompts of an operation. A file path
// takes precedence over the inline text and is read at load time.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// ScreeningConfig holds the batch limits and pipeline switches.
type ScreeningConfig struct {
	MaxFiles                int  `mapstructure:"maxFiles"`
	MinJobDescriptionLength int  `mapstructure:"minJobDescriptionLength"`
	MaxJobDescriptionLength int  `mapstructure:"maxJobDescriptionLength"`
	GenerateExplanations    bool `mapstructure:"generateExplanations"`
	JobSummaryLength        int  `mapstructure:"jobSummaryLength"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string          `mapstructure:"host"`
	Port          string          `mapstructure:"port"`
	ReadTimeout   time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout  time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout   time.Duration   `mapstructure:"idleTimeout"`
	MaxUploadSize int64           `mapstructure:"maxUploadSize"`
	TLS           TLSConfig       `mapstructure:"tls"`
	RateLimit     RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds server-side TLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // "disabled" or "server"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)

	// Certificate content, used when loaded from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`

	MinVersion string           `mapstructure:"minVersion"` // "1.2" or "1.3"
	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls reloading certificate files when they change on disk.
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	CleanupEvery   time.Duration `mapstructure:"cleanupEvery"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig switches groups of custom metrics on and off.
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig `mapstructure:"aiOperations"`
	ScreeningRuns   ScreeningMetricsConfig    `mapstructure:"screeningRuns"`
	TrackRateLimits bool                      `mapstructure:"trackRateLimits"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// ScreeningMetricsConfig holds screening run metrics configuration
type ScreeningMetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TrackCandidates  bool `mapstructure:"trackCandidates"`
	TrackTopScore    bool `mapstructure:"trackTopScore"`
	TrackRunDuration bool `mapstructure:"trackRunDuration"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from a .env file, environment variables
// and a config file, in that order of discovery.
func LoadConfig() (*Config, error) {
	dotenvLoaded := godotenv.Load() == nil

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	logger, err := errors.New(config.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid app.logLevel: %w", err)
	}
	config.logSources(logger, v.ConfigFileUsed(), dotenvLoaded)

	if err := config.loadPromptFiles(logger); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if config.Vault.Enabled {
		if err := ApplyVaultSecrets(config, logger); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/screener/")
	v.AddConfigPath("$HOME/.screener")
	v.AddConfigPath(".")
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.applyFallbacks()
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required (set %s_AI_APIKEY or GEMINI_API_KEY)", EnvPrefix)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	for _, op := range c.operations() {
		resolved := c.resolve(*op.cfg)
		if resolved.Provider != "gemini" {
			return fmt.Errorf("unsupported AI provider for %s: %s", op.name, resolved.Provider)
		}
		if *resolved.Timeout <= 0 {
			return fmt.Errorf("AI timeout for %s must be positive", op.name)
		}
	}

	if c.Screening.MaxFiles <= 0 {
		return fmt.Errorf("screening.maxFiles must be positive")
	}
	if c.Screening.MinJobDescriptionLength < 0 || c.Screening.MinJobDescriptionLength > c.Screening.MaxJobDescriptionLength {
		return fmt.Errorf("invalid job description length bounds: %d..%d",
			c.Screening.MinJobDescriptionLength, c.Screening.MaxJobDescriptionLength)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
