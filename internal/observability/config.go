package observability

import (
	"time"

	"resumescreener/internal/config"
)

const defaultCollectionInterval = 15 * time.Second

// ObservabilityConfig is the flattened view of the observability settings
// the Manager works from.
type ObservabilityConfig struct {
	ServiceName        string
	ServiceVersion     string
	ServiceInstance    string
	Enabled            bool
	ConsoleOutput      bool
	PrettyPrint        bool
	SampleRate         float64
	CollectionInterval time.Duration
	Prometheus         PrometheusConfig
	OTLP               config.OTLPConfig
	CustomMetrics      config.CustomMetricsConfig
}

// GetObservabilityConfig flattens cfg. The application version is used when
// no service version is configured. A nil cfg gives the development defaults:
// everything on, printed to the console.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return developmentConfig(version)
	}

	obs := cfg.Observability
	out := ObservabilityConfig{
		ServiceName:        obs.ServiceName,
		ServiceVersion:     obs.ServiceVersion,
		ServiceInstance:    obs.ServiceInstance,
		Enabled:            obs.Enabled,
		ConsoleOutput:      obs.ConsoleOutput,
		PrettyPrint:        obs.Console.PrettyPrint,
		SampleRate:         obs.SampleRate,
		CollectionInterval: obs.Metrics.CollectionInterval,
		Prometheus:         GetPrometheusConfig(cfg),
		OTLP:               obs.OTLP,
		CustomMetrics:      obs.CustomMetrics,
	}
	if out.ServiceVersion == "" {
		out.ServiceVersion = version
	}
	if out.CollectionInterval <= 0 {
		out.CollectionInterval = defaultCollectionInterval
	}
	return out
}

func developmentConfig(version string) ObservabilityConfig {
	return ObservabilityConfig{
		ServiceName:        serviceName,
		ServiceVersion:     version,
		ServiceInstance:    serviceName + "-1",
		Enabled:            true,
		ConsoleOutput:      true,
		PrettyPrint:        true,
		SampleRate:         1.0,
		CollectionInterval: defaultCollectionInterval,
		Prometheus:         GetPrometheusConfig(nil),
		CustomMetrics: config.CustomMetricsConfig{
			AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
			ScreeningRuns:   config.ScreeningMetricsConfig{Enabled: true, TrackCandidates: true, TrackTopScore: true, TrackRunDuration: true},
			TrackRateLimits: true,
		},
	}
}
