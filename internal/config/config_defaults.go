package config

import (
	"time"

	"github.com/spf13/viper"
)

// defaults are registered with viper key by key so that every key can also
// be set from the environment.
var defaults = map[string]map[string]any{
	"ai": {
		"provider":         "gemini",
		"model":            "gemini-2.0-flash",
		"timeout":          30 * time.Second,
		"apiKey":           "",
		"temperature":      0.2,
		"useSystemPrompts": true,
	},
	"screening": {
		"maxFiles":                50,
		"minJobDescriptionLength": 1,
		"maxJobDescriptionLength": 10000,
		"generateExplanations":    true,
		"jobSummaryLength":        200,
	},
	"server": {
		"host":          "localhost",
		"port":          "8080",
		"readTimeout":   60 * time.Second,
		"writeTimeout":  10 * time.Minute, // a 50-resume batch runs sequentially
		"idleTimeout":   120 * time.Second,
		"maxUploadSize": 64 << 20,
	},
	"server.tls": {
		"mode":                     "disabled",
		"certFile":                 "",
		"keyFile":                  "",
		"minVersion":               "1.2",
		"autoReload.enabled":       true,
		"autoReload.debounceDelay": time.Second,
	},
	"server.rateLimit": {
		"enabled":        false,
		"requestsPerMin": 30,
		"burstCapacity":  5,
		"byIP":           true,
		"cleanupEvery":   5 * time.Minute,
	},
	"app": {
		"logLevel":         "info",
		"defaultFormat":    "json",
		"supportedFormats": []string{"json", "yaml", "text", "markdown"},
		"maxFileSize":      10 << 20,
	},
	"vault": {
		"enabled":   false,
		"address":   "",
		"token":     "",
		"tokenFile": "",
		"namespace": "",
	},
	"vault.secrets": {
		"geminiKey": "",
		"tlsCerts":  "",
	},
	"observability": {
		"enabled":         true,
		"serviceName":     "resume-screener",
		"serviceVersion":  "",
		"serviceInstance": "",
		"consoleOutput":   false,
		"sampleRate":      1.0,
	},
	"observability.metrics": {
		"collectionInterval": 15 * time.Second,
	},
	"observability.customMetrics": {
		"aiOperations.enabled":           true,
		"aiOperations.trackDuration":     true,
		"aiOperations.trackTokenUsage":   true,
		"screeningRuns.enabled":          true,
		"screeningRuns.trackCandidates":  true,
		"screeningRuns.trackTopScore":    true,
		"screeningRuns.trackRunDuration": true,
		"trackRateLimits":                true,
	},
	"observability.console": {
		"prettyPrint": true,
	},
	"observability.prometheus": {
		"enabled":  false,
		"endpoint": "/metrics",
		"port":     "9090",
	},
	"observability.otlp": {
		"enabled":  false,
		"endpoint": "http://localhost:4318",
		"insecure": true,
		"headers":  map[string]string{},
	},
	"observability.healthCheck": {
		"timeout":             15 * time.Second,
		"aiModelCheckTimeout": 10 * time.Second,
	},
}

// Extraction wants stable output; explanations may be a little freer.
var operationDefaults = []struct {
	name        string
	timeout     time.Duration
	temperature float64
}{
	{OperationRequirements, 30 * time.Second, 0.1},
	{OperationResume, 30 * time.Second, 0.1},
	{OperationExplain, 15 * time.Second, 0.4},
}

func setDefaults(v *viper.Viper) {
	for section, values := range defaults {
		for key, value := range values {
			v.SetDefault(section+"."+key, value)
		}
	}

	for _, op := range operationDefaults {
		prefix := "ai." + op.name + "."
		for key, value := range map[string]any{
			"provider":                        "gemini",
			"model":                           "",
			"apiKey":                          "",
			"timeout":                         op.timeout,
			"temperature":                     op.temperature,
			"circuitBreaker.enabled":          true,
			"circuitBreaker.maxRequests":      3,
			"circuitBreaker.interval":         time.Minute,
			"circuitBreaker.timeout":          time.Minute,
			"circuitBreaker.minRequests":      5,
			"circuitBreaker.failureThreshold": 0.6,
		} {
			v.SetDefault(prefix+key, value)
		}
	}
}
