package config

import "time"

// Default configuration values.
const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8080
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultMaxBodySize  = 10 * 1024 * 1024 // 10MB

	DefaultFunctionsPath = "/functions"
	DefaultDebounce      = 100 * time.Millisecond

	DefaultInternalAPITimeout = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMetricsPath = "/metrics"
)

// DefaultIgnore hides private and dot entries from function listings.
var DefaultIgnore = []string{"_*", ".*"}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			MaxBodySize:  DefaultMaxBodySize,
			Compress:     false,
		},
		Functions: FunctionsConfig{
			Path:     DefaultFunctionsPath,
			Watch:    false,
			Ignore:   append([]string(nil), DefaultIgnore...),
			Debounce: DefaultDebounce,
		},
		InternalAPI: InternalAPIConfig{
			Timeout: DefaultInternalAPITimeout,
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			Caller:    false,
			Timestamp: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}
