// Package config provides configuration management for the function executor.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration structure for the executor.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Functions   FunctionsConfig   `mapstructure:"functions"`
	InternalAPI InternalAPIConfig `mapstructure:"internal_api"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Host to bind the listener to
	Host string `mapstructure:"host"`

	// Port to listen on
	Port int `mapstructure:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// Maximum request body size in bytes
	MaxBodySize int64 `mapstructure:"max_body_size"`

	// Gzip responses when the client accepts it
	Compress bool `mapstructure:"compress"`
}

// FunctionsConfig holds function discovery settings.
type FunctionsConfig struct {
	// Path to the functions directory
	Path string `mapstructure:"path"`

	// Clear the function cache when files under Path change
	Watch bool `mapstructure:"watch"`

	// Glob patterns for entries hidden from listing
	Ignore []string `mapstructure:"ignore"`

	// Quiet period before a change clears the cache
	Debounce time.Duration `mapstructure:"debounce"`
}

// InternalAPIConfig holds settings for calls functions make back to Alyx.
type InternalAPIConfig struct {
	// Per-request timeout for database calls
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds host log settings. Function logs are never written here.
type LoggingConfig struct {
	// Log level (trace, debug, info, warn, error, fatal, panic)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`

	// Include caller info
	Caller bool `mapstructure:"caller"`

	// Include timestamp
	Timestamp bool `mapstructure:"timestamp"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Address returns the listener address in host:port format.
func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
