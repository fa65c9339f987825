// Package config provides configuration management for formrel services.
package config

import "time"

// Config is the full runtime configuration.
type Config struct {
	Server ServerConfig
	Engine EngineConfig
	Log    LogConfig
	DB     DBConfig
}

// ServerConfig holds configuration for the gRPC relation service.
type ServerConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
	MaxFields      int     // upper bound on fields per submitted definition
	RateLimit      float64 // requests per second per tenant, 0 disables
	RateBurst      int
}

// EngineConfig selects relation engine behavior.
type EngineConfig struct {
	Resolver string // "ancestor" or "descent"
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// DBConfig locates the definition store.
type DBConfig struct {
	URL string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50061,
			MaxConnections: 1000,
			RequestTimeout: 30 * time.Second,
			MaxFields:      500,
			RateBurst:      20,
		},
		Engine: EngineConfig{Resolver: "ancestor"},
		Log:    LogConfig{Level: "info", Format: "text"},
		DB:     DBConfig{URL: "sqlite://./data/formrel.db"},
	}
}
