package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment and bound flags.
// CLI flags > environment > config file > defaults precedence.
// flags may be nil; bound flag names use the dotted config key.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("server.max_fields", d.Server.MaxFields)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("engine.resolver", d.Engine.Resolver)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("db.url", d.DB.URL)

	// FR_SERVER_PORT, FR_DB_URL, ...
	v.SetEnvPrefix("FR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxFields:      v.GetInt("server.max_fields"),
			RateLimit:      v.GetFloat64("server.rate_limit"),
			RateBurst:      v.GetInt("server.rate_burst"),
		},
		Engine: EngineConfig{Resolver: v.GetString("engine.resolver")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DBConfig{URL: v.GetString("db.url")},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"server.host":     "host",
	"server.port":     "port",
	"engine.resolver": "resolver",
	"log.level":       "log-level",
	"log.format":      "log-format",
	"db.url":          "db-url",
}

// validateConfig checks port range, positive limits and known enum values.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxFields <= 0 {
		return fmt.Errorf("max_fields must be positive, got %d", cfg.Server.MaxFields)
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", cfg.Server.RateLimit)
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive when rate_limit is set, got %d", cfg.Server.RateBurst)
	}
	switch cfg.Engine.Resolver {
	case "ancestor", "descent":
	default:
		return fmt.Errorf("engine.resolver must be ancestor or descent, got %q", cfg.Engine.Resolver)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}
	if cfg.DB.URL == "" {
		return fmt.Errorf("db.url must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use FR_HMAC_SECRET environment variable)")
	}
	return nil
}
