// Package config loads service configuration from an optional TOML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// OIDC configures the optional SSO login.
type OIDC struct {
	Enabled      bool   `toml:"enabled"`
	IssuerURL    string `toml:"issuer_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// Config holds all service settings.
type Config struct {
	Addr        string `toml:"addr"`
	WebDir      string `toml:"web_dir"`
	DatabaseURL string `toml:"database_url"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogFileName   string `toml:"log_file_name"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`

	SessionTTLHours      int `toml:"session_ttl_hours"`
	ChartCacheSizeMB     int `toml:"chart_cache_size_mb"`
	ChartCacheTTLSeconds int `toml:"chart_cache_ttl_seconds"`

	OIDC OIDC `toml:"oidc"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:                 ":8080",
		WebDir:               "web",
		LogLevel:             "info",
		LogToStdout:          true,
		SessionTTLHours:      24,
		ChartCacheSizeMB:     8,
		ChartCacheTTLSeconds: 300,
	}
}

// Load reads the TOML file at path (skipped when path is empty) on top of
// the defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("WEB_DIR"); v != "" {
		cfg.WebDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
