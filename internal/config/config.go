// Package config loads shell configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all backend configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	MiniApp   MiniAppConfig
	Agent     AgentConfig
}

// ServerConfig holds HTTP command-surface configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"7800"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// MiniAppConfig holds mini-app registry configuration.
type MiniAppConfig struct {
	ManifestDir  string        `envconfig:"MINIAPP_MANIFEST_DIR" default:""`
	ProbeSources bool          `envconfig:"MINIAPP_PROBE_SOURCES" default:"true"`
	ProbeTimeout time.Duration `envconfig:"MINIAPP_PROBE_TIMEOUT" default:"3s"`
}

// AgentConfig holds agent sandbox configuration.
type AgentConfig struct {
	// Timeout bounds one script execution; zero disables the timer.
	Timeout time.Duration `envconfig:"AGENT_TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("SHELL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "7800",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		MiniApp: MiniAppConfig{
			ProbeSources: true,
			ProbeTimeout: 3 * time.Second,
		},
		Agent: AgentConfig{
			Timeout: 10 * time.Second,
		},
	}
}
