package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the bookshelf CLI.
type Config struct {
	ServerURL string

	Email    string
	Password string

	StoreDriver string
	StoreDSN    string
	StoreSecret string

	HTTPTimeout time.Duration

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.StoreDriver = "sqlite"
	c.HTTPTimeout = 30 * time.Second
	c.LogFormat = "text"
	c.LogLevel = "warn"
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// the environment (including a .env file in the working directory), then the
// flags found in args. Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg, dotEnvFile); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
