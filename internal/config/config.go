package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"PORT"`
	Env           string        `mapstructure:"ENV"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	BaseURL       string        `mapstructure:"KARDEX_BASE_URL"`
	CSRFToken     string        `mapstructure:"KARDEX_CSRF_TOKEN"`
	LookupRPS     float64       `mapstructure:"LOOKUP_RPS"`
	LookupBurst   int           `mapstructure:"LOOKUP_BURST"`
	LookupTimeout time.Duration `mapstructure:"LOOKUP_TIMEOUT"`
	RulesFile     string        `mapstructure:"RULES_FILE"`
	SchemaFile    string        `mapstructure:"SCHEMA_FILE"`
}

var keys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"KARDEX_BASE_URL",
	"KARDEX_CSRF_TOKEN",
	"LOOKUP_RPS",
	"LOOKUP_BURST",
	"LOOKUP_TIMEOUT",
	"RULES_FILE",
	"SCHEMA_FILE",
}

// Load reads the configuration from the environment. Each env file is loaded
// first when present; variables already set in the process win. Without
// arguments ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOOKUP_RPS", 5)
	v.SetDefault("LOOKUP_BURST", 5)
	v.SetDefault("LOOKUP_TIMEOUT", "10s")

	// Unmarshal only sees keys viper knows about.
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasLookup reports whether a lookup backend is configured.
func (c *Config) HasLookup() bool {
	return c.BaseURL != ""
}

// Validate checks values that would only fail later at request time.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT is required")
	}
	switch c.Env {
	case "development", "test", "production":
	default:
		return fmt.Errorf("config: ENV must be development, test or production, got %q", c.Env)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: KARDEX_BASE_URL must be an absolute URL, got %q", c.BaseURL)
		}
	}
	if c.IsProduction() && c.BaseURL == "" {
		return errors.New("config: KARDEX_BASE_URL is required in production")
	}
	if c.LookupRPS < 0 {
		return fmt.Errorf("config: LOOKUP_RPS must not be negative, got %v", c.LookupRPS)
	}
	if c.LookupRPS > 0 && c.LookupBurst < 1 {
		return fmt.Errorf("config: LOOKUP_BURST must be at least 1 when LOOKUP_RPS is set, got %d", c.LookupBurst)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("config: LOOKUP_TIMEOUT must be positive, got %s", c.LookupTimeout)
	}
	if c.RulesFile != "" {
		if _, err := os.Stat(c.RulesFile); err != nil {
			return fmt.Errorf("config: RULES_FILE: %w", err)
		}
	}
	if c.SchemaFile != "" {
		if _, err := os.Stat(c.SchemaFile); err != nil {
			return fmt.Errorf("config: SCHEMA_FILE: %w", err)
		}
	}
	return nil
}
