// Package config loads server configuration from an optional YAML file,
// environment variable overrides and defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a string ("24h", "90s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string   `yaml:"jwt_secret"`
		TokenTTL  Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Auction struct {
		Window         Duration `yaml:"window"`
		SweepSchedule  string   `yaml:"sweep_schedule"`
		ExtendOnNoBids bool     `yaml:"extend_on_no_bids"`
		AutoOpen       bool     `yaml:"auto_open"`
	} `yaml:"auction"`
	RateLimit struct {
		BidsPerSecond float64 `yaml:"bids_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DevJWTSecret is used when no secret is configured. Validate warns about it
// through Insecure.
const DevJWTSecret = "chitfund-dev-secret-change-me"

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("AUCTION_WINDOW"); v != "" {
		window, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AUCTION_WINDOW: %w", err)
		}
		c.Auction.Window = Duration(window)
	}
	if v := os.Getenv("SWEEP_SCHEDULE"); v != "" {
		c.Auction.SweepSchedule = v
	}
	if v := os.Getenv("EXTEND_ON_NO_BIDS"); v != "" {
		extend, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXTEND_ON_NO_BIDS: %w", err)
		}
		c.Auction.ExtendOnNoBids = extend
	}
	if v := os.Getenv("AUTO_OPEN"); v != "" {
		autoOpen, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTO_OPEN: %w", err)
		}
		c.Auction.AutoOpen = autoOpen
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/chitfund.db"
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = DevJWTSecret
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(24 * time.Hour)
	}
	if c.Auction.Window == 0 {
		c.Auction.Window = Duration(24 * time.Hour)
	}
	if c.Auction.SweepSchedule == "" {
		c.Auction.SweepSchedule = "@every 30s"
	}
	if c.RateLimit.BidsPerSecond == 0 {
		c.RateLimit.BidsPerSecond = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Insecure reports whether the server would sign tokens with the built-in secret.
func (c *Config) Insecure() bool {
	return c.Auth.JWTSecret == DevJWTSecret
}

// Validate checks that every value is usable. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auction.Window <= 0 {
		errs = append(errs, errors.New("auction.window must be positive"))
	}
	if c.RateLimit.BidsPerSecond <= 0 {
		errs = append(errs, errors.New("rate_limit.bids_per_second must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit.burst must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
