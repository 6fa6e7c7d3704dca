package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL   string        `yaml:"database_url"`
	TelegramToken string        `yaml:"telegram_token"`
	RunAt         string        `yaml:"run_at"`
	Interval      time.Duration `yaml:"-"`
	IntervalHours int           `yaml:"interval_hours"`
	Timezone      string        `yaml:"timezone"`
	BroadcastRate int           `yaml:"broadcast_rate"`
	Log           LogConfig     `yaml:"log"`

	Location *time.Location `yaml:"-"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DatabaseURL:   "planner.db",
		RunAt:         "06:00",
		BroadcastRate: 10,
		Log:           LogConfig{Level: "info", Console: true},
		Location:      time.Local,
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order. An empty path falls back to
// PLANNER_CONFIG; a missing file is only an error when a path was given.
func Load(path string) (Config, error) {
	cfg := Default()

	path, explicit := ResolvePath(path)
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.finalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ResolvePath returns the config file in effect and whether it was given
// explicitly rather than through PLANNER_CONFIG.
func ResolvePath(path string) (string, bool) {
	if p := strings.TrimSpace(path); p != "" {
		return p, true
	}
	return strings.TrimSpace(os.Getenv("PLANNER_CONFIG")), false
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); v != "" {
		c.TelegramToken = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PLANNER_RUN_AT")); v != "" {
		c.RunAt = v
	}
	if v := strings.TrimSpace(os.Getenv("PLANNER_TIMEZONE")); v != "" {
		c.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("PLANNER_INTERVAL_HOURS")); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 0 {
			return fmt.Errorf("PLANNER_INTERVAL_HOURS must be a non-negative integer, got %q", v)
		}
		c.IntervalHours = hours
	}
	return nil
}

func (c *Config) finalize() error {
	if c.DatabaseURL == "" {
		c.DatabaseURL = "planner.db"
	}
	if c.IntervalHours < 0 {
		return fmt.Errorf("interval_hours must not be negative")
	}
	if c.BroadcastRate <= 0 {
		c.BroadcastRate = 10
	}
	c.Interval = time.Duration(c.IntervalHours) * time.Hour

	if c.RunAt != "" {
		if _, _, err := ParseClock(c.RunAt); err != nil {
			return err
		}
	}

	c.Location = time.Local
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("timezone %q: %w", c.Timezone, err)
		}
		c.Location = loc
	}
	return nil
}

// ParseClock parses an HH:MM wall-clock time.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
