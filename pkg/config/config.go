package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/contestpulse/contest-pulse/pkg/util"
)

// Config is the top-level application configuration, loaded from a YAML
// file and then overridden by CP_* environment variables.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DBPath is the BoltDB file backing the cache and reminder store.
	DBPath string `yaml:"db_path" json:"db_path"`

	// FreshnessMinutes is the cache freshness window.
	FreshnessMinutes int `yaml:"freshness_minutes" json:"freshness_minutes"`

	// RefreshMinutes is the auto-refresh driver interval. 0 disables the
	// driver.
	RefreshMinutes int `yaml:"refresh_minutes" json:"refresh_minutes"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           ":8080",
		DBPath:           "data/contestpulse.db",
		FreshnessMinutes: 15,
		RefreshMinutes:   15,
		LogLevel:         "INFO",
	}
}

// Load reads the config file at path, falling back to defaults when the file
// is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Listen = util.FirstNonEmpty(os.Getenv("CP_LISTEN"), c.Listen)
	c.DBPath = util.FirstNonEmpty(os.Getenv("CP_DB_PATH"), c.DBPath)
	c.LogLevel = util.FirstNonEmpty(os.Getenv("LOG_LEVEL"), c.LogLevel)
	if v := os.Getenv("CP_FRESHNESS_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FreshnessMinutes = n
		}
	}
	if v := os.Getenv("CP_REFRESH_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RefreshMinutes = n
		}
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "data/contestpulse.db"
	}
	if c.FreshnessMinutes <= 0 {
		c.FreshnessMinutes = 15
	}
	if c.RefreshMinutes < 0 {
		c.RefreshMinutes = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
}

// FreshnessWindow returns the cache window as a duration.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.FreshnessMinutes) * time.Minute
}

// RefreshInterval returns the auto-refresh period; 0 means disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMinutes) * time.Minute
}
