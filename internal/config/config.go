// Package config provides configuration management for taskvault.
//
// Config file locations (priority order):
//  1. $TASKVAULT_CONFIG
//  2. ./taskvault.yaml
//  3. ~/.config/taskvault/config.yaml
//  4. /etc/taskvault/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"taskvault/internal/domain"
)

// Config is the application configuration
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates the embedded database
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultsConfig holds tunable task defaults
type DefaultsConfig struct {
	// Priority applied to tasks created without one
	Priority int `yaml:"priority"`
	// DueSoonDays is the window used by due-soon listings
	DueSoonDays int `yaml:"due_soon_days"`
}

// LoggingConfig controls the slog setup in entry points
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Database: DatabaseConfig{Path: "./taskvault.db"},
		Defaults: DefaultsConfig{
			Priority:    domain.DefaultPriority,
			DueSoonDays: 7,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = "./taskvault.db"
	}
	if c.Defaults.Priority == 0 {
		c.Defaults.Priority = domain.DefaultPriority
	}
	if c.Defaults.DueSoonDays == 0 {
		c.Defaults.DueSoonDays = 7
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
