package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/orientd/internal/surface"
)

// Config represents the complete configuration for orientd
type Config struct {
	Network  NetworkConfig  `yaml:"network" toml:"network"`
	Surface  SurfaceConfig  `yaml:"surface" toml:"surface"`
	Dispatch DispatchConfig `yaml:"dispatch" toml:"dispatch"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Audit    AuditConfig    `yaml:"audit" toml:"audit"`
}

// NetworkConfig holds network-related settings
type NetworkConfig struct {
	HTTP        HTTPConfig        `yaml:"http" toml:"http"`
	Maintenance MaintenanceConfig `yaml:"maintenance" toml:"maintenance"`
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Port         int    `yaml:"port" toml:"port"`
	ServerHeader string `yaml:"serverHeader" toml:"serverHeader"`
	DevMode      bool   `yaml:"devMode" toml:"devMode"`
}

// MaintenanceConfig holds maintenance TCP server settings
type MaintenanceConfig struct {
	Port         int      `yaml:"port" toml:"port"`
	AllowedCIDRs []string `yaml:"allowedCidrs" toml:"allowedCidrs"`
}

// SurfaceConfig holds the display surface state at startup
type SurfaceConfig struct {
	InitialSupported   string `yaml:"initialSupported" toml:"initialSupported"`
	InitialOrientation string `yaml:"initialOrientation" toml:"initialOrientation"`
}

// DispatchConfig holds UI context settings. EventQueueSize bounds unpolled
// rotation events; zero disables them.
type DispatchConfig struct {
	QueueSize      int `yaml:"queueSize" toml:"queueSize"`
	EventQueueSize int `yaml:"eventQueueSize" toml:"eventQueueSize"`
}

// AuthConfig holds bearer token settings for the JSON-RPC endpoint
type AuthConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled"`
	HMACSecret string `yaml:"hmacSecret" toml:"hmacSecret"`
}

// LoggingConfig holds log output settings. An empty File logs to stderr.
type LoggingConfig struct {
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb" toml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" toml:"maxAgeDays"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// AuditConfig holds audit log settings. An empty File disables auditing.
type AuditConfig struct {
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb" toml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	cfg := getDefaultConfig()

	// Load from default config file
	if err := loadFromFile(cfg, "config/default.yaml"); err != nil {
		// If default config doesn't exist, continue with defaults
		log.Printf("Warning: Could not load default config: %v", err)
	}

	if path := os.Getenv("ORIENTD_CONFIG"); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			HTTP: HTTPConfig{
				Port:         80,
				ServerHeader: "",
				DevMode:      false,
			},
			Maintenance: MaintenanceConfig{
				Port:         50000,
				AllowedCIDRs: []string{"127.0.0.0/8"},
			},
		},
		Surface: SurfaceConfig{
			InitialSupported:   "portraitOrLandscape",
			InitialOrientation: "portraitUp",
		},
		Dispatch: DispatchConfig{
			QueueSize:      surface.DefaultQueueSize,
			EventQueueSize: 64,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Audit: AuditConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// loadFromFile loads configuration from a YAML or TOML file
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if supported := os.Getenv("ORIENTD_INITIAL_SUPPORTED"); supported != "" {
		cfg.Surface.InitialSupported = supported
	}

	if port := os.Getenv("ORIENTD_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Network.HTTP.Port = p
		}
	}

	if secret := os.Getenv("ORIENTD_AUTH_SECRET"); secret != "" {
		cfg.Auth.HMACSecret = secret
		cfg.Auth.Enabled = true
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := cfg.InitialSupported(); err != nil {
		return err
	}
	if _, err := cfg.InitialOrientation(); err != nil {
		return err
	}

	if cfg.Network.HTTP.Port < 0 || cfg.Network.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port %d", cfg.Network.HTTP.Port)
	}
	if cfg.Network.Maintenance.Port < 0 || cfg.Network.Maintenance.Port > 65535 {
		return fmt.Errorf("invalid maintenance port %d", cfg.Network.Maintenance.Port)
	}

	if cfg.Dispatch.QueueSize < 1 || cfg.Dispatch.QueueSize > 4096 {
		return fmt.Errorf("dispatch queue size %d is outside reasonable range [1, 4096]", cfg.Dispatch.QueueSize)
	}

	if cfg.Dispatch.EventQueueSize < 0 || cfg.Dispatch.EventQueueSize > 4096 {
		return fmt.Errorf("event queue size %d is outside reasonable range [0, 4096]", cfg.Dispatch.EventQueueSize)
	}

	if cfg.Auth.Enabled && len(cfg.Auth.HMACSecret) < 16 {
		return fmt.Errorf("auth is enabled but hmacSecret is shorter than 16 bytes")
	}

	return nil
}

// InitialSupported parses the configured startup constraint
func (c *Config) InitialSupported() (surface.Supported, error) {
	return surface.ParseSupported(c.Surface.InitialSupported)
}

// InitialOrientation parses the configured startup rotation
func (c *Config) InitialOrientation() (surface.PageOrientation, error) {
	return surface.ParsePageOrientation(c.Surface.InitialOrientation)
}
