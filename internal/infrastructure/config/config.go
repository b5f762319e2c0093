package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for glowstate.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Govee    GoveeConfig    `yaml:"govee"`
	LAN      LANConfig      `yaml:"lan"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// GoveeConfig contains cloud API settings.
type GoveeConfig struct {
	// APIKey authenticates against the Govee cloud API.
	// Always set via GLOWSTATE_GOVEE_API_KEY in production.
	APIKey string `yaml:"api_key"`

	// BaseURL is the cloud API endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// LANConfig contains local UDP transport settings.
type LANConfig struct {
	// Enabled turns on the LAN fast path. When a device has a known
	// address, commands go over UDP instead of the cloud.
	Enabled bool `yaml:"enabled"`

	// CommandPort is the UDP port devices listen on for commands.
	CommandPort int `yaml:"command_port"`

	// ResponsePort is the local UDP port device replies arrive on.
	ResponsePort int `yaml:"response_port"`

	// Timeout is the per-exchange timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// DatabaseConfig contains SQLite database settings for the device catalogue.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SnapshotConfig contains snapshot capture and restore settings.
type SnapshotConfig struct {
	// Workers bounds how many per-device operations run concurrently
	// in one batch. It limits outbound request burst size against the
	// rate-limited cloud API; raising it never changes outcome.
	Workers int `yaml:"workers"`

	// PowerOnSettleMS is the pause after a power-on command before any
	// further command is sent to that device.
	PowerOnSettleMS int `yaml:"power_on_settle_ms"`

	// ColorSettleMS is the pause after a color or color-temperature
	// command before the dependent brightness command is sent.
	ColorSettleMS int `yaml:"color_settle_ms"`

	// Strict raises a batch-level error after a restore when any
	// device's sequence failed. The default (false) records failures
	// in the result map only.
	Strict bool `yaml:"strict"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GLOWSTATE_SECTION_KEY
// For example: GLOWSTATE_GOVEE_API_KEY, GLOWSTATE_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Govee: GoveeConfig{
			BaseURL: "https://openapi.api.govee.com",
			Timeout: 10,
		},
		LAN: LANConfig{
			Enabled:      true,
			CommandPort:  4003,
			ResponsePort: 4002,
			Timeout:      2,
		},
		Database: DatabaseConfig{
			Path:        "./data/glowstate.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "glowstate-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Snapshot: SnapshotConfig{
			Workers:         20,
			PowerOnSettleMS: 500,
			ColorSettleMS:   300,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GLOWSTATE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Govee cloud
	if v := os.Getenv("GLOWSTATE_GOVEE_API_KEY"); v != "" {
		cfg.Govee.APIKey = v
	}
	if v := os.Getenv("GLOWSTATE_GOVEE_BASE_URL"); v != "" {
		cfg.Govee.BaseURL = v
	}

	// Database
	if v := os.Getenv("GLOWSTATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GLOWSTATE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GLOWSTATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GLOWSTATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GLOWSTATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Snapshot
	if v := os.Getenv("GLOWSTATE_SNAPSHOT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Snapshot.Workers = n
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Cloud validation. The API key itself is optional: LAN-only
	// operation against a synced catalogue is supported.
	if c.Govee.BaseURL == "" {
		errs = append(errs, "govee.base_url is required")
	}
	if c.Govee.Timeout <= 0 {
		errs = append(errs, "govee.timeout must be positive")
	}

	// LAN validation
	if c.LAN.Enabled {
		if c.LAN.CommandPort < 1 || c.LAN.CommandPort > 65535 {
			errs = append(errs, "lan.command_port must be between 1 and 65535")
		}
		if c.LAN.ResponsePort < 1 || c.LAN.ResponsePort > 65535 {
			errs = append(errs, "lan.response_port must be between 1 and 65535")
		}
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Snapshot validation
	if c.Snapshot.Workers < 1 {
		errs = append(errs, "snapshot.workers must be at least 1")
	}
	if c.Snapshot.PowerOnSettleMS < 0 || c.Snapshot.ColorSettleMS < 0 {
		errs = append(errs, "snapshot settle delays must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetCloudTimeout returns the cloud request timeout as a Duration.
func (c *Config) GetCloudTimeout() time.Duration {
	return time.Duration(c.Govee.Timeout) * time.Second
}

// GetLANTimeout returns the LAN exchange timeout as a Duration.
func (c *Config) GetLANTimeout() time.Duration {
	return time.Duration(c.LAN.Timeout) * time.Second
}

// GetPowerOnSettle returns the post-power-on settling delay as a Duration.
func (c *Config) GetPowerOnSettle() time.Duration {
	return time.Duration(c.Snapshot.PowerOnSettleMS) * time.Millisecond
}

// GetColorSettle returns the post-color settling delay as a Duration.
func (c *Config) GetColorSettle() time.Duration {
	return time.Duration(c.Snapshot.ColorSettleMS) * time.Millisecond
}
