package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvOrigin is the environment variable overriding the configured API origin.
const EnvOrigin = "VDX_API_URL"

// DefaultOrigin is the fallback API origin when nothing else is configured.
const DefaultOrigin = "http://127.0.0.1:8080/api"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Stream   StreamConfig   `toml:"stream"`
	UI       UIConfig       `toml:"ui"`
}

// APIConfig contains download-server connection settings.
type APIConfig struct {
	Origin         string `toml:"origin"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DatabaseConfig contains local cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StreamConfig tunes the event-stream reconnect policy.
type StreamConfig struct {
	ReconnectDelayMS       int `toml:"reconnect_delay_ms"`
	ReconnectMinIntervalMS int `toml:"reconnect_min_interval_ms"`
}

// UIConfig contains terminal dashboard settings.
type UIConfig struct {
	PageSize int    `toml:"page_size"`
	LogFile  string `toml:"log_file"`
}

// ReconnectDelay returns the configured timeout-reconnect delay.
func (s StreamConfig) ReconnectDelay() time.Duration {
	if s.ReconnectDelayMS <= 0 {
		return time.Second
	}
	return time.Duration(s.ReconnectDelayMS) * time.Millisecond
}

// ReconnectMinInterval returns the minimum spacing between connect attempts.
func (s StreamConfig) ReconnectMinInterval() time.Duration {
	if s.ReconnectMinIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(s.ReconnectMinIntervalMS) * time.Millisecond
}

// ResolveOrigin returns the API origin to use. Priority: the local override
// from the settings store, then the VDX_API_URL environment variable, then the
// config file value, then [DefaultOrigin].
func (c *Config) ResolveOrigin(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(EnvOrigin); env != "" {
		return env
	}
	if c != nil && c.API.Origin != "" {
		return c.API.Origin
	}
	return DefaultOrigin
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
