// Package config provides configuration loading and parsing functionality
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFormat represents the configuration file format
type ConfigFormat string

const (
	FormatYAML ConfigFormat = "yaml"
	FormatJSON ConfigFormat = "json"
	FormatTOML ConfigFormat = "toml"
)

// Loader handles configuration loading from files, readers and the
// environment.
type Loader struct {
	// Configuration search paths
	searchPaths []string

	// Environment variable prefix
	envPrefix string

	// Default configuration
	defaultConfig *Config
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		searchPaths: []string{
			".",
			"./config",
			"/etc/actr",
			os.Getenv("HOME") + "/.actr",
		},
		envPrefix:     "ACTR",
		defaultConfig: DefaultConfig(),
	}
}

// SetSearchPaths sets the configuration file search paths.
func (l *Loader) SetSearchPaths(paths []string) *Loader {
	l.searchPaths = paths
	return l
}

// SetEnvPrefix sets the environment variable prefix.
func (l *Loader) SetEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// SetDefaultConfig sets the default configuration.
func (l *Loader) SetDefaultConfig(config *Config) *Loader {
	l.defaultConfig = config
	return l
}

// LoadFromFile loads, merges with defaults, applies environment overrides
// and validates the configuration in filename. The format is chosen by
// file extension.
func (l *Loader) LoadFromFile(filename string) (*Config, error) {
	format, err := formatForFile(filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return l.finish(config)
}

// LoadFromReader loads configuration from an io.Reader.
func (l *Loader) LoadFromReader(reader io.Reader, format ConfigFormat) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration data: %w", err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, err
	}

	return l.finish(config)
}

// AutoLoad discovers a configuration file in the search paths and loads it.
// Without a file the defaults plus environment overrides are used.
func (l *Loader) AutoLoad() (*Config, error) {
	configFile, err := l.findConfigFile()
	if err != nil {
		if err == ErrConfigFileNotFound {
			config := l.baseConfig()
			return l.finish(config)
		}
		return nil, err
	}
	return l.LoadFromFile(configFile)
}

// finish applies environment overrides and validates.
func (l *Loader) finish(config *Config) (*Config, error) {
	if err := l.loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// baseConfig clones the loader's default configuration.
func (l *Loader) baseConfig() *Config {
	base := l.defaultConfig
	if base == nil {
		base = DefaultConfig()
	}
	clone := *base
	clone.Peers = append([]PeerConfig(nil), base.Peers...)
	return &clone
}

// parseConfig decodes data on top of the defaults, so absent fields keep
// their default values.
func (l *Loader) parseConfig(data []byte, format ConfigFormat) (*Config, error) {
	config := l.baseConfig()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("yaml parse error: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("json parse error: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("toml parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return config, nil
}

// loadFromEnv applies environment variable overrides.
func (l *Loader) loadFromEnv(config *Config) error {
	if v := l.env("LISTEN"); v != "" {
		config.Node.Listen = v
	}
	if v := l.env("REALM"); v != "" {
		realm, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s_REALM value %q: %w", l.envPrefix, v, err)
		}
		config.Node.Realm = uint32(realm)
	}
	if v := l.env("SERIAL_NUMBER"); v != "" {
		serial, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s_SERIAL_NUMBER value %q: %w", l.envPrefix, v, err)
		}
		config.Node.SerialNumber = serial
	}
	if v := l.env("CALL_TIMEOUT_MS"); v != "" {
		timeout, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s_CALL_TIMEOUT_MS value %q: %w", l.envPrefix, v, err)
		}
		config.Call.DefaultTimeoutMs = timeout
	}
	if v := l.env("LOG_LEVEL"); v != "" {
		config.Observability.Level = LogLevel(strings.ToLower(v))
	}
	if v := l.env("LOG_FORMAT"); v != "" {
		config.Observability.Format = LogFormat(strings.ToLower(v))
	}
	return nil
}

func (l *Loader) env(key string) string {
	return os.Getenv(l.envPrefix + "_" + key)
}

// findConfigFile searches for configuration files in search paths.
func (l *Loader) findConfigFile() (string, error) {
	filenames := []string{
		"actr.yaml", "actr.yml", "actr.json", "actr.toml",
		"config.yaml", "config.yml", "config.json", "config.toml",
	}

	for _, searchPath := range l.searchPaths {
		for _, filename := range filenames {
			fullPath := filepath.Join(searchPath, filename)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}

	return "", ErrConfigFileNotFound
}

// formatForFile determines the configuration format from a file extension.
func formatForFile(filename string) (ConfigFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}
