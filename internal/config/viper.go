// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Supported preference store backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Store struct {
		Backend string `mapstructure:"backend" yaml:"backend"`
		Path    string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"store" yaml:"store"`

	Mapping struct {
		MaxColumnIndex     int `mapstructure:"max_column_index" yaml:"max_column_index"`
		MaxReferenceLength int `mapstructure:"max_reference_length" yaml:"max_reference_length"`
	} `mapstructure:"mapping" yaml:"mapping"`

	Preview struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
		MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`
	} `mapstructure:"preview" yaml:"preview"`

	Scan struct {
		Workers int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"scan" yaml:"scan"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
// When configFile is not empty it is read instead of searching the default
// locations, and a missing file is an error.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.colmap")
		v.AddConfigPath(".colmap")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("COLMAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Store.Backend = strings.ToLower(strings.TrimSpace(config.Store.Backend))

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration built from defaults alone, ignoring
// config files and the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.backend", BackendYAML)
	v.SetDefault("store.path", "")

	v.SetDefault("mapping.max_column_index", columnref.DefaultMaxColumnIndex)
	v.SetDefault("mapping.max_reference_length", columnref.DefaultMaxReferenceLength)

	// Empty delimiter means sniff it from the file.
	v.SetDefault("preview.delimiter", "")
	v.SetDefault("preview.max_rows", 50)

	// 0 means one worker per CPU.
	v.SetDefault("scan.workers", 0)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Store.Backend != BackendYAML && config.Store.Backend != BackendSQLite {
		return fmt.Errorf("invalid store backend: %s (must be '%s' or '%s')", config.Store.Backend, BackendYAML, BackendSQLite)
	}

	if config.Mapping.MaxColumnIndex < 0 {
		return fmt.Errorf("mapping.max_column_index must not be negative, got: %d", config.Mapping.MaxColumnIndex)
	}

	if config.Mapping.MaxReferenceLength < 1 {
		return fmt.Errorf("mapping.max_reference_length must be at least 1, got: %d", config.Mapping.MaxReferenceLength)
	}

	if config.Preview.Delimiter != "" && utf8.RuneCountInString(config.Preview.Delimiter) != 1 {
		return fmt.Errorf("preview delimiter must be a single character, got: %s", config.Preview.Delimiter)
	}

	if config.Preview.MaxRows < 0 {
		return fmt.Errorf("preview.max_rows must not be negative, got: %d", config.Preview.MaxRows)
	}

	if config.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative, got: %d", config.Scan.Workers)
	}

	return nil
}

// Policy returns the column reference thresholds configured for mapping validation.
func (c *Config) Policy() columnref.Policy {
	return columnref.Policy{
		MaxColumnIndex:     c.Mapping.MaxColumnIndex,
		MaxReferenceLength: c.Mapping.MaxReferenceLength,
	}
}

// DelimiterRune returns the configured preview delimiter, or 0 to sniff it.
func (c *Config) DelimiterRune() rune {
	if c.Preview.Delimiter == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Preview.Delimiter)
	return r
}

// ConfigureLoggingFromConfig builds the logrus logger described by the log
// section of config.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	return logging.NewLogrus(config.Log.Level, config.Log.Format)
}
