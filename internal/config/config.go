package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the fully processed application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
	Clock    ClockConfig    `mapstructure:"clock"`
	Manifest ManifestConfig `mapstructure:"manifest"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// OutputConfig selects how command results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"` // text, json, yaml
	Pretty bool   `mapstructure:"pretty"`
}

// ClockConfig pins the wall clock used for live availability windows.
// An empty Now means the current time.
type ClockConfig struct {
	Now string `mapstructure:"now"`
}

// ManifestConfig holds defaults for manifest loading.
type ManifestConfig struct {
	// BaseURL is the location relative BaseURLs of a local MPD resolve against.
	BaseURL string `mapstructure:"base_url"`
}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DASHINDEX"

// Load reads the configuration. Environment variables override the file at
// configPath, which overrides the defaults. Without a path, dashindex.yaml is
// looked up in the working directory and the user config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dashindex")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/dashindex")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Level == "warning" {
		cfg.Logging.Level = "warn"
	}
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.pretty", true)
	v.SetDefault("clock.now", "")
	v.SetDefault("manifest.base_url", "")
}

// Validate checks that every option holds a supported value.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	validOutputs := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validOutputs[c.Output.Format] {
		return fmt.Errorf("output.format must be one of: text, json, yaml")
	}
	if _, _, err := c.Clock.Time(); err != nil {
		return err
	}
	return nil
}

// Time returns the pinned wall clock, if one is configured.
func (c ClockConfig) Time() (time.Time, bool, error) {
	if c.Now == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, c.Now)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("clock.now must be an RFC 3339 time: %w", err)
	}
	return t, true, nil
}
