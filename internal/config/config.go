// Package config loads ownerchain settings from a config file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. OWNERCHAIN_DB.
const EnvPrefix = "OWNERCHAIN"

// Config holds the settings shared by every command.
type Config struct {
	// DB is the path to the SQLite database.
	DB string `mapstructure:"db"`

	// Owner is the owner key commands act as.
	Owner string `mapstructure:"owner"`

	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error
	Format   string `mapstructure:"format"`    // text, json
	PageSize int    `mapstructure:"page_size"`

	// Metrics is a path the Prometheus text dump is written to after each
	// command. "-" writes to stderr. Empty disables metrics.
	Metrics string `mapstructure:"metrics"`
}

// ValidFormats lists the accepted output formats.
var ValidFormats = []string{"text", "json"}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DB:       "ownerchain.db",
		LogLevel: "warn",
		Format:   "text",
		PageSize: 100,
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":        "db",
	"owner":     "owner",
	"format":    "format",
	"log-level": "log_level",
	"page-size": "page_size",
	"metrics":   "metrics",
}

// Load reads configuration. configPath selects an explicit file; when empty,
// ownerchain.yaml is searched in the working directory and
// $HOME/.config/ownerchain, and a missing file is not an error. Flags in
// flags that were set on the command line override everything else.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ownerchain")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ownerchain")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("db", defaults.DB)
	v.SetDefault("owner", defaults.Owner)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("page_size", defaults.PageSize)
	v.SetDefault("metrics", defaults.Metrics)
}

// Validate checks the values that every command depends on.
func (c *Config) Validate() error {
	if !isValidFormat(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("invalid page size %d: must be positive", c.PageSize)
	}
	if c.DB == "" {
		return errors.New("database path is required")
	}
	return nil
}

// SlogLevel returns the configured log level. Invalid values fall back to warn.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
