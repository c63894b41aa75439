// Package config loads settings for the genre command.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/auvred/genre"
)

// Sentinel validation errors.
var (
	ErrInvalidEngine    = errors.New("invalid match engine")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Engine names.
const (
	EngineRecursive = "recursive"
	EngineStack     = "stack"
)

const envPrefix = "GENRE"

// Config holds all configuration for the genre command.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Match  MatchConfig  `mapstructure:"match"`
	Output OutputConfig `mapstructure:"output"`
}

type LogConfig struct {
	// One of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// One of text, json.
	Format string `mapstructure:"format"`
}

type MatchConfig struct {
	Engine string `mapstructure:"engine"`
	Sticky bool   `mapstructure:"sticky"`
}

type OutputConfig struct {
	Color bool `mapstructure:"color"`
}

// Load reads the configuration from configPath, or from genre.yaml in the
// working directory or $HOME/.config/genre when configPath is empty. A
// missing default file is not an error. Environment variables prefixed with
// GENRE_ override file values, e.g. GENRE_MATCH_ENGINE=stack.
//
// The result is not validated, so callers can apply their own overrides
// first and then call Validate.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("genre")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/genre")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "warn", Format: "text"},
		Match:  MatchConfig{Engine: EngineRecursive, Sticky: false},
		Output: OutputConfig{Color: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("match.engine", d.Match.Engine)
	v.SetDefault("match.sticky", d.Match.Sticky)
	v.SetDefault("output.color", d.Output.Color)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Match.Engine {
	case EngineRecursive, EngineStack:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEngine, c.Match.Engine)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}
	return nil
}

// MatchFlags translates the match settings into engine flags.
func (c *Config) MatchFlags() genre.Flag {
	var flags genre.Flag
	if c.Match.Engine == EngineStack {
		flags |= genre.FlagExplicitStack
	}
	if c.Match.Sticky {
		flags |= genre.FlagSticky
	}
	return flags
}
