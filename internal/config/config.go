package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/mutker/hwtop/internal/errors"
)

// Timing and sizing constants for the polling loop. These are deliberately
// not configurable: a one second cadence with a sub-second poll budget is
// the contract the whole pipeline is built around.
const (
	TickInterval = time.Second
	PollTimeout  = 800 * time.Millisecond
	CycleGrace   = 250 * time.Millisecond
	HistorySize  = 60
)

const (
	DefaultLogLevel = "warning"

	configName = "hwtop"
	envPrefix  = "HWTOP"
)

type Config struct {
	Mode         Mode
	LogLevel     string `mapstructure:"log_level"`
	Debug        bool   `mapstructure:"debug"`
	Verbose      bool   `mapstructure:"verbose"`
	NoColor      bool   `mapstructure:"no_color"`
	SessionStats bool   `mapstructure:"session_stats"`
}

// Load merges the config file (if any) with the given parsed flag set.
// Flags win over the file, the file wins over defaults. A missing config
// file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("no_color", false)
	v.SetDefault("session_stats", false)

	v.SetConfigType("toml")
	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		if xdg, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(xdg, configName))
		}
		v.AddConfigPath("/etc/" + configName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrReadConfig, err).
				WithMessage("Failed to read config file")
		}
	}

	// Explicitly set flags win over file values. Flag names use dashes,
	// config keys use underscores.
	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
		})
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warning", "error":
		return nil
	default:
		return errors.WithData(ErrInvalidLogLevel, level)
	}
}
