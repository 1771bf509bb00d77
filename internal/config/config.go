// Package config loads runtime settings for ls-ephem from .ls-ephem.yaml,
// LSEPHEM_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/logging"
)

// EnvPrefix is the prefix of environment overrides, e.g. LSEPHEM_LOG_LEVEL.
const EnvPrefix = "LSEPHEM"

// Config holds all runtime configuration.
type Config struct {
	LogLevel      string        `mapstructure:"log_level"`
	Kernels       []string      `mapstructure:"kernels"`
	Leapseconds   string        `mapstructure:"leapseconds"`
	MetaKernel    string        `mapstructure:"meta_kernel"`
	Strict        bool          `mapstructure:"strict"`
	Mmap          bool          `mapstructure:"mmap"`
	CacheSize     int           `mapstructure:"cache_size"`
	MaxIterations int           `mapstructure:"max_iterations"`
	KernelDir     string        `mapstructure:"kernel_dir"`
	Debounce      time.Duration `mapstructure:"debounce"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		Strict:        true,
		Mmap:          false,
		CacheSize:     ephem.DefaultCacheSize,
		MaxIterations: ephem.DefaultMaxIterations,
		Debounce:      500 * time.Millisecond,
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("kernels", []string{})
	v.SetDefault("leapseconds", "")
	v.SetDefault("meta_kernel", "")
	v.SetDefault("strict", d.Strict)
	v.SetDefault("mmap", d.Mmap)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("max_iterations", d.MaxIterations)
	v.SetDefault("kernel_dir", "")
	v.SetDefault("debounce", d.Debounce)
	v.SetDefault("metrics_addr", "")
}

// New returns a viper instance with defaults and environment binding.
// When file is empty, .ls-ephem.yaml is searched for in the working
// directory and the user's home.
func New(file, home string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".ls-ephem")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes v. A missing default
// config file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Kernels = splitList(cfg.Kernels)
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	return nil
}

// Options translates the configuration into almanac options.
func (c Config) Options(log *logging.Logger) []ephem.Option {
	opts := []ephem.Option{
		ephem.WithLogger(log),
		ephem.WithCacheSize(c.CacheSize),
		ephem.WithMaxIterations(c.MaxIterations),
		ephem.WithMmap(c.Mmap),
	}
	if !c.Strict {
		opts = append(opts, ephem.WithBestEffort())
	}
	return opts
}

// splitList flattens comma-separated entries, as lists set through the
// environment arrive that way.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
