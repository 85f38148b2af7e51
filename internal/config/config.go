// Package config loads the host's YAML configuration: listen
// addresses, log level, the default market template, and the
// damped-Newton solver tolerances. Struct tags and the
// yaml.v3-based loader mirror the style used throughout the example
// pack (e.g. internal/algo/momentum's yaml-tagged config structs).
package config

import (
	"fmt"
	"os"

	"distmarket/internal/fp"

	"gopkg.in/yaml.v3"
)

// MarketTemplate seeds initialize() for a freshly-created market when
// the caller doesn't supply explicit parameters.
type MarketTemplate struct {
	Mu    fp.Signed   `yaml:"mu"`
	Sigma fp.Unsigned `yaml:"sigma"`
	K     fp.Unsigned `yaml:"k"`
	B     fp.Unsigned `yaml:"b"`
}

// SolverConfig controls the damped-Newton search every trade runs.
type SolverConfig struct {
	MaxIter   int         `yaml:"max_iter"`
	Tolerance fp.Unsigned `yaml:"tolerance"`
}

// Config is the host's full configuration.
type Config struct {
	ListenAddr  string         `yaml:"listen_addr"`
	MetricsAddr string         `yaml:"metrics_addr"`
	LogLevel    string         `yaml:"log_level"`
	JournalDir  string         `yaml:"journal_dir"`
	RingBuffer  int            `yaml:"ring_buffer_size"`
	// Authority is the UUID that `serve --bootstrap` installs as the
	// settling authority on the market it creates from Market. Empty
	// means --bootstrap is a no-op.
	Authority string         `yaml:"authority"`
	Market    MarketTemplate `yaml:"market"`
	Solver    SolverConfig   `yaml:"solver"`
}

// Default returns the built-in configuration used when no config file
// is supplied. The market template matches the seed scenarios' scale
// (σ=10, k=100); Authority is empty, so `serve --bootstrap` does
// nothing until a config file or edit sets one.
func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		MetricsAddr: ":9090",
		LogLevel:    "info",
		JournalDir:  "journal",
		RingBuffer:  3600,
		Market: MarketTemplate{
			Mu:    fp.NewSigned(0),
			Sigma: fp.NewUnsigned(10),
			K:     fp.NewUnsigned(100),
			B:     fp.NewUnsigned(1000),
		},
		Solver: SolverConfig{
			MaxIter:   20,
			Tolerance: mustTolerance(),
		},
	}
}

func mustTolerance() fp.Unsigned {
	u, err := fp.ParseUnsigned("0.000001")
	if err != nil {
		panic(err)
	}
	return u
}

// Load reads a YAML config file at path, applying it on top of
// Default(). Env overrides for listen addr and log level take
// precedence over both, matching the host's twelve-factor posture.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DISTMARKET_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DISTMARKET_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("DISTMARKET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DISTMARKET_JOURNAL_DIR"); v != "" {
		cfg.JournalDir = v
	}
}
