// Package config loads undomgrd's daemon configuration from a YAML file
// layered over built-in defaults. No command-line flag overrides individual
// values; the daemon's only flag names the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of daemon-level knobs. Capacity/SoftLimit feed
// undo.Config directly; RetryFirstDelay/RetrySubsequentDelay feed
// undo.RetryPolicy.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogJSON    bool   `yaml:"log_json"`

	Capacity  int `yaml:"capacity"`
	SoftLimit int `yaml:"soft_limit"`
	Workers   int `yaml:"workers"`

	RetryFirstDelay      time.Duration `yaml:"retry_first_delay"`
	RetrySubsequentDelay time.Duration `yaml:"retry_subsequent_delay"`
}

// Default returns the configuration a fresh install should start from.
func Default() Config {
	return Config{
		DataDir:              "/var/lib/undomgrd",
		ListenAddr:           ":9090",
		LogLevel:             "info",
		LogJSON:              true,
		Capacity:             4096,
		SoftLimit:            3072,
		Workers:              4,
		RetryFirstDelay:      10 * time.Second,
		RetrySubsequentDelay: 30 * time.Second,
	}
}

// Load reads a YAML file at path into Default()'s values, leaving any
// field the file omits at its default. An empty path is not an error: the
// daemon can run on defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports whether cfg is internally consistent enough to build an
// undo.Manager from.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("config: capacity must be positive")
	}
	if c.SoftLimit < 0 || c.SoftLimit > c.Capacity {
		return fmt.Errorf("config: soft_limit must be within [0, capacity]")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must be set")
	}
	return nil
}
