// Package config handles host-program configuration for an embedded
// trading environment: log level, inference endpoint, scheduler cadence,
// and venue enablement. Venue credentials never live here — they come
// from the environment at adapter init.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order. An explicit
// path (from a -config flag) is checked first by FindConfig; then
// ./extrema.yaml, ~/.config/extrema-infra/config.yaml,
// /etc/extrema-infra/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"extrema.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "extrema-infra", "config.yaml"))
	}

	paths = append(paths, "/etc/extrema-infra/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise the search paths are tried in order.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds host configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Inference InferenceConfig `yaml:"inference"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Venues    VenuesConfig    `yaml:"venues"`
}

// InferenceConfig locates the model inference endpoint on loopback.
type InferenceConfig struct {
	Port uint64 `yaml:"port"`
}

// SchedulerConfig sets the periodic tick cadence.
type SchedulerConfig struct {
	PeriodMs int `yaml:"period_ms"`
}

// Period returns the configured cadence, defaulting to one second.
func (s SchedulerConfig) Period() time.Duration {
	if s.PeriodMs <= 0 {
		return time.Second
	}
	return time.Duration(s.PeriodMs) * time.Millisecond
}

// VenuesConfig toggles venue adapters on and off.
type VenuesConfig struct {
	Binance VenueConfig `yaml:"binance"`
	Okx     VenueConfig `yaml:"okx"`
}

// VenueConfig enables one venue and scopes its public subscriptions.
type VenueConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Instruments []string `yaml:"instruments"` // canonical symbols
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
