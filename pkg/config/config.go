// Package config loads the YAML run configuration. Every field can be
// overridden by a flag or environment variable; the file is optional.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSummaryPath = "peer-stats.json"
	DefaultExportPath  = "connected-asns.json"
)

// Config holds run settings for a peer-stats invocation.
type Config struct {
	// Project and Collector identify the BGP collection project and
	// collector. Empty values are inferred from the dump URL.
	Project   string `yaml:"project,omitempty"`
	Collector string `yaml:"collector,omitempty"`

	// RIBDump is the path or URL of the RIB dump to process.
	RIBDump string `yaml:"rib_dump,omitempty"`

	// SelectedPeers are the peer IPs whose full connected-ASN sets are
	// exported alongside the counts-only summary.
	SelectedPeers []string `yaml:"selected_peers,omitempty"`

	// Output paths. A .gz suffix enables gzip compression.
	SummaryPath string `yaml:"summary_path,omitempty"`
	ExportPath  string `yaml:"export_path,omitempty"`

	// Optional backends.
	DatabaseURL string `yaml:"database_url,omitempty"`
	RedisURL    string `yaml:"redis_url,omitempty"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.SummaryPath == "" {
		cfg.SummaryPath = DefaultSummaryPath
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = DefaultExportPath
	}
}
