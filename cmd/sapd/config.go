package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig names one record source. Exactly one of URL or File must
// be set.
type SourceConfig struct {
	// URL of an endpoint serving a JSON array of records.
	URL string `yaml:"url,omitempty"`
	// File holding a JSON array of records, re-read every cycle.
	File string `yaml:"file,omitempty"`
}

// Config is the sapd configuration file.
type Config struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`

	Listen   string `yaml:"listen"`
	AutoPort bool   `yaml:"auto_port"`

	// Pointers distinguish absent from an explicit zero, which means
	// back-to-back cycles for the interval and no bound for the timeout.
	IntervalSeconds     *float64 `yaml:"interval_seconds"`
	FetchTimeoutSeconds *float64 `yaml:"fetch_timeout_seconds"`
	RunImmediately      *bool    `yaml:"run_immediately"`

	Register     bool   `yaml:"register"`
	RegistryPath string `yaml:"registry_path"`

	RequireInitialFetch        bool    `yaml:"require_initial_fetch"`
	InitialFetchTimeoutSeconds float64 `yaml:"initial_fetch_timeout_seconds"`

	// RefreshToken gates the /refresh endpoint. Falls back to the
	// SAP_REFRESH_TOKEN environment variable when unset.
	RefreshToken string `yaml:"refresh_token"`

	Sources []SourceConfig `yaml:"sources"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("%s: name is required", path)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("%s: at least one source is required", path)
	}
	for i, src := range cfg.Sources {
		if (src.URL == "") == (src.File == "") {
			return nil, fmt.Errorf("%s: sources[%d] must set exactly one of url or file", path, i)
		}
	}
	if cfg.RefreshToken == "" {
		cfg.RefreshToken = os.Getenv("SAP_REFRESH_TOKEN")
	}
	return &cfg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
