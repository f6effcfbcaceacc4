/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents application configuration.
type Config struct {
	DatabasePath string `yaml:"database_path"` // Path to the SQLite database file
	HTTPAddr     string `yaml:"http_addr"`     // Listen address for the HTTP API

	// Schedules
	SampleIntervalSeconds  int `yaml:"sample_interval_seconds"`  // Metrics sampling cadence
	PersistIntervalSeconds int `yaml:"persist_interval_seconds"` // Minimum gap between persisted samples
	UptimeIntervalSeconds  int `yaml:"uptime_interval_seconds"`  // Uptime monitor cadence

	// Probing
	PingTimeoutSeconds int `yaml:"ping_timeout_seconds"` // Upper bound for one reachability probe
	ScanTimeoutMs      int `yaml:"scan_timeout_ms"`      // Upper bound for one TCP connect probe
	ScanWorkers        int `yaml:"scan_workers"`         // Concurrent in-flight port probes

	// Live view
	LiveWindow int `yaml:"live_window"` // Samples kept in the in-memory rolling window

	// Monitored host set, operator-editable
	Hosts []string `yaml:"hosts"`

	// Logging
	LogLevel string `yaml:"log_level"` // Log level: debug, info, warn, error
	LogFile  string `yaml:"log_file"`  // Log file path (empty = stdout)

	// Timezone
	Timezone string `yaml:"timezone"` // Timezone location for exported timestamps
}

// Default configuration values.
const (
	DefaultSampleIntervalSeconds  = 1
	DefaultPersistIntervalSeconds = 10
	DefaultUptimeIntervalSeconds  = 60
	DefaultPingTimeoutSeconds     = 3
	DefaultScanTimeoutMs          = 500
	DefaultScanWorkers            = 50
	DefaultLiveWindow             = 50
	DefaultHTTPAddr               = "0.0.0.0:8080"
	DefaultLogLevel               = "info"
	DefaultDatabaseName           = "network_monitor.db"
)

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:           DefaultDatabaseName,
		HTTPAddr:               DefaultHTTPAddr,
		SampleIntervalSeconds:  DefaultSampleIntervalSeconds,
		PersistIntervalSeconds: DefaultPersistIntervalSeconds,
		UptimeIntervalSeconds:  DefaultUptimeIntervalSeconds,
		PingTimeoutSeconds:     DefaultPingTimeoutSeconds,
		ScanTimeoutMs:          DefaultScanTimeoutMs,
		ScanWorkers:            DefaultScanWorkers,
		LiveWindow:             DefaultLiveWindow,
		Hosts:                  []string{"8.8.8.8", "1.1.1.1"},
		LogLevel:               DefaultLogLevel,
		Timezone:               "Local",
	}
}

// Load reads configuration from a YAML file. A missing file falls back to defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back to a YAML file.
// Used to persist operator edits to the monitored host set.
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.New("config path cannot be empty")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}

	if c.SampleIntervalSeconds < 1 {
		return errors.New("sample interval must be at least 1 second")
	}

	if c.PersistIntervalSeconds < 1 {
		return errors.New("persist interval must be at least 1 second")
	}

	if c.UptimeIntervalSeconds < 1 {
		return errors.New("uptime interval must be at least 1 second")
	}

	if c.PingTimeoutSeconds < 1 {
		return errors.New("ping timeout must be at least 1 second")
	}

	if c.ScanTimeoutMs < 1 {
		return errors.New("scan timeout must be at least 1 millisecond")
	}

	if c.ScanWorkers < 1 {
		return errors.New("scan workers must be at least 1")
	}

	if c.LiveWindow < 1 {
		return errors.New("live window must be at least 1 sample")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	// Validate Timezone
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %s (%w)", c.Timezone, err)
		}
	}

	return nil
}

// SampleInterval returns the metrics sampling cadence as a duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalSeconds) * time.Second
}

// PersistInterval returns the minimum gap between persisted samples.
func (c *Config) PersistInterval() time.Duration {
	return time.Duration(c.PersistIntervalSeconds) * time.Second
}

// UptimeInterval returns the uptime monitor cadence as a duration.
func (c *Config) UptimeInterval() time.Duration {
	return time.Duration(c.UptimeIntervalSeconds) * time.Second
}

// PingTimeout returns the per-probe reachability timeout.
func (c *Config) PingTimeout() time.Duration {
	return time.Duration(c.PingTimeoutSeconds) * time.Second
}

// ScanTimeout returns the per-port TCP connect timeout.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutMs) * time.Millisecond
}

// Location resolves the configured timezone.
// Falls back to time.Local when unset or invalid.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB=%s, HTTP=%s, Sample=%ds, Persist=%ds, Uptime=%ds, Hosts=%d}",
		c.DatabasePath, c.HTTPAddr, c.SampleIntervalSeconds, c.PersistIntervalSeconds,
		c.UptimeIntervalSeconds, len(c.Hosts))
}
