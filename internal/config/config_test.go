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
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netwatch.yaml")
	content := `
database_path: /var/lib/netwatch/monitor.db
http_addr: 127.0.0.1:9090
uptime_interval_seconds: 30
hosts:
  - example.com
  - 10.0.0.1
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DatabasePath != "/var/lib/netwatch/monitor.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.HTTPAddr != "127.0.0.1:9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.UptimeIntervalSeconds != 30 {
		t.Errorf("UptimeIntervalSeconds = %d, want 30", cfg.UptimeIntervalSeconds)
	}
	if want := []string{"example.com", "10.0.0.1"}; !reflect.DeepEqual(cfg.Hosts, want) {
		t.Errorf("Hosts = %v, want %v", cfg.Hosts, want)
	}

	// Fields the file omits keep their defaults
	if cfg.SampleIntervalSeconds != DefaultSampleIntervalSeconds {
		t.Errorf("SampleIntervalSeconds = %d, want default %d", cfg.SampleIntervalSeconds, DefaultSampleIntervalSeconds)
	}
	if cfg.ScanWorkers != DefaultScanWorkers {
		t.Errorf("ScanWorkers = %d, want default %d", cfg.ScanWorkers, DefaultScanWorkers)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("hosts: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }, true},
		{"zero sample interval", func(c *Config) { c.SampleIntervalSeconds = 0 }, true},
		{"zero persist interval", func(c *Config) { c.PersistIntervalSeconds = 0 }, true},
		{"zero uptime interval", func(c *Config) { c.UptimeIntervalSeconds = 0 }, true},
		{"zero ping timeout", func(c *Config) { c.PingTimeoutSeconds = 0 }, true},
		{"zero scan timeout", func(c *Config) { c.ScanTimeoutMs = 0 }, true},
		{"zero scan workers", func(c *Config) { c.ScanWorkers = 0 }, true},
		{"zero live window", func(c *Config) { c.LiveWindow = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"utc timezone", func(c *Config) { c.Timezone = "UTC" }, false},
		{"empty timezone", func(c *Config) { c.Timezone = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "netwatch.yaml")

	cfg := DefaultConfig()
	cfg.Hosts = []string{"a.example.com", "b.example.com"}
	cfg.HTTPAddr = "127.0.0.1:9999"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("roundtrip = %+v, want %+v", got, cfg)
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := DefaultConfig().Save(""); err == nil {
		t.Error("Save(\"\") succeeded, want error")
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.SampleInterval(); got != time.Second {
		t.Errorf("SampleInterval() = %v, want 1s", got)
	}
	if got := cfg.PersistInterval(); got != 10*time.Second {
		t.Errorf("PersistInterval() = %v, want 10s", got)
	}
	if got := cfg.UptimeInterval(); got != 60*time.Second {
		t.Errorf("UptimeInterval() = %v, want 60s", got)
	}
	if got := cfg.ScanTimeout(); got != 500*time.Millisecond {
		t.Errorf("ScanTimeout() = %v, want 500ms", got)
	}
}

func TestLocationFallsBackToLocal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = ""
	if cfg.Location() != time.Local {
		t.Error("Location() with empty timezone did not fall back to local")
	}

	cfg.Timezone = "UTC"
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
}
