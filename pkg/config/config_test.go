package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "uiharness.yaml")

	content := `
serverUrl: http://10.0.0.5:4723
app: /usr/bin/tokodon-offline
implicitWaitMs: 30000
labels: american
strategies:
  search: description
  favourite: name
includeTags:
  - timeline
flows:
  - flows/
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerURL != "http://10.0.0.5:4723" {
		t.Errorf("ServerURL = %s", cfg.ServerURL)
	}
	if cfg.App != "/usr/bin/tokodon-offline" {
		t.Errorf("App = %s", cfg.App)
	}
	if cfg.ImplicitWait() != 30*time.Second {
		t.Errorf("ImplicitWait() = %v, want 30s", cfg.ImplicitWait())
	}
	if cfg.Labels != "american" {
		t.Errorf("Labels = %s", cfg.Labels)
	}
	if cfg.Strategies["search"] != "description" || cfg.Strategies["favourite"] != "name" {
		t.Errorf("Strategies = %v", cfg.Strategies)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "timeline" {
		t.Errorf("IncludeTags = %v", cfg.IncludeTags)
	}
	if len(cfg.Flows) != 1 || cfg.Flows[0] != "flows/" {
		t.Errorf("Flows = %v", cfg.Flows)
	}

	// Unspecified fields keep their defaults
	if cfg.WaitTimeoutMs != DefaultWaitTimeoutMs {
		t.Errorf("WaitTimeoutMs = %d, want default", cfg.WaitTimeoutMs)
	}
	if cfg.AppName != DefaultAppName {
		t.Errorf("AppName = %s, want default", cfg.AppName)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %s, want default", cfg.OutputDir)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/uiharness.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "uiharness.yaml")
	if err := os.WriteFile(configPath, []byte("serverUrl: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("empty dir should give defaults, got ServerURL %s", cfg.ServerURL)
	}

	if err := os.WriteFile(filepath.Join(dir, "uiharness.yml"), []byte("app: org.kde.tokodon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App != "org.kde.tokodon" {
		t.Errorf("App = %s, want org.kde.tokodon", cfg.App)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing app", func(c *Config) { c.App = "" }, true},
		{"missing server", func(c *Config) { c.ServerURL = "" }, true},
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://host:1" }, true},
		{"no host", func(c *Config) { c.ServerURL = "http://" }, true},
		{"mock server", func(c *Config) { c.ServerURL = "mock://tokodon" }, false},
		{"negative wait", func(c *Config) { c.WaitTimeoutMs = -1 }, true},
		{"no output", func(c *Config) { c.OutputDir = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.App = "org.kde.tokodon"
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestIsMock(t *testing.T) {
	cfg := Defaults()
	if cfg.IsMock() {
		t.Error("default server should not be mock")
	}
	cfg.ServerURL = "mock://tokodon"
	if !cfg.IsMock() {
		t.Error("mock://tokodon should be mock")
	}
}

func TestDurations(t *testing.T) {
	cfg := Defaults()
	if cfg.ImplicitWait() != 0 {
		t.Errorf("default ImplicitWait() = %v, want 0", cfg.ImplicitWait())
	}
	if cfg.WaitTimeout() != 10*time.Second {
		t.Errorf("WaitTimeout() = %v", cfg.WaitTimeout())
	}
	if cfg.HTTPTimeout() != 2*time.Minute {
		t.Errorf("HTTPTimeout() = %v", cfg.HTTPTimeout())
	}

	cfg.PollIntervalMs = 0
	if cfg.PollInterval() != 10*time.Millisecond {
		t.Errorf("PollInterval() floor = %v", cfg.PollInterval())
	}
}
