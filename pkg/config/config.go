// Package config handles run configuration for uiharness.
//
// A Config is built once per invocation (file, then flags) and passed
// explicitly to everything that needs it.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/uiharness/pkg/core"
)

// Defaults for a local Appium server running the AT-SPI driver.
const (
	DefaultServerURL        = "http://127.0.0.1:4723"
	DefaultAppName          = "tokodon"
	DefaultWaitTimeoutMs    = 10000
	DefaultPollIntervalMs   = 250
	DefaultHTTPTimeoutSec   = 120
	DefaultLaunchTimeoutSec = 60
	DefaultOutputDir        = "reports"
	DefaultLabels           = "british"
)

// MockScheme selects the in-process simulated Tokodon instead of a real
// automation server (serverUrl: mock://tokodon).
const MockScheme = "mock"

// IsMock reports whether the run uses the simulated application.
func (c *Config) IsMock() bool {
	u, err := url.Parse(c.ServerURL)
	return err == nil && u.Scheme == MockScheme
}

// FileNames are looked up, in order, by LoadFromDir.
var FileNames = []string{"uiharness.yaml", "uiharness.yml"}

// Config represents the run configuration (uiharness.yaml).
type Config struct {
	// Automation endpoint
	ServerURL        string `yaml:"serverUrl"`
	HTTPTimeoutSec   int    `yaml:"httpTimeoutSec"`
	LaunchTimeoutSec int    `yaml:"launchTimeoutSec"`

	// Application under test: identifier or path passed as the "app" capability
	App     string `yaml:"app"`
	AppName string `yaml:"appName"` // Used in artifact names

	// Waiting. ImplicitWaitMs is sent as timeouts.implicit (0 = fail immediately);
	// WaitTimeoutMs bounds explicit waitFor/assert polling.
	ImplicitWaitMs int `yaml:"implicitWaitMs"`
	WaitTimeoutMs  int `yaml:"waitTimeoutMs"`
	PollIntervalMs int `yaml:"pollIntervalMs"`

	// Scenario selection and parameterization
	Labels      string            `yaml:"labels"`     // british | american
	Strategies  map[string]string `yaml:"strategies"` // target -> name | description | class name
	Flows       []string          `yaml:"flows"`      // Extra YAML scenario files or directories
	IncludeTags []string          `yaml:"includeTags"`
	ExcludeTags []string          `yaml:"excludeTags"`

	// Output
	OutputDir string              `yaml:"outputDir"`
	Artifacts core.ArtifactConfig `yaml:"artifacts"`
}

// Defaults returns a Config with every default filled in.
func Defaults() *Config {
	return &Config{
		ServerURL:        DefaultServerURL,
		HTTPTimeoutSec:   DefaultHTTPTimeoutSec,
		LaunchTimeoutSec: DefaultLaunchTimeoutSec,
		AppName:          DefaultAppName,
		WaitTimeoutMs:    DefaultWaitTimeoutMs,
		PollIntervalMs:   DefaultPollIntervalMs,
		Labels:           DefaultLabels,
		OutputDir:        DefaultOutputDir,
		Artifacts:        core.DefaultArtifactConfig(),
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir looks for uiharness.yaml or uiharness.yml in the directory.
// Without a file it returns the defaults.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range FileNames {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}
	return Defaults(), nil
}

// Validate checks the fields every run needs.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return core.ErrInvalidConfig.WithMessage("serverUrl is required")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || !(u.Scheme == MockScheme || (u.Scheme == "http" || u.Scheme == "https") && u.Host != "") {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("serverUrl %q is not an http(s) URL", c.ServerURL))
	}
	if c.App == "" {
		return core.ErrInvalidConfig.WithMessage("app is required (--app, UIHARNESS_APP, or first argument)")
	}
	if c.ImplicitWaitMs < 0 || c.WaitTimeoutMs < 0 || c.PollIntervalMs < 0 ||
		c.HTTPTimeoutSec < 0 || c.LaunchTimeoutSec < 0 {
		return core.ErrInvalidConfig.WithMessage("timeouts must not be negative")
	}
	if c.OutputDir == "" {
		return core.ErrInvalidConfig.WithMessage("outputDir is required")
	}
	return nil
}

// ImplicitWait returns the server-side locate wait window.
func (c *Config) ImplicitWait() time.Duration {
	return time.Duration(c.ImplicitWaitMs) * time.Millisecond
}

// WaitTimeout returns the bound for explicit polling.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutMs) * time.Millisecond
}

// PollInterval returns the delay between polls, at least 10ms.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMs < 10 {
		return 10 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// HTTPTimeout returns the transport timeout for a single remote call.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// LaunchTimeout bounds session creation, which includes starting the app.
func (c *Config) LaunchTimeout() time.Duration {
	return time.Duration(c.LaunchTimeoutSec) * time.Second
}
