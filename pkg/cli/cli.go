// Package cli provides the command-line interface for uiharness.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "server-url",
		Aliases: []string{"s"},
		Usage:   "WebDriver/Appium server URL (mock://tokodon runs against a simulated app)",
		Value:   "http://127.0.0.1:4723",
		EnvVars: []string{"UIHARNESS_SERVER_URL"},
	},
	&cli.StringFlag{
		Name:    "app",
		Aliases: []string{"a"},
		Usage:   "Application to launch (path or identifier); also accepted as the first argument of run",
		EnvVars: []string{"UIHARNESS_APP"},
	},
	&cli.IntFlag{
		Name:    "implicit-wait",
		Usage:   "Server-side locate wait in ms (timeouts.implicit capability)",
		EnvVars: []string{"UIHARNESS_IMPLICIT_WAIT"},
	},
	&cli.IntFlag{
		Name:    "wait-timeout",
		Usage:   "Upper bound in ms for waitFor and assertions",
		EnvVars: []string{"UIHARNESS_WAIT_TIMEOUT"},
	},
	&cli.StringFlag{
		Name:    "labels",
		Usage:   "UI label variant (british, american)",
		EnvVars: []string{"UIHARNESS_LABELS"},
	},
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to uiharness.yaml (default: ./uiharness.yaml if present)",
		EnvVars: []string{"UIHARNESS_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output directory for reports, screenshots and the log",
		EnvVars: []string{"UIHARNESS_OUTPUT"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"UIHARNESS_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "uiharness",
		Usage:   "UI acceptance tests for Tokodon over a WebDriver/AT-SPI endpoint",
		Version: Version,
		Description: `uiharness drives Tokodon through an Appium server with the AT-SPI
driver, runs the built-in acceptance scenarios plus any YAML scenarios,
and writes report.json, junit.xml and report.html.

Examples:
  uiharness run /usr/bin/tokodon-offline
  uiharness --app org.kde.tokodon.desktop run --tags timeline
  uiharness --labels american run ./scenarios/
  uiharness --server-url mock://tokodon --app tokodon run
  uiharness list`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			listCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		if !errors.Is(err, ErrScenariosFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
