package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uiharness/pkg/catalog"
	"github.com/devicelab-dev/uiharness/pkg/config"
	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/driver/mock"
	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
	"github.com/devicelab-dev/uiharness/pkg/executor"
	"github.com/devicelab-dev/uiharness/pkg/flow"
	"github.com/devicelab-dev/uiharness/pkg/harness"
	"github.com/devicelab-dev/uiharness/pkg/logger"
	"github.com/devicelab-dev/uiharness/pkg/report"
	"github.com/devicelab-dev/uiharness/pkg/validator"
)

// ErrScenariosFailed is returned by run when at least one scenario failed
// or errored. The process exits with status 1.
var ErrScenariosFailed = errors.New("one or more scenarios failed")

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run the acceptance scenarios",
	ArgsUsage: "[app] [scenario-file-or-folder]...",
	Description: `Runs the built-in Tokodon scenarios, then any YAML scenarios given as
arguments or listed under "flows" in uiharness.yaml. Every scenario gets
its own session; on failure a screenshot named
failed_test_shot_<app>_#<scenario>.png is saved in the output directory.

When no app is configured (--app, UIHARNESS_APP or uiharness.yaml), the
first argument is taken as the app.

Exit status is 1 when any scenario fails or errors.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "tags",
			Aliases: []string{"include-tags", "t"},
			Usage:   "Only run scenarios with these tags (search, timeline, ...)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Skip scenarios with these tags",
		},
		&cli.BoolFlag{
			Name:  "no-builtin",
			Usage: "Run only YAML scenarios",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining scenarios after the first failure",
		},
		&cli.BoolFlag{
			Name:  "page-source",
			Usage: "Also save the accessibility tree on failure",
		},
	},
	Action: runAction,
}

var listCommand = &cli.Command{
	Name:      "list",
	Usage:     "List scenarios without running them",
	ArgsUsage: "[scenario-file-or-folder]...",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "tags",
			Aliases: []string{"include-tags", "t"},
			Usage:   "Only list scenarios with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Hide scenarios with these tags",
		},
	},
	Action: listAction,
}

// RunConfig holds everything a run needs, resolved from file, env and flags.
type RunConfig struct {
	Config     *config.Config
	Labels     catalog.Labels
	Strategies map[string]harness.Strategy
	Flows      []flow.Flow
	StopOnFail bool
	Verbose    bool
	NoANSI     bool
}

// isSet reports whether a flag was given on this command or any parent.
func isSet(c *cli.Context, name string) bool {
	for _, ctx := range c.Lineage() {
		if ctx != nil && ctx.IsSet(name) {
			return true
		}
	}
	return false
}

// loadConfig merges defaults, the config file and global flags (flags win).
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if isSet(c, "server-url") || cfg.ServerURL == "" {
		cfg.ServerURL = c.String("server-url")
	}
	if isSet(c, "app") {
		cfg.App = c.String("app")
	}
	if isSet(c, "implicit-wait") {
		cfg.ImplicitWaitMs = c.Int("implicit-wait")
	}
	if isSet(c, "wait-timeout") {
		cfg.WaitTimeoutMs = c.Int("wait-timeout")
	}
	if isSet(c, "labels") {
		cfg.Labels = c.String("labels")
	}
	if isSet(c, "output") {
		cfg.OutputDir = c.String("output")
	}
	if isSet(c, "tags") {
		cfg.IncludeTags = c.StringSlice("tags")
	}
	if isSet(c, "exclude-tags") {
		cfg.ExcludeTags = c.StringSlice("exclude-tags")
	}
	return cfg, nil
}

// collectFlows returns the built-in catalog (unless disabled) followed by
// the validated YAML scenarios from paths.
func collectFlows(cfg *config.Config, labels catalog.Labels, paths []string, builtin bool) ([]flow.Flow, []string, error) {
	var flows, builtins []flow.Flow
	var reserved []string
	if builtin {
		builtins = flow.FilterByTags(catalog.Flows(labels), cfg.IncludeTags, cfg.ExcludeTags)
		for _, f := range catalog.Flows(labels) {
			reserved = append(reserved, f.ID)
		}
	}
	flows = append(flows, builtins...)

	v := validator.New(cfg.IncludeTags, cfg.ExcludeTags, reserved...)
	var targets []string
	var errs []error
	for _, path := range paths {
		res := v.Validate(path)
		errs = append(errs, res.Errors...)
		flows = append(flows, res.Flows...)
		targets = append(targets, res.Targets()...)
	}
	if len(errs) > 0 {
		return nil, nil, fmt.Errorf("validation failed with %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return flows, targets, nil
}

// isScenarioPath reports whether path is an existing scenario file or directory.
func isScenarioPath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir() || flow.IsFlowFile(path)
}

// buildRunConfig resolves the full run configuration from the CLI context.
func buildRunConfig(c *cli.Context) (*RunConfig, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	args := c.Args().Slice()
	if cfg.App == "" && len(args) > 0 {
		if isScenarioPath(args[0]) {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf(
				"app is required: %q is a scenario path; pass the app first or use --app", args[0]))
		}
		cfg.App, args = args[0], args[1:]
	}
	if c.Bool("page-source") {
		cfg.Artifacts.PageSource = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	labels, err := catalog.LabelsFor(cfg.Labels)
	if err != nil {
		return nil, core.ErrInvalidConfig.WithCause(err)
	}

	paths := append(append([]string(nil), cfg.Flows...), args...)
	flows, targets, err := collectFlows(cfg, labels, paths, !c.Bool("no-builtin"))
	if err != nil {
		return nil, err
	}
	if len(flows) == 0 {
		return nil, fmt.Errorf("no scenarios selected")
	}

	strategies, err := catalog.ParseStrategies(cfg.Strategies, targets...)
	if err != nil {
		return nil, err
	}

	return &RunConfig{
		Config:     cfg,
		Labels:     labels,
		Strategies: strategies,
		Flows:      flows,
		StopOnFail: c.Bool("stop-on-fail"),
		Verbose:    c.Bool("verbose"),
		NoANSI:     c.Bool("no-ansi"),
	}, nil
}

// remoteFactory returns a fresh automation client per scenario.
func remoteFactory(rc *RunConfig) executor.RemoteFactory {
	if rc.Config.IsMock() {
		return func() harness.Remote {
			return mock.New(mock.NewTokodonTree(rc.Labels.Favourite, rc.Labels.Favourited, rc.Labels.Users))
		}
	}
	serverURL := rc.Config.ServerURL
	timeout := rc.Config.HTTPTimeout()
	return func() harness.Remote {
		return webdriver.NewClient(serverURL, webdriver.WithTimeout(timeout))
	}
}

func runAction(c *cli.Context) error {
	rc, err := buildRunConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, rc, newConsole(c.App.Writer, !rc.NoANSI))
}

func executeRun(ctx context.Context, rc *RunConfig, con *console) error {
	cfg := rc.Config

	// 1. Create output directory
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Initialize logging
	logPath := filepath.Join(cfg.OutputDir, "uiharness.log")
	if err := logger.Init(logPath); err != nil {
		con.warn("failed to initialize logger: %v", err)
	}
	defer logger.Close()
	logger.SetVerbose(rc.Verbose)

	logger.Info("=== Run started ===")
	logger.Info("Server: %s", cfg.ServerURL)
	logger.Info("App: %s", cfg.App)
	logger.Info("Labels: %s", rc.Labels.Name)
	logger.Info("Scenarios: %d", len(rc.Flows))

	con.banner(cfg, rc.Labels, len(rc.Flows))

	// 3. Execute scenarios
	namer := core.NewArtifactNamer(cfg.AppName)
	runner := executor.New(remoteFactory(rc), executor.RunnerConfig{
		Session:        harness.NewSessionConfig(cfg, namer),
		Strategies:     rc.Strategies,
		StopOnFail:     rc.StopOnFail,
		OnFlowStart:    con.onFlowStart,
		OnStepComplete: con.onStepComplete,
		OnFlowEnd:      con.onFlowEnd,
	})

	result, err := runner.Run(ctx, rc.Flows)
	if err != nil {
		logger.Error("Run failed: %v", err)
		return err
	}

	// 4. Reports
	index := report.Build(result, report.BuilderConfig{
		AppPath:       cfg.App,
		AppName:       cfg.AppName,
		ServerURL:     cfg.ServerURL,
		ImplicitWait:  cfg.ImplicitWait(),
		Labels:        rc.Labels.Name,
		RunnerVersion: Version,
	})
	if err := report.Write(cfg.OutputDir, index); err != nil {
		con.warn("failed to write reports: %v", err)
		logger.Error("Write reports: %v", err)
	}

	con.summary(result)
	con.reports(cfg.OutputDir, index.RunID)

	if !result.Succeeded() {
		return ErrScenariosFailed
	}
	return nil
}

func listAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	labels, err := catalog.LabelsFor(cfg.Labels)
	if err != nil {
		return core.ErrInvalidConfig.WithCause(err)
	}

	paths := append(append([]string(nil), cfg.Flows...), c.Args().Slice()...)
	flows, _, err := collectFlows(cfg, labels, paths, true)
	if err != nil {
		return err
	}

	con := newConsole(c.App.Writer, !c.Bool("no-ansi"))
	con.list(flows)
	return nil
}
