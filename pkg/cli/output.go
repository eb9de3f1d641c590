package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/catalog"
	"github.com/devicelab-dev/uiharness/pkg/config"
	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/flow"
	"github.com/devicelab-dev/uiharness/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

// colorsAllowed reports whether w is a terminal and NO_COLOR is unset.
func colorsAllowed(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// console prints live progress and the final summary.
type console struct {
	w      io.Writer
	colors bool
}

func newConsole(w io.Writer, ansi bool) *console {
	if w == nil {
		w = os.Stdout
	}
	return &console{w: w, colors: ansi && colorsAllowed(w)}
}

// color returns the color code if colors are enabled, empty string otherwise
func (c *console) color(code string) string {
	if c.colors {
		return code
	}
	return ""
}

func (c *console) printf(format string, a ...interface{}) {
	fmt.Fprintf(c.w, format, a...)
}

func (c *console) warn(format string, a ...interface{}) {
	c.printf("%sWarning:%s %s\n", c.color(colorYellow), c.color(colorReset), fmt.Sprintf(format, a...))
}

func (c *console) banner(cfg *config.Config, labels catalog.Labels, scenarios int) {
	c.printf("\n%suiharness %s%s\n", c.color(colorBold), Version, c.color(colorReset))
	c.printf("  Server:    %s\n", cfg.ServerURL)
	c.printf("  App:       %s\n", cfg.App)
	c.printf("  Labels:    %s (%s, %s)\n", labels.Name, labels.Favourite, labels.Users)
	c.printf("  Scenarios: %d\n", scenarios)
}

func (c *console) onFlowStart(flowIdx, totalFlows int, id, name string) {
	c.printf("\n  %s[%d/%d]%s %s%s%s (%s)\n",
		c.color(colorCyan), flowIdx+1, totalFlows, c.color(colorReset),
		c.color(colorBold), name, c.color(colorReset), id)
	c.printf("%s\n", strings.Repeat("─", 60))
}

func (c *console) onStepComplete(idx int, desc string, status core.Status, durationMs int64, errMsg string) {
	durStr := formatDuration(durationMs)

	switch status {
	case core.StatusPassed:
		symbol := "✓"
		symbolColor := c.color(colorGreen)
		durColor := ""
		if durationMs >= slowThresholdMs {
			symbol = "⚠"
			symbolColor = c.color(colorYellow)
			durColor = c.color(colorYellow)
		}
		c.printf("    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, c.color(colorReset), desc, durColor, durStr, c.color(colorReset))
	case core.StatusSkipped:
		c.printf("    %s-%s %s\n", c.color(colorCyan), c.color(colorReset), desc)
	default:
		c.printf("    %s✗%s %s (%s)\n", c.color(colorRed), c.color(colorReset), desc, durStr)
		if errMsg != "" {
			c.printf("      %s╰─%s %s\n", c.color(colorGray), c.color(colorReset), errMsg)
		}
	}
}

func (c *console) onFlowEnd(id string, status core.Status, durationMs int64, errMsg string) {
	if status == core.StatusSkipped && errMsg != "" {
		c.printf("    %s-%s skipped: %s\n", c.color(colorCyan), c.color(colorReset), errMsg)
	}
}

// statusLabel returns the table cell and its color for a scenario status.
func (c *console) statusLabel(s core.Status) (string, string) {
	switch s {
	case core.StatusPassed:
		return "✓ PASS", c.color(colorGreen)
	case core.StatusFailed:
		return "✗ FAIL", c.color(colorRed)
	case core.StatusErrored:
		return "! ERR", c.color(colorRed)
	default:
		return "- SKIP", c.color(colorCyan)
	}
}

func (c *console) summary(result *core.RunResult) {
	totalSteps, passedSteps, failedSteps, skippedSteps := 0, 0, 0, 0
	for _, sr := range result.Scenarios {
		totalSteps += len(sr.Steps)
		passedSteps += sr.PassedSteps
		failedSteps += sr.FailedSteps
		skippedSteps += sr.SkippedSteps
	}
	runMs := result.Duration.Milliseconds()

	c.printf("\n")
	if passedSteps > 0 {
		c.printf("  %s%d steps passing%s (%s)\n", c.color(colorGreen), passedSteps, c.color(colorReset), formatDuration(runMs))
	}
	if failedSteps > 0 {
		c.printf("  %s%d steps failing%s\n", c.color(colorRed), failedSteps, c.color(colorReset))
	}
	if skippedSteps > 0 {
		c.printf("  %s%d steps skipped%s\n", c.color(colorCyan), skippedSteps, c.color(colorReset))
	}
	c.printf("\n")

	tableWidth := 92
	c.printf("%s\n", strings.Repeat("═", tableWidth))
	c.printf("  %-42s %6s %7s %6s %6s %6s %10s\n", "Scenario", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	c.printf("%s\n", strings.Repeat("─", tableWidth))

	for _, sr := range result.Scenarios {
		status, statusColor := c.statusLabel(sr.Status)

		name := sr.ID
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		c.printf("  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, c.color(colorReset),
			len(sr.Steps), sr.PassedSteps, sr.FailedSteps, sr.SkippedSteps,
			formatDuration(sr.Duration.Milliseconds()))
	}

	c.printf("%s\n", strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.Passed, result.Total)
	statusColor := c.color(colorGreen)
	if result.Failed > 0 {
		statusColor = c.color(colorRed)
	}
	c.printf("  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		c.color(colorBold), "TOTAL", c.color(colorReset),
		statusColor, statusStr, c.color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(runMs))
	c.printf("%s\n", strings.Repeat("═", tableWidth))

	for _, sr := range result.Scenarios {
		for _, a := range sr.Attachments {
			c.printf("  %s%s:%s %s\n", c.color(colorGray), sr.ID, c.color(colorReset), a.Path)
		}
	}
}

func (c *console) reports(outputDir, runID string) {
	c.printf("\n  Run %s\n", runID)
	for _, name := range []string{report.IndexFile, report.JUnitFile, report.HTMLFile} {
		c.printf("  %s\n", filepath.Join(outputDir, name))
	}
}

func (c *console) list(flows []flow.Flow) {
	for _, f := range flows {
		source := f.SourcePath
		if source == "" {
			source = "built-in"
		}
		c.printf("%-28s %-12s %s\n", f.ID, strings.Join(f.Tags, ","), source)
	}
	c.printf("\n%d scenario(s)\n", len(flows))
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
