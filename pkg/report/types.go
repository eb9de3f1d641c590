// Package report writes run results to disk.
//
// Layout of the output directory:
//   - report.json: run index (run ID, app, summary, per-scenario steps)
//   - junit.xml: JUnit XML for CI systems
//   - report.html: self-contained summary page
//   - failed_test_shot_*.png: screenshots captured on failure
//   - test_shot_*.png: screenshots of passing scenarios (artifacts.captureOnSuccess)
package report

import (
	"time"

	"github.com/devicelab-dev/uiharness/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Index is the main report file.
type Index struct {
	Version   string      `json:"version"`
	RunID     string      `json:"runId"`
	Status    core.Status `json:"status"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	Duration  int64       `json:"duration"` // milliseconds
	App       App         `json:"app"`
	Server    Server      `json:"server"`
	Runner    RunnerInfo  `json:"runner"`
	Summary   Summary     `json:"summary"`
	Flows     []FlowEntry `json:"flows"`
}

// App describes the application under test.
type App struct {
	Path string `json:"path"` // "app" capability
	Name string `json:"name"` // used in artifact names
}

// Server describes the automation endpoint.
type Server struct {
	URL            string `json:"url"`
	ImplicitWaitMs int64  `json:"implicitWaitMs"`
}

// RunnerInfo contains uiharness information.
type RunnerInfo struct {
	Version string `json:"version"`
	Labels  string `json:"labels"` // british, american
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// FlowEntry is the index entry for one scenario.
type FlowEntry struct {
	Index      int            `json:"index"` // Original position
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	SourceFile string         `json:"sourceFile,omitempty"` // Empty for built-in scenarios
	Tags       []string       `json:"tags,omitempty"`
	Status     core.Status    `json:"status"`
	StartTime  *time.Time     `json:"startTime,omitempty"`
	Duration   int64          `json:"duration"` // milliseconds
	Commands   CommandSummary `json:"commands"`
	Steps      []Command      `json:"steps"`
	Error      *Error         `json:"error,omitempty"`
	Artifacts  []Artifact     `json:"artifacts,omitempty"`
}

// CommandSummary contains step counts for a scenario.
type CommandSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Command is a single executed step.
type Command struct {
	Index    int         `json:"index"`
	Type     string      `json:"type"`
	Label    string      `json:"label"`
	Status   core.Status `json:"status"`
	Duration int64       `json:"duration"` // milliseconds
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Error contains error details.
type Error struct {
	Type    string `json:"type"` // assertion, timeout, connection, app, stale, config
	Code    string `json:"code"` // not_found, launch_error, ...
	Message string `json:"message"`
}

// Artifact is a file captured for a scenario, relative to the output dir.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Path        string `json:"path"`
}
