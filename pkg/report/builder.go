package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/uiharness/pkg/core"
)

// BuilderConfig contains run metadata that is not part of the results.
type BuilderConfig struct {
	RunID         string // Generated when empty
	AppPath       string
	AppName       string
	ServerURL     string
	ImplicitWait  time.Duration
	Labels        string
	RunnerVersion string
}

// Build converts a run result into a report index.
func Build(result *core.RunResult, cfg BuilderConfig) *Index {
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	index := &Index{
		Version:   Version,
		RunID:     runID,
		Status:    result.Status,
		StartTime: result.StartTime,
		EndTime:   result.StartTime.Add(result.Duration),
		Duration:  result.Duration.Milliseconds(),
		App: App{
			Path: cfg.AppPath,
			Name: cfg.AppName,
		},
		Server: Server{
			URL:            cfg.ServerURL,
			ImplicitWaitMs: cfg.ImplicitWait.Milliseconds(),
		},
		Runner: RunnerInfo{
			Version: cfg.RunnerVersion,
			Labels:  cfg.Labels,
		},
		Flows: make([]FlowEntry, 0, len(result.Scenarios)),
	}

	for i := range result.Scenarios {
		index.Flows = append(index.Flows, buildEntry(i, &result.Scenarios[i]))
	}
	index.Summary = computeSummary(index.Flows)
	return index
}

func buildEntry(idx int, s *core.ScenarioResult) FlowEntry {
	entry := FlowEntry{
		Index:      idx,
		ID:         s.ID,
		Name:       s.Name,
		SourceFile: s.SourcePath,
		Tags:       s.Tags,
		Status:     s.Status,
		Duration:   s.Duration.Milliseconds(),
		Commands: CommandSummary{
			Total:   len(s.Steps),
			Passed:  s.PassedSteps,
			Failed:  s.FailedSteps,
			Skipped: s.SkippedSteps,
		},
		Steps: make([]Command, 0, len(s.Steps)),
	}
	if !s.StartTime.IsZero() {
		start := s.StartTime
		entry.StartTime = &start
	}

	var failed *core.StepResult
	for i := range s.Steps {
		step := &s.Steps[i]
		entry.Steps = append(entry.Steps, Command{
			Index:    step.Index,
			Type:     step.Command,
			Label:    step.Description,
			Status:   step.Status,
			Duration: step.Duration.Milliseconds(),
			Message:  step.Message,
			Error:    step.Error,
		})
		if failed == nil && step.Status.IsFailure() {
			failed = step
		}
	}

	if s.Error != "" {
		entry.Error = &Error{
			Type:    errorType(s, failed),
			Code:    s.ErrorCode,
			Message: s.Error,
		}
	}

	for _, a := range s.Attachments {
		entry.Artifacts = append(entry.Artifacts, Artifact{
			Name:        a.Name,
			ContentType: a.ContentType,
			Path:        a.Path,
		})
	}
	return entry
}

// errorType names the error category. Session start failures have no
// failing step, so the status decides.
func errorType(s *core.ScenarioResult, failed *core.StepResult) string {
	switch {
	case failed != nil:
		return failed.Category.String()
	case s.Status == core.StatusSkipped:
		return "cancelled"
	case s.ErrorCode == core.ErrLaunch.Code:
		return core.ErrCategoryApp.String()
	case s.ErrorCode == core.ErrInvalidConfig.Code:
		return core.ErrCategoryConfig.String()
	default:
		return core.ErrCategoryConnection.String()
	}
}

func computeSummary(flows []FlowEntry) Summary {
	s := Summary{Total: len(flows)}
	for _, f := range flows {
		switch f.Status {
		case core.StatusPassed:
			s.Passed++
		case core.StatusFailed:
			s.Failed++
		case core.StatusErrored:
			s.Errored++
		case core.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}
