package core

import (
	"time"
)

// StepResult captures the outcome of executing a single scenario step
type StepResult struct {
	Index       int           `json:"index"`   // 0-based position in scenario
	Command     string        `json:"command"` // tapOn, inputText, assertVisible, ...
	Description string        `json:"description"`
	Status      Status        `json:"status"`
	Category    ErrorCategory `json:"-"`
	StartTime   time.Time     `json:"startTime"`
	Duration    time.Duration `json:"duration"`
	Message     string        `json:"message,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// ScenarioResult captures the complete outcome of one scenario
type ScenarioResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	SourcePath  string        `json:"sourcePath,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Status      Status        `json:"status"`
	StartTime   time.Time     `json:"startTime"`
	Duration    time.Duration `json:"duration"`
	Steps       []StepResult  `json:"steps"`
	Error       string        `json:"error,omitempty"`
	ErrorCode   string        `json:"errorCode,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`

	// Summary (computed)
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
}

// ComputeSummary calculates step counts from the Steps slice
func (r *ScenarioResult) ComputeSummary() {
	r.PassedSteps, r.FailedSteps, r.SkippedSteps = 0, 0, 0
	for _, step := range r.Steps {
		switch step.Status {
		case StatusPassed:
			r.PassedSteps++
		case StatusFailed, StatusErrored:
			r.FailedSteps++
		case StatusSkipped:
			r.SkippedSteps++
		}
	}
}

// RunResult aggregates all scenario outcomes of one invocation
type RunResult struct {
	Status    Status           `json:"status"`
	StartTime time.Time        `json:"startTime"`
	Duration  time.Duration    `json:"duration"`
	Scenarios []ScenarioResult `json:"scenarios"`

	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// ComputeSummary counts scenario outcomes and derives the run status.
// The run passes only if nothing failed or errored.
func (r *RunResult) ComputeSummary() {
	r.Total = len(r.Scenarios)
	r.Passed, r.Failed, r.Skipped = 0, 0, 0
	for _, s := range r.Scenarios {
		switch {
		case s.Status == StatusPassed:
			r.Passed++
		case s.Status.IsFailure():
			r.Failed++
		case s.Status == StatusSkipped:
			r.Skipped++
		}
	}

	if r.Failed > 0 {
		r.Status = StatusFailed
	} else {
		r.Status = StatusPassed
	}
}

// Succeeded reports whether the process should exit with status zero.
func (r *RunResult) Succeeded() bool {
	return r.Failed == 0
}
