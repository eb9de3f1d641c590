// Package executor runs scenarios one at a time, each in its own
// automation session, and collects their results.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/flow"
	"github.com/devicelab-dev/uiharness/pkg/harness"
	"github.com/devicelab-dev/uiharness/pkg/logger"
)

// RemoteFactory returns a fresh automation client for one scenario.
// Clients hold a single session, so each scenario gets its own.
type RemoteFactory func() harness.Remote

// RunnerConfig configures the test runner.
type RunnerConfig struct {
	Session    harness.SessionConfig       // Capabilities, waits, artifact settings
	Strategies map[string]harness.Strategy // Per-target locate strategy overrides
	StopOnFail bool                        // Skip remaining scenarios after the first failure

	// Live progress callbacks
	OnFlowStart    func(flowIdx, totalFlows int, id, name string)
	OnStepComplete func(idx int, desc string, status core.Status, durationMs int64, err string)
	OnFlowEnd      func(id string, status core.Status, durationMs int64, err string)
}

// Runner orchestrates flow execution.
type Runner struct {
	config    RunnerConfig
	newRemote RemoteFactory
}

// New creates a new Runner.
func New(newRemote RemoteFactory, cfg RunnerConfig) *Runner {
	return &Runner{
		config:    cfg,
		newRemote: newRemote,
	}
}

// Run executes all flows sequentially. A cancelled context marks the
// scenarios that have not started as skipped.
func (r *Runner) Run(ctx context.Context, flows []flow.Flow) (*core.RunResult, error) {
	if len(flows) == 0 {
		return nil, errors.New("no scenarios to run")
	}
	if err := checkUniqueIDs(flows); err != nil {
		return nil, err
	}

	result := &core.RunResult{
		StartTime: time.Now(),
		Scenarios: make([]core.ScenarioResult, len(flows)),
	}

	stop := ""
	for i := range flows {
		switch {
		case ctx.Err() != nil:
			result.Scenarios[i] = skipped(flows[i], "run cancelled")
			continue
		case stop != "":
			result.Scenarios[i] = skipped(flows[i], stop)
			continue
		}

		fr := &FlowRunner{
			ctx:        ctx,
			flow:       flows[i],
			remote:     r.newRemote(),
			config:     r.config,
			flowIdx:    i,
			totalFlows: len(flows),
		}
		result.Scenarios[i] = fr.Run()

		if r.config.StopOnFail && result.Scenarios[i].Status.IsFailure() {
			stop = "stopped after " + flows[i].ID + " failed"
		}
	}

	result.Duration = time.Since(result.StartTime)
	result.ComputeSummary()
	logger.Info("run finished: %d passed, %d failed, %d skipped", result.Passed, result.Failed, result.Skipped)
	return result, nil
}

func checkUniqueIDs(flows []flow.Flow) error {
	seen := make(map[string]string, len(flows))
	for _, f := range flows {
		if f.ID == "" {
			return core.ErrInvalidConfig.WithMessage("scenario without id in " + f.SourcePath)
		}
		if prev, ok := seen[f.ID]; ok {
			return core.ErrInvalidConfig.WithMessage("duplicate scenario id " + f.ID).
				WithDetails(map[string]interface{}{"first": prev, "second": f.SourcePath})
		}
		seen[f.ID] = f.SourcePath
	}
	return nil
}

func skipped(f flow.Flow, reason string) core.ScenarioResult {
	res := core.ScenarioResult{
		ID:         f.ID,
		Name:       f.DisplayName(),
		SourcePath: f.SourcePath,
		Tags:       f.Tags,
		Status:     core.StatusSkipped,
		Error:      reason,
	}
	res.Steps = skipSteps(f.Steps, 0)
	res.ComputeSummary()
	return res
}

func skipSteps(steps []flow.Step, from int) []core.StepResult {
	var out []core.StepResult
	for i := from; i < len(steps); i++ {
		out = append(out, core.StepResult{
			Index:       i,
			Command:     string(steps[i].Type()),
			Description: steps[i].Describe(),
			Status:      core.StatusSkipped,
		})
	}
	return out
}
