package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
	"github.com/devicelab-dev/uiharness/pkg/flow"
	"github.com/devicelab-dev/uiharness/pkg/harness"
	"github.com/devicelab-dev/uiharness/pkg/logger"
)

// FlowRunner executes a single flow in its own session.
type FlowRunner struct {
	ctx        context.Context
	flow       flow.Flow
	remote     harness.Remote
	config     RunnerConfig
	session    *harness.Session
	log        *logrus.Entry
	flowIdx    int // Current flow index (0-based)
	totalFlows int // Total number of flows

	// Elements located earlier in this flow, reused by later steps on the
	// same query. Never shared across flows.
	elements map[harness.Query]*harness.Element
}

// Run executes the flow and returns the result. The session is released
// exactly once on every path out, including a panicking step.
func (fr *FlowRunner) Run() (result core.ScenarioResult) {
	start := time.Now()
	fr.log = logger.WithScenario(fr.flow.ID)
	fr.elements = make(map[harness.Query]*harness.Element)

	result = core.ScenarioResult{
		ID:         fr.flow.ID,
		Name:       fr.flow.DisplayName(),
		SourcePath: fr.flow.SourcePath,
		Tags:       fr.flow.Tags,
		Status:     core.StatusRunning,
		StartTime:  start,
	}

	if fr.config.OnFlowStart != nil {
		fr.config.OnFlowStart(fr.flowIdx, fr.totalFlows, fr.flow.ID, result.Name)
	}

	defer func() {
		result.Duration = time.Since(start)
		result.ComputeSummary()
		fr.log.Infof("scenario %s in %s", result.Status, result.Duration.Round(time.Millisecond))
		if fr.config.OnFlowEnd != nil {
			fr.config.OnFlowEnd(fr.flow.ID, result.Status, result.Duration.Milliseconds(), result.Error)
		}
	}()

	session, err := harness.StartSession(fr.ctx, fr.remote, fr.config.Session, fr.flow.ID)
	if err != nil {
		fr.fail(&result, err)
		result.Steps = skipSteps(fr.flow.Steps, 0)
		return result
	}
	fr.session = session

	defer func() {
		if rec := recover(); rec != nil {
			fr.log.Errorf("panic: %v", rec)
			result.Status = core.StatusErrored
			result.Error = fmt.Sprintf("panic: %v", rec)
			result.ErrorCode = "panic"
			if n := len(result.Steps); n < len(fr.flow.Steps) {
				result.Steps = append(result.Steps, core.StepResult{
					Index:       n,
					Command:     string(fr.flow.Steps[n].Type()),
					Description: fr.flow.Steps[n].Describe(),
					Status:      core.StatusErrored,
					Error:       result.Error,
				})
				result.Steps = append(result.Steps, skipSteps(fr.flow.Steps, n+1)...)
			}
		}
		if err := session.End(fr.ctx, result.Status); err != nil {
			fr.log.Warnf("release session: %v", err)
		}
		result.Attachments = session.Attachments()
	}()

	result.Status = core.StatusPassed
	for i, step := range fr.flow.Steps {
		if fr.ctx.Err() != nil {
			result.Steps = append(result.Steps, skipSteps(fr.flow.Steps, i)...)
			result.Status = core.StatusSkipped
			result.Error = "execution cancelled"
			break
		}

		sr, err := fr.runStep(i, step)
		result.Steps = append(result.Steps, sr)

		if fr.config.OnStepComplete != nil {
			fr.config.OnStepComplete(i, sr.Description, sr.Status, sr.Duration.Milliseconds(), sr.Error)
		}

		if sr.Status != core.StatusPassed {
			result.Steps = append(result.Steps, skipSteps(fr.flow.Steps, i+1)...)
			result.Status = sr.Status
			result.Error = sr.Error
			if sr.Status == core.StatusSkipped {
				result.Error = "execution cancelled"
			} else {
				result.ErrorCode = core.CodeOf(err)
			}
			break
		}
	}
	return result
}

func (fr *FlowRunner) fail(result *core.ScenarioResult, err error) {
	if fr.ctx.Err() != nil && errors.Is(err, fr.ctx.Err()) {
		result.Status = core.StatusSkipped
		result.Error = "execution cancelled"
		return
	}
	fr.log.Errorf("start session: %v", err)
	result.Status = core.StatusFor(core.CategoryOf(err))
	result.Error = err.Error()
	result.ErrorCode = core.CodeOf(err)
}

// runStep executes one step and records its outcome.
func (fr *FlowRunner) runStep(idx int, step flow.Step) (core.StepResult, error) {
	sr := core.StepResult{
		Index:       idx,
		Command:     string(step.Type()),
		Description: step.Describe(),
		StartTime:   time.Now(),
	}

	msg, err := fr.executeStep(step)
	sr.Duration = time.Since(sr.StartTime)
	sr.Message = msg

	switch {
	case err == nil:
		sr.Status = core.StatusPassed
		fr.log.Debugf("step %d passed: %s", idx, sr.Description)
	case fr.ctx.Err() != nil && errors.Is(err, fr.ctx.Err()):
		sr.Status = core.StatusSkipped
		sr.Error = err.Error()
	default:
		sr.Category = core.CategoryOf(err)
		sr.Status = core.StatusFor(sr.Category)
		sr.Error = err.Error()
		fr.log.Errorf("step %d %s: %s: %v", idx, sr.Status, sr.Description, err)
	}
	return sr, err
}

// executeStep dispatches a step to the session. The returned message is
// informational (which alternative matched, for example).
func (fr *FlowRunner) executeStep(step flow.Step) (string, error) {
	ctx := fr.ctx
	switch s := step.(type) {
	case *flow.TapOnStep:
		return "", fr.interact(s.Selector, harness.Click())

	case *flow.InputTextStep:
		return "", fr.interact(s.Selector, harness.Type(s.Text))

	case *flow.PressKeyStep:
		key, err := webdriver.ParseKey(s.Key)
		if err != nil {
			return "", core.ErrInvalidConfig.WithCause(err)
		}
		return "", fr.interact(s.Selector, harness.Press(key, s.Times()))

	case *flow.WaitForStep:
		q := fr.query(s.Selector)
		el, err := fr.session.WaitFor(ctx, q, fr.timeout(s.Timeout()))
		if err != nil {
			return "", err
		}
		fr.elements[q] = el
		return "", nil

	case *flow.AssertVisibleStep:
		q := fr.query(s.Selector)
		el, err := fr.session.WaitFor(ctx, q, fr.timeout(s.Timeout()))
		if err != nil {
			return "", err
		}
		fr.elements[q] = el
		return "", nil

	case *flow.AssertAnyVisibleStep:
		queries := make([]harness.Query, len(s.Selectors))
		for i := range s.Selectors {
			queries[i] = fr.query(s.Selectors[i])
		}
		var (
			el      *harness.Element
			matched harness.Query
			err     error
		)
		if s.Timeout() > 0 {
			el, matched, err = fr.session.WaitForAny(ctx, queries, fr.timeout(s.Timeout()))
			if errors.Is(err, core.ErrNotFound) {
				err = core.ErrAssertion.WithMessage("none of the expected elements appeared").WithCause(err)
			}
		} else {
			el, matched, err = fr.session.AssertAnyPresent(ctx, queries)
		}
		if err != nil {
			return "", err
		}
		fr.elements[matched] = el
		return "matched " + matched.String(), nil

	case *flow.AssertAttributeStep:
		el, err := fr.element(s.Selector)
		if err != nil {
			return "", err
		}
		return "", fr.session.AssertAttribute(ctx, el, s.Attribute, s.Value)

	default:
		return "", core.NewExecutionError(core.ErrCategoryConfig, "unsupported_step",
			fmt.Sprintf("unsupported step type %s", step.Type()))
	}
}

// interact locates (or reuses) the selector's element and applies a.
func (fr *FlowRunner) interact(sel flow.Selector, a harness.Action) error {
	el, err := fr.element(sel)
	if err != nil {
		return err
	}
	fr.log.Debugf("%s on %s", a, el.Query())
	return fr.session.Interact(fr.ctx, el, a)
}

// element returns the element for sel, locating it on first use.
func (fr *FlowRunner) element(sel flow.Selector) (*harness.Element, error) {
	q := fr.query(sel)
	if el, ok := fr.elements[q]; ok {
		return el, nil
	}
	el, err := fr.session.Locate(fr.ctx, q)
	if err != nil {
		return nil, err
	}
	fr.elements[q] = el
	return el, nil
}

func (fr *FlowRunner) query(sel flow.Selector) harness.Query {
	return sel.Query(fr.config.Strategies)
}

// timeout returns the step override, or the session wait timeout.
func (fr *FlowRunner) timeout(ms int) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fr.config.Session.WaitTimeout
}
