package flow

import (
	"fmt"
	"strings"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Interaction
	StepTapOn     StepType = "tapOn"
	StepInputText StepType = "inputText"
	StepPressKey  StepType = "pressKey"

	// Waiting and assertions
	StepWaitFor          StepType = "waitFor"
	StepAssertVisible    StepType = "assertVisible"
	StepAssertAnyVisible StepType = "assertAnyVisible"
	StepAssertAttribute  StepType = "assertAttribute"
)

// Step is the interface for all flow steps.
type Step interface {
	Type() StepType
	Label() string
	Describe() string
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	StepLabel string   `yaml:"label"`
	TimeoutMs int      `yaml:"timeout"` // Overrides the run's wait timeout; 0 = default
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// TapOnStep locates an element and activates it.
type TapOnStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *TapOnStep) Describe() string {
	return describe(&s.BaseStep, fmt.Sprintf("Tap on %q", s.Selector.Describe()))
}

// InputTextStep types literal text into an element.
type InputTextStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
	Text     string   `yaml:"text"`
}

// Describe returns a human-readable description.
func (s *InputTextStep) Describe() string {
	return describe(&s.BaseStep, fmt.Sprintf("Input %q into %q", s.Text, s.Selector.Describe()))
}

// PressKeyStep sends a special key (Enter, Down, ...) to an element,
// Repeat times.
type PressKeyStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
	Key      string   `yaml:"key"`
	Repeat   int      `yaml:"repeat"`
}

// Times returns the repeat count, at least 1.
func (s *PressKeyStep) Times() int {
	if s.Repeat < 1 {
		return 1
	}
	return s.Repeat
}

// Describe returns a human-readable description.
func (s *PressKeyStep) Describe() string {
	desc := fmt.Sprintf("Press %s on %q", s.Key, s.Selector.Describe())
	if s.Times() > 1 {
		desc += fmt.Sprintf(" x%d", s.Times())
	}
	return describe(&s.BaseStep, desc)
}

// WaitForStep polls until an element is present.
type WaitForStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *WaitForStep) Describe() string {
	return describe(&s.BaseStep, fmt.Sprintf("Wait for %q", s.Selector.Describe()))
}

// AssertVisibleStep asserts an element becomes present.
type AssertVisibleStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *AssertVisibleStep) Describe() string {
	return describe(&s.BaseStep, fmt.Sprintf("Assert %q is visible", s.Selector.Describe()))
}

// AssertAnyVisibleStep asserts at least one of several elements becomes present.
type AssertAnyVisibleStep struct {
	BaseStep  `yaml:",inline"`
	Selectors []Selector `yaml:"anyOf"`
}

// Describe returns a human-readable description.
func (s *AssertAnyVisibleStep) Describe() string {
	names := make([]string, len(s.Selectors))
	for i := range s.Selectors {
		names[i] = fmt.Sprintf("%q", s.Selectors[i].Describe())
	}
	return describe(&s.BaseStep, "Assert any of "+strings.Join(names, ", ")+" is visible")
}

// AssertAttributeStep asserts an element attribute. An empty Value only
// requires the attribute to be set.
type AssertAttributeStep struct {
	BaseStep  `yaml:",inline"`
	Selector  Selector `yaml:",inline"`
	Attribute string   `yaml:"attribute"`
	Value     string   `yaml:"value"`
}

// Describe returns a human-readable description.
func (s *AssertAttributeStep) Describe() string {
	if s.Value == "" {
		return describe(&s.BaseStep, fmt.Sprintf("Assert %q has %s", s.Selector.Describe(), s.Attribute))
	}
	return describe(&s.BaseStep, fmt.Sprintf("Assert %s of %q is %q", s.Attribute, s.Selector.Describe(), s.Value))
}

func describe(b *BaseStep, fallback string) string {
	if b.StepLabel != "" {
		return b.StepLabel
	}
	return fallback
}

// Selectors returns every selector a step uses.
func Selectors(step Step) []Selector {
	switch s := step.(type) {
	case *TapOnStep:
		return []Selector{s.Selector}
	case *InputTextStep:
		return []Selector{s.Selector}
	case *PressKeyStep:
		return []Selector{s.Selector}
	case *WaitForStep:
		return []Selector{s.Selector}
	case *AssertVisibleStep:
		return []Selector{s.Selector}
	case *AssertAnyVisibleStep:
		return s.Selectors
	case *AssertAttributeStep:
		return []Selector{s.Selector}
	default:
		return nil
	}
}

// Constructors used by the built-in catalog.

// TapOn builds a TapOnStep.
func TapOn(sel Selector) *TapOnStep {
	return &TapOnStep{BaseStep: BaseStep{StepType: StepTapOn}, Selector: sel}
}

// InputText builds an InputTextStep.
func InputText(sel Selector, text string) *InputTextStep {
	return &InputTextStep{BaseStep: BaseStep{StepType: StepInputText}, Selector: sel, Text: text}
}

// PressKey builds a PressKeyStep.
func PressKey(sel Selector, key string, repeat int) *PressKeyStep {
	return &PressKeyStep{BaseStep: BaseStep{StepType: StepPressKey}, Selector: sel, Key: key, Repeat: repeat}
}

// WaitFor builds a WaitForStep.
func WaitFor(sel Selector, timeoutMs int) *WaitForStep {
	return &WaitForStep{BaseStep: BaseStep{StepType: StepWaitFor, TimeoutMs: timeoutMs}, Selector: sel}
}

// AssertVisible builds an AssertVisibleStep.
func AssertVisible(sel Selector) *AssertVisibleStep {
	return &AssertVisibleStep{BaseStep: BaseStep{StepType: StepAssertVisible}, Selector: sel}
}

// AssertAnyVisible builds an AssertAnyVisibleStep.
func AssertAnyVisible(sels ...Selector) *AssertAnyVisibleStep {
	return &AssertAnyVisibleStep{BaseStep: BaseStep{StepType: StepAssertAnyVisible}, Selectors: sels}
}

// AssertAttribute builds an AssertAttributeStep.
func AssertAttribute(sel Selector, attribute, value string) *AssertAttributeStep {
	return &AssertAttributeStep{BaseStep: BaseStep{StepType: StepAssertAttribute}, Selector: sel, Attribute: attribute, Value: value}
}

// Timeout returns the per-step timeout in milliseconds, 0 for the default.
func (b *BaseStep) Timeout() int { return b.TimeoutMs }
