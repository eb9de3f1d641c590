package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single YAML flow file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// ParseDir parses every *.yaml and *.yml file in dir, sorted by file name.
func ParseDir(dir string) ([]Flow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsFlowFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	flows := make([]Flow, 0, len(paths))
	for _, p := range paths {
		f, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		flows = append(flows, *f)
	}
	return flows, nil
}

// IsFlowFile reports whether name has a YAML extension.
func IsFlowFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Parse parses YAML flow content:
//
//	id: search_and_app
//	name: Search and app
//	tags: [search]
//	steps:
//	  - tapOn: Search
//	  - inputText: {name: Search, text: myquery}
//	  - pressKey: {name: Search, key: Enter}
//	  - assertAnyVisible: {anyOf: [Users, Post, Hashtags]}
func Parse(data []byte, sourcePath string) (*Flow, error) {
	var doc struct {
		ID    string      `yaml:"id"`
		Name  string      `yaml:"name"`
		Tags  []string    `yaml:"tags"`
		Steps []yaml.Node `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Message: fmt.Sprintf("invalid flow: %v", err),
		}
	}
	if len(doc.Steps) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "flow has no steps",
		}
	}

	flow := &Flow{
		ID:         doc.ID,
		Name:       doc.Name,
		Tags:       doc.Tags,
		SourcePath: sourcePath,
	}
	if flow.ID == "" {
		base := filepath.Base(sourcePath)
		flow.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	for i := range doc.Steps {
		step, err := parseStep(&doc.Steps[i], sourcePath)
		if err != nil {
			return nil, err
		}
		flow.Steps = append(flow.Steps, step)
	}
	return flow, nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping with a single step type",
		}
	}

	key := node.Content[0].Value
	if !isStepType(key) {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: fmt.Sprintf("unknown step type: %s", key),
		}
	}

	step, err := decodeStep(StepType(key), node.Content[1], sourcePath)
	if err != nil {
		return nil, err
	}
	if err := validateStep(step); err != nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: fmt.Sprintf("%s: %v", key, err),
		}
	}
	return step, nil
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepTapOn, StepInputText, StepPressKey, StepWaitFor,
		StepAssertVisible, StepAssertAnyVisible, StepAssertAttribute:
		return true
	}
	return false
}

func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	var step Step
	switch stepType {
	case StepTapOn:
		var s TapOnStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Selector.Name = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		step = &s

	case StepInputText:
		var s InputTextStep
		if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		step = &s

	case StepPressKey:
		var s PressKeyStep
		if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		step = &s

	case StepWaitFor:
		var s WaitForStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Selector.Name = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		step = &s

	case StepAssertVisible:
		var s AssertVisibleStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Selector.Name = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		step = &s

	case StepAssertAnyVisible:
		var s AssertAnyVisibleStep
		if valueNode.Kind == yaml.SequenceNode {
			if err := valueNode.Decode(&s.Selectors); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, err)
			}
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		step = &s

	case StepAssertAttribute:
		var s AssertAttributeStep
		if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		step = &s

	default:
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: fmt.Sprintf("unknown step type: %s", stepType),
		}
	}
	return step, nil
}

// validateStep checks required fields.
func validateStep(step Step) error {
	sels := Selectors(step)
	if len(sels) == 0 {
		return fmt.Errorf("needs at least one selector")
	}
	for i := range sels {
		if err := sels[i].Validate(); err != nil {
			return err
		}
	}

	switch s := step.(type) {
	case *InputTextStep:
		if s.Text == "" {
			return fmt.Errorf("text is required")
		}
	case *PressKeyStep:
		if s.Key == "" {
			return fmt.Errorf("key is required")
		}
		if _, err := webdriver.ParseKey(s.Key); err != nil {
			return err
		}
		if s.Repeat < 0 {
			return fmt.Errorf("repeat must not be negative")
		}
	case *AssertAttributeStep:
		if s.Attribute == "" {
			return fmt.Errorf("attribute is required")
		}
	}
	if t, ok := step.(interface{ Timeout() int }); ok && t.Timeout() < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}
