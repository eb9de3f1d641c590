package flow

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/uiharness/pkg/harness"
)

// Selector identifies a UI control. Exactly one of Name, Description or
// Class is set. Target names the logical control so its strategy can be
// overridden per run without editing the scenario.
type Selector struct {
	Target      string `yaml:"target"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Class       string `yaml:"class"`
}

// UnmarshalYAML allows a bare string as shorthand for an accessible name.
func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Name = node.Value
		return nil
	}

	type raw Selector
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = Selector(r)
	return nil
}

// Validate checks that exactly one criterion is set.
func (s *Selector) Validate() error {
	set := 0
	for _, v := range []string{s.Name, s.Description, s.Class} {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		return fmt.Errorf("selector needs one of name, description, class")
	case 1:
		return nil
	default:
		return fmt.Errorf("selector sets more than one of name, description, class")
	}
}

// Query resolves the selector. A strategy override registered for Target
// replaces the strategy but keeps the value.
func (s *Selector) Query(overrides map[string]harness.Strategy) harness.Query {
	var q harness.Query
	switch {
	case s.Name != "":
		q = harness.Name(s.Name)
	case s.Description != "":
		q = harness.Description(s.Description)
	default:
		q = harness.Class(s.Class)
	}
	if s.Target != "" {
		if strategy, ok := overrides[s.Target]; ok {
			q.Strategy = strategy
		}
	}
	return q
}

// Describe returns a human-readable description.
func (s *Selector) Describe() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Description != "":
		return "desc:" + s.Description
	case s.Class != "":
		return "class:" + s.Class
	default:
		return ""
	}
}

// ByName builds a selector for target matching an accessible name.
func ByName(target, value string) Selector {
	return Selector{Target: target, Name: value}
}

// ByDescription builds a selector for target matching an accessible description.
func ByDescription(target, value string) Selector {
	return Selector{Target: target, Description: value}
}

// ByClass builds a selector for target matching a class name.
func ByClass(target, value string) Selector {
	return Selector{Target: target, Class: value}
}
