// Package harness drives an application under test through a remote
// automation server: it opens a session, locates accessibility-tree
// elements, injects input, asserts on what appears, and releases the
// session exactly once with a screenshot on failure.
package harness

import (
	"fmt"
	"strings"
)

// Strategy is a locate strategy understood by the automation server.
type Strategy string

// Supported strategies. The values are sent verbatim as the "using" field.
const (
	ByName        Strategy = "name"        // accessible name, exact match
	ByDescription Strategy = "description" // accessible description, exact match
	ByClass       Strategy = "class name"  // structural class (role) path
)

// ParseStrategy accepts the canonical names plus a few spellings seen in
// configuration files ("accessible name", "class", "classname").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "accessible name", "accessibility name":
		return ByName, nil
	case "description", "accessible description", "desc":
		return ByDescription, nil
	case "class name", "class", "classname", "class_name":
		return ByClass, nil
	default:
		return "", fmt.Errorf("unknown locate strategy %q (want name, description, or class name)", s)
	}
}

// Query is one locate request: a strategy plus the exact value to match.
type Query struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	Value    string   `json:"value" yaml:"value"`
}

// Name builds a query by accessible name.
func Name(value string) Query { return Query{Strategy: ByName, Value: value} }

// Description builds a query by accessible description.
func Description(value string) Query { return Query{Strategy: ByDescription, Value: value} }

// Class builds a query by class name.
func Class(value string) Query { return Query{Strategy: ByClass, Value: value} }

// String renders the query as strategy="value".
func (q Query) String() string {
	return fmt.Sprintf("%s=%q", q.Strategy, q.Value)
}
