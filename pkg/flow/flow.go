// Package flow defines scenarios: linear sequences of locate, interact and
// assert steps, either built in code or parsed from YAML files.
package flow

import "strings"

// Flow is one scenario.
type Flow struct {
	ID         string   `yaml:"id"`   // Unique within a run; names screenshot artifacts
	Name       string   `yaml:"name"` // Display name
	Tags       []string `yaml:"tags"`
	SourcePath string   `yaml:"-"` // Empty for built-in scenarios
	Steps      []Step   `yaml:"-"`
}

// DisplayName returns Name, falling back to ID.
func (f *Flow) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

// HasTag reports whether the flow carries tag (case-insensitive).
func (f *Flow) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// FilterByTags keeps flows that have at least one include tag (when any are
// given) and none of the exclude tags.
func FilterByTags(flows []Flow, include, exclude []string) []Flow {
	var out []Flow
	for _, f := range flows {
		if len(include) > 0 && !hasAny(&f, include) {
			continue
		}
		if hasAny(&f, exclude) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func hasAny(f *Flow, tags []string) bool {
	for _, t := range tags {
		if f.HasTag(t) {
			return true
		}
	}
	return false
}
