// Package validator checks scenario files before execution. It parses every
// file upfront so that all errors are reported together, applies tag
// filters and rejects scenario IDs that collide.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/devicelab-dev/uiharness/pkg/flow"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Files is the list of flow file paths in execution order.
	Files []string
	// Flows holds the parsed flows that passed the tag filters, in Files order.
	Flows []flow.Flow
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Targets returns the distinct selector targets the flows name, sorted.
func (r *Result) Targets() []string {
	seen := make(map[string]bool)
	for _, f := range r.Flows {
		for _, step := range f.Steps {
			for _, sel := range flow.Selectors(step) {
				if sel.Target != "" {
					seen[sel.Target] = true
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Validator validates flow files.
type Validator struct {
	includeTags []string
	excludeTags []string
	ids         map[string]string // scenario ID → file (or "built-in")
}

// New creates a new Validator. reservedIDs are IDs already taken, such as
// the built-in catalog.
func New(includeTags, excludeTags []string, reservedIDs ...string) *Validator {
	ids := make(map[string]string, len(reservedIDs))
	for _, id := range reservedIDs {
		ids[id] = "built-in"
	}
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
		ids:         ids,
	}
}

// Validate validates a file or directory. Directories are walked
// recursively for *.yaml and *.yml files. State is kept across calls so
// IDs stay unique over every path of a run.
func (v *Validator) Validate(path string) *Result {
	result := &Result{}

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    path,
			Message: fmt.Sprintf("cannot access: %v", err),
		})
		return result
	}

	var files []string
	if info.IsDir() {
		files, err = collectFlowFiles(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to scan directory: %v", err),
			})
			return result
		}
	} else {
		files = []string{path}
	}

	for _, file := range files {
		v.validateFile(file, result)
	}
	return result
}

// collectFlowFiles finds all .yaml/.yml files under dir.
func collectFlowFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if flow.IsFlowFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func (v *Validator) validateFile(filePath string, result *Result) {
	f, err := flow.ParseFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return
	}

	if len(flow.FilterByTags([]flow.Flow{*f}, v.includeTags, v.excludeTags)) == 0 {
		return
	}

	if prev, ok := v.ids[f.ID]; ok {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("scenario id %q already used by %s", f.ID, prev),
		})
		return
	}
	v.ids[f.ID] = filePath

	result.Files = append(result.Files, filePath)
	result.Flows = append(result.Flows, *f)
}
