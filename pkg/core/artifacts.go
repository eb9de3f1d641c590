// Package core provides the execution model types for uiharness.
package core

import (
	"fmt"
	"strings"
	"sync"
)

// Attachment represents a diagnostic artifact captured for a scenario
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, source
	ContentType string `json:"contentType"` // MIME type: image/png, application/xml
	Path        string `json:"path"`        // File path relative to output directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentSource     = "source"
)

// Common content types
const (
	ContentTypePNG = "image/png"
	ContentTypeXML = "application/xml"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewSourceAttachment creates a page source attachment
func NewSourceAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentSource,
		ContentType: ContentTypeXML,
		Path:        path,
		Body:        data,
	}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
	Screenshot       bool `yaml:"screenshot" json:"screenshot"`             // Default: true
	PageSource       bool `yaml:"pageSource" json:"pageSource"`             // Default: false
}

// DefaultArtifactConfig returns the defaults: a screenshot for every failure, nothing else.
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		Screenshot:       true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status Status) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// Screenshot file name prefixes, chosen by scenario outcome.
const (
	FailedShotPrefix = "failed_test_shot"
	ShotPrefix       = "test_shot"
)

// ArtifactNamer hands out artifact file names that are unique within a run.
type ArtifactNamer struct {
	mu     sync.Mutex
	prefix string
	used   map[string]bool // final names already handed out
}

// NewArtifactNamer creates a namer. prefix identifies the application under
// test, e.g. "tokodon".
func NewArtifactNamer(prefix string) *ArtifactNamer {
	return &ArtifactNamer{
		prefix: sanitize(prefix),
		used:   make(map[string]bool),
	}
}

// ScreenshotName returns failed_test_shot_<prefix>_#<scenarioID>.png for a
// failed or errored outcome and test_shot_<prefix>_#<scenarioID>.png
// otherwise. A name already handed out gets a -2 suffix, then -3, and so on.
func (n *ArtifactNamer) ScreenshotName(scenarioID string, outcome Status) string {
	return n.name(scenarioID, outcome, "png")
}

// SourceName returns the page source file name for a scenario.
func (n *ArtifactNamer) SourceName(scenarioID string, outcome Status) string {
	return n.name(scenarioID, outcome, "xml")
}

func (n *ArtifactNamer) name(scenarioID string, outcome Status, ext string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	kind := ShotPrefix
	if outcome.IsFailure() {
		kind = FailedShotPrefix
	}
	base := fmt.Sprintf("%s_%s_#%s", kind, n.prefix, sanitize(scenarioID))
	name := base + "." + ext
	for i := 2; n.used[name]; i++ {
		name = fmt.Sprintf("%s-%d.%s", base, i, ext)
	}
	n.used[name] = true
	return name
}

// sanitize replaces characters that are unsafe in file names.
func sanitize(s string) string {
	if s == "" {
		return "app"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
