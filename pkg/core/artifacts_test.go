package core

import "testing"

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("shot.png", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewSourceAttachment(t *testing.T) {
	attachment := NewSourceAttachment("source.xml", []byte("<root/>"))

	if attachment.Name != AttachmentSource {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentSource)
	}
	if attachment.ContentType != ContentTypeXML {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypeXML)
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultArtifactConfig()

	tests := []struct {
		status Status
		want   bool
	}{
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusPassed, false},
		{StatusSkipped, false},
		{StatusPending, false},
	}
	for _, tt := range tests {
		if got := cfg.ShouldCapture(tt.status); got != tt.want {
			t.Errorf("ShouldCapture(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}

	cfg.CaptureOnSuccess = true
	if !cfg.ShouldCapture(StatusPassed) {
		t.Error("ShouldCapture(passed) = false with CaptureOnSuccess")
	}
}

func TestArtifactNamer_ScreenshotName(t *testing.T) {
	n := NewArtifactNamer("tokodon")

	got := n.ScreenshotName("timeline.favourite_interactions", StatusFailed)
	want := "failed_test_shot_tokodon_#timeline.favourite_interactions.png"
	if got != want {
		t.Errorf("ScreenshotName() = %q, want %q", got, want)
	}
}

func TestArtifactNamer_UniquePerScenario(t *testing.T) {
	n := NewArtifactNamer("tokodon")

	seen := make(map[string]bool)
	for _, id := range []string{"search.search_and_app", "timeline.status_type", "search.search_and_app", "search.search_and_app"} {
		name := n.ScreenshotName(id, StatusFailed)
		if seen[name] {
			t.Fatalf("duplicate screenshot name %q", name)
		}
		seen[name] = true
	}

	if !seen["failed_test_shot_tokodon_#search.search_and_app-3.png"] {
		t.Errorf("expected -3 suffix for third request, got %v", seen)
	}
}

func TestArtifactNamer_Sanitizes(t *testing.T) {
	n := NewArtifactNamer("")

	got := n.ScreenshotName("flows/custom: scenario", StatusErrored)
	want := "failed_test_shot_app_#flows_custom__scenario.png"
	if got != want {
		t.Errorf("ScreenshotName() = %q, want %q", got, want)
	}
}

func TestArtifactNamer_SourceNameIndependent(t *testing.T) {
	n := NewArtifactNamer("tokodon")

	_ = n.ScreenshotName("a", StatusFailed)
	if got := n.SourceName("a", StatusFailed); got != "failed_test_shot_tokodon_#a.xml" {
		t.Errorf("SourceName() = %q", got)
	}
}

func TestArtifactNamer_SanitizedCollisionNeverReused(t *testing.T) {
	n := NewArtifactNamer("tokodon")

	seen := make(map[string]bool)
	for _, id := range []string{"a/b", "a_b", "a_b-2", "a b"} {
		name := n.ScreenshotName(id, StatusFailed)
		if seen[name] {
			t.Fatalf("ScreenshotName(%q) reused %q", id, name)
		}
		seen[name] = true
	}

	for _, want := range []string{
		"failed_test_shot_tokodon_#a_b.png",
		"failed_test_shot_tokodon_#a_b-2.png",
		"failed_test_shot_tokodon_#a_b-2-2.png",
		"failed_test_shot_tokodon_#a_b-3.png",
	} {
		if !seen[want] {
			t.Errorf("missing %q in %v", want, seen)
		}
	}
}

func TestArtifactNamer_PrefixByOutcome(t *testing.T) {
	n := NewArtifactNamer("tokodon")

	tests := []struct {
		id      string
		outcome Status
		want    string
	}{
		{"fav", StatusFailed, "failed_test_shot_tokodon_#fav.png"},
		{"boost", StatusErrored, "failed_test_shot_tokodon_#boost.png"},
		{"search", StatusPassed, "test_shot_tokodon_#search.png"},
	}
	for _, tt := range tests {
		if got := n.ScreenshotName(tt.id, tt.outcome); got != tt.want {
			t.Errorf("ScreenshotName(%q, %s) = %q, want %q", tt.id, tt.outcome, got, tt.want)
		}
	}
}
