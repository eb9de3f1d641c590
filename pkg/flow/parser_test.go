package flow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/uiharness/pkg/harness"
)

const searchFlow = `
id: search_and_app
name: Search and app
tags: [search]
steps:
  - assertAttribute: {target: search, name: Search, attribute: focused}
  - tapOn: Search
  - inputText: {name: Search, text: myquery}
  - pressKey: {name: Search, key: Enter}
  - assertAnyVisible: [Users, Post, Hashtags]
`

func TestParse_SearchFlow(t *testing.T) {
	f, err := Parse([]byte(searchFlow), "search.yaml")
	require.NoError(t, err)

	assert.Equal(t, "search_and_app", f.ID)
	assert.Equal(t, "Search and app", f.DisplayName())
	assert.Equal(t, []string{"search"}, f.Tags)
	assert.Equal(t, "search.yaml", f.SourcePath)
	require.Len(t, f.Steps, 5)

	attr, ok := f.Steps[0].(*AssertAttributeStep)
	require.True(t, ok)
	assert.Equal(t, "search", attr.Selector.Target)
	assert.Equal(t, "Search", attr.Selector.Name)
	assert.Equal(t, "focused", attr.Attribute)
	assert.Empty(t, attr.Value)

	tap, ok := f.Steps[1].(*TapOnStep)
	require.True(t, ok)
	assert.Equal(t, StepTapOn, tap.Type())
	assert.Equal(t, "Search", tap.Selector.Name)

	input, ok := f.Steps[2].(*InputTextStep)
	require.True(t, ok)
	assert.Equal(t, "myquery", input.Text)

	key, ok := f.Steps[3].(*PressKeyStep)
	require.True(t, ok)
	assert.Equal(t, "Enter", key.Key)
	assert.Equal(t, 1, key.Times())

	anyStep, ok := f.Steps[4].(*AssertAnyVisibleStep)
	require.True(t, ok)
	require.Len(t, anyStep.Selectors, 3)
	assert.Equal(t, "Hashtags", anyStep.Selectors[2].Name)
}

func TestParse_SelectorsAndTimeouts(t *testing.T) {
	data := `
steps:
  - pressKey: {target: home, name: Home, key: down, repeat: 3}
  - waitFor: {description: image, timeout: 5000}
  - assertVisible: {class: push button}
  - assertAnyVisible:
      anyOf:
        - description: Video
        - {name: GifV}
`
	f, err := Parse([]byte(data), "/tmp/media.yml")
	require.NoError(t, err)
	assert.Equal(t, "media", f.ID)
	require.Len(t, f.Steps, 4)

	key := f.Steps[0].(*PressKeyStep)
	assert.Equal(t, 3, key.Times())
	assert.Equal(t, "Press down on \"Home\" x3", key.Describe())

	wait := f.Steps[1].(*WaitForStep)
	assert.Equal(t, 5000, wait.Timeout())
	assert.Equal(t, harness.Description("image"), wait.Selector.Query(nil))

	vis := f.Steps[2].(*AssertVisibleStep)
	assert.Equal(t, harness.Class("push button"), vis.Selector.Query(nil))

	anyStep := f.Steps[3].(*AssertAnyVisibleStep)
	require.Len(t, anyStep.Selectors, 2)
	assert.Equal(t, "Video", anyStep.Selectors[0].Description)
	assert.Equal(t, "GifV", anyStep.Selectors[1].Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"invalid yaml", "steps: [", "invalid flow"},
		{"no steps", "id: x\n", "flow has no steps"},
		{"unknown step", "steps:\n  - swipe: up\n", "unknown step type: swipe"},
		{"scalar step", "steps:\n  - tapOn\n", "single step type"},
		{"missing selector", "steps:\n  - tapOn: {target: x}\n", "selector needs one of"},
		{"two criteria", "steps:\n  - tapOn: {name: a, class: b}\n", "more than one"},
		{"missing text", "steps:\n  - inputText: {name: Search}\n", "text is required"},
		{"unknown key", "steps:\n  - pressKey: {name: Home, key: F13}\n", "unknown key"},
		{"negative repeat", "steps:\n  - pressKey: {name: Home, key: Down, repeat: -1}\n", "repeat"},
		{"missing attribute", "steps:\n  - assertAttribute: {name: Search}\n", "attribute is required"},
		{"negative timeout", "steps:\n  - waitFor: {name: Home, timeout: -1}\n", "timeout"},
		{"empty any", "steps:\n  - assertAnyVisible: []\n", "at least one selector"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "bad.yaml")
			require.Error(t, err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "bad.yaml", perr.Path)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseError_Error(t *testing.T) {
	assert.Equal(t, "a.yaml:3: boom", (&ParseError{Path: "a.yaml", Line: 3, Message: "boom"}).Error())
	assert.Equal(t, "a.yaml: boom", (&ParseError{Path: "a.yaml", Message: "boom"}).Error())
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("b.yml", "steps:\n  - tapOn: Home\n")
	write("a.yaml", "id: first\nsteps:\n  - tapOn: Search\n")
	write("notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	flows, err := ParseDir(dir)
	require.NoError(t, err)
	require.Len(t, flows, 2)
	assert.Equal(t, "first", flows[0].ID)
	assert.Equal(t, "b", flows[1].ID)
}

func TestParseDir_PropagatesErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("steps: []\n"), 0o644))

	_, err := ParseDir(dir)
	require.Error(t, err)

	_, err = ParseDir(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
