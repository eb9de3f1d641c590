package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/uiharness/pkg/harness"
)

func TestFilterByTags(t *testing.T) {
	flows := []Flow{
		{ID: "search", Tags: []string{"search"}},
		{ID: "fav", Tags: []string{"timeline", "slow"}},
		{ID: "media", Tags: []string{"Timeline"}},
	}

	ids := func(fs []Flow) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.ID)
		}
		return out
	}

	assert.Equal(t, []string{"search", "fav", "media"}, ids(FilterByTags(flows, nil, nil)))
	assert.Equal(t, []string{"fav", "media"}, ids(FilterByTags(flows, []string{"timeline"}, nil)))
	assert.Equal(t, []string{"search", "media"}, ids(FilterByTags(flows, nil, []string{"slow"})))
	assert.Empty(t, FilterByTags(flows, []string{"none"}, nil))
}

func TestSelector_QueryOverride(t *testing.T) {
	sel := ByName("favourite", "Favourite")
	assert.Equal(t, harness.Name("Favourite"), sel.Query(nil))

	overrides := map[string]harness.Strategy{"favourite": harness.ByDescription}
	assert.Equal(t, harness.Description("Favourite"), sel.Query(overrides))

	other := ByName("bookmark", "Bookmark")
	assert.Equal(t, harness.Name("Bookmark"), other.Query(overrides))
}

func TestSelector_Validate(t *testing.T) {
	require.NoError(t, (&Selector{Class: "button"}).Validate())
	assert.Error(t, (&Selector{}).Validate())
	assert.Error(t, (&Selector{Name: "a", Description: "b"}).Validate())
}

func TestStep_Describe(t *testing.T) {
	assert.Equal(t, `Tap on "Search"`, TapOn(ByName("", "Search")).Describe())
	assert.Equal(t, `Input "myquery" into "Search"`, InputText(ByName("", "Search"), "myquery").Describe())
	assert.Equal(t, `Press Enter on "Search"`, PressKey(ByName("", "Search"), "Enter", 0).Describe())
	assert.Equal(t, `Assert "desc:Normal Status" is visible`, AssertVisible(ByDescription("", "Normal Status")).Describe())
	assert.Equal(t, `Assert any of "Users", "Post" is visible`,
		AssertAnyVisible(ByName("", "Users"), ByName("", "Post")).Describe())
	assert.Equal(t, `Assert "Search" has focused`, AssertAttribute(ByName("", "Search"), "focused", "").Describe())
	assert.Equal(t, `Assert checked of "Search" is "true"`, AssertAttribute(ByName("", "Search"), "checked", "true").Describe())

	labelled := TapOn(ByName("", "Home"))
	labelled.StepLabel = "open home"
	assert.Equal(t, "open home", labelled.Describe())
}

func TestSelectors(t *testing.T) {
	step := AssertAnyVisible(ByName("", "a"), ByName("", "b"))
	assert.Len(t, Selectors(step), 2)
	assert.Len(t, Selectors(WaitFor(ByName("", "a"), 100)), 1)
}
