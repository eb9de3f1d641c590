package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/flow"
	"github.com/devicelab-dev/uiharness/pkg/harness"
)

func TestLabelsFor(t *testing.T) {
	for _, name := range []string{"", "british", "UK", "en-GB"} {
		l, err := LabelsFor(name)
		require.NoError(t, err, name)
		assert.Equal(t, LabelsBritish, l, name)
	}
	for _, name := range []string{"american", "US", "en_us"} {
		l, err := LabelsFor(name)
		require.NoError(t, err, name)
		assert.Equal(t, LabelsAmerican, l, name)
	}
	_, err := LabelsFor("klingon")
	assert.Error(t, err)
}

func TestFlows_IDsAndTags(t *testing.T) {
	flows := Flows(LabelsBritish)

	var ids []string
	for _, f := range flows {
		ids = append(ids, f.ID)
		assert.NotEmpty(t, f.Steps, f.ID)
	}
	assert.Equal(t, []string{
		"search_and_app",
		"status_type",
		"favourite_interactions",
		"bookmark_interactions",
		"boost_interactions",
		"status_media",
	}, ids)

	assert.Len(t, flow.FilterByTags(flows, []string{TagSearch}, nil), 1)
	assert.Len(t, flow.FilterByTags(flows, []string{TagTimeline}, nil), 5)
}

func TestFlows_LabelVariants(t *testing.T) {
	search, ok := Find(Flows(LabelsAmerican), "search_and_app")
	require.True(t, ok)
	anyStep, ok := search.Steps[len(search.Steps)-1].(*flow.AssertAnyVisibleStep)
	require.True(t, ok)
	assert.Equal(t, "People", anyStep.Selectors[0].Name)

	fav, ok := Find(Flows(LabelsAmerican), "favourite_interactions")
	require.True(t, ok)
	tap := fav.Steps[0].(*flow.TapOnStep)
	assert.Equal(t, harness.Description("Favorite"), tap.Selector.Query(nil))
	assert.Equal(t, harness.Description("Favorited"), fav.Steps[1].(*flow.AssertVisibleStep).Selector.Query(nil))
}

func TestFlows_ToggleActivatedLabels(t *testing.T) {
	tests := []struct {
		labels    Labels
		id        string
		label     string
		activated string
	}{
		{LabelsBritish, "favourite_interactions", "Favourite", "Favourited"},
		{LabelsAmerican, "favourite_interactions", "Favorite", "Favorited"},
		{LabelsBritish, "bookmark_interactions", "Bookmark", "Bookmarked"},
		{LabelsAmerican, "boost_interactions", "Boost", "Boosted"},
	}

	for _, tt := range tests {
		t.Run(tt.labels.Name+"/"+tt.id, func(t *testing.T) {
			f, ok := Find(Flows(tt.labels), tt.id)
			require.True(t, ok)
			require.Len(t, f.Steps, 2)

			assert.Equal(t, harness.Description(tt.label), f.Steps[0].(*flow.TapOnStep).Selector.Query(nil))
			assert.Equal(t, harness.Description(tt.activated), f.Steps[1].(*flow.AssertVisibleStep).Selector.Query(nil))
			assert.Equal(t, tt.label+" button toggles to "+tt.activated, f.Name)
		})
	}
}

func TestFlows_MediaPressesDownThreeTimes(t *testing.T) {
	media, ok := Find(Flows(LabelsBritish), "status_media")
	require.True(t, ok)

	press := media.Steps[0].(*flow.PressKeyStep)
	assert.Equal(t, "Down", press.Key)
	assert.Equal(t, 3, press.Times())
	assert.Equal(t, harness.Name("Home"), press.Selector.Query(nil))
	assert.Len(t, media.Steps, 4)
}

func TestFlows_EveryTargetKnown(t *testing.T) {
	known := map[string]bool{}
	for _, tgt := range Targets() {
		known[tgt] = true
	}
	for _, f := range Flows(LabelsBritish) {
		for _, step := range f.Steps {
			for _, sel := range flow.Selectors(step) {
				assert.True(t, known[sel.Target], "%s: unknown target %q", f.ID, sel.Target)
			}
		}
	}
}

func TestParseStrategies(t *testing.T) {
	got, err := ParseStrategies(map[string]string{
		TargetFavourite: "name",
		TargetHome:      "description",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]harness.Strategy{
		TargetFavourite: harness.ByName,
		TargetHome:      harness.ByDescription,
	}, got)

	_, err = ParseStrategies(map[string]string{"sidebar": "name"})
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))

	got, err = ParseStrategies(map[string]string{"sidebar": "class"}, "sidebar")
	require.NoError(t, err)
	assert.Equal(t, harness.ByClass, got["sidebar"])

	_, err = ParseStrategies(map[string]string{TargetHome: "xpath"})
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
}

func TestFind_Missing(t *testing.T) {
	_, ok := Find(Flows(LabelsBritish), "nope")
	assert.False(t, ok)
}
