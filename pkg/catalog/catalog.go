package catalog

import (
	"fmt"
	"sort"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/flow"
	"github.com/devicelab-dev/uiharness/pkg/harness"
)

// Tags
const (
	TagSearch   = "search"
	TagTimeline = "timeline"
)

// Targets name the logical controls the scenarios touch. Each can have its
// locate strategy overridden in config.
const (
	TargetSearch        = "search"
	TargetSearchResults = "searchResults"
	TargetHome          = "home"
	TargetStatus        = "status"
	TargetFavourite     = "favourite"
	TargetBookmark      = "bookmark"
	TargetBoost         = "boost"
	TargetMedia         = "media"
)

// Targets returns every known target name, sorted.
func Targets() []string {
	t := []string{
		TargetSearch, TargetSearchResults, TargetHome, TargetStatus,
		TargetFavourite, TargetBookmark, TargetBoost, TargetMedia,
	}
	sort.Strings(t)
	return t
}

// SearchQuery is the text typed into the search field.
const SearchQuery = "myquery"

// Flows returns the built-in scenarios for the given label variant.
func Flows(labels Labels) []flow.Flow {
	return []flow.Flow{
		searchAndApp(labels),
		statusType(),
		toggle("favourite_interactions", TargetFavourite, labels.Favourite, labels.Favourited),
		toggle("bookmark_interactions", TargetBookmark, Bookmark, Bookmarked),
		toggle("boost_interactions", TargetBoost, Boost, Boosted),
		statusMedia(),
	}
}

func searchAndApp(labels Labels) flow.Flow {
	search := flow.ByName(TargetSearch, "Search")
	return flow.Flow{
		ID:   "search_and_app",
		Name: "Search box shows result categories",
		Tags: []string{TagSearch},
		Steps: []flow.Step{
			flow.AssertAttribute(search, "focused", ""),
			flow.TapOn(search),
			flow.InputText(search, SearchQuery),
			flow.PressKey(search, "Enter", 1),
			flow.AssertAnyVisible(
				flow.ByName(TargetSearchResults, labels.Users),
				flow.ByName(TargetSearchResults, "Post"),
				flow.ByName(TargetSearchResults, "Hashtags"),
			),
		},
	}
}

func statusType() flow.Flow {
	return flow.Flow{
		ID:   "status_type",
		Name: "Timeline shows normal and spoiler statuses",
		Tags: []string{TagTimeline},
		Steps: []flow.Step{
			flow.AssertVisible(flow.ByDescription(TargetStatus, "Normal Status")),
			flow.AssertVisible(flow.ByDescription(TargetStatus, "Spoiler Status")),
		},
	}
}

func toggle(id, target, label, activated string) flow.Flow {
	return flow.Flow{
		ID:   id,
		Name: fmt.Sprintf("%s button toggles to %s", label, activated),
		Tags: []string{TagTimeline},
		Steps: []flow.Step{
			flow.TapOn(flow.ByDescription(target, label)),
			flow.AssertVisible(flow.ByDescription(target, activated)),
		},
	}
}

func statusMedia() flow.Flow {
	return flow.Flow{
		ID:   "status_media",
		Name: "Scrolling the timeline reveals media attachments",
		Tags: []string{TagTimeline},
		Steps: []flow.Step{
			flow.PressKey(flow.ByName(TargetHome, "Home"), "Down", 3),
			flow.AssertVisible(flow.ByDescription(TargetMedia, "Status with image attachment")),
			flow.AssertVisible(flow.ByDescription(TargetMedia, "Status with Video attachment")),
			flow.AssertVisible(flow.ByDescription(TargetMedia, "Status with GifV attachment")),
		},
	}
}

// ParseStrategies converts the config's target → strategy map. Targets
// must be built-in or listed in extraTargets (targets named by YAML flows).
// Unknown targets and strategies are config errors.
func ParseStrategies(raw map[string]string, extraTargets ...string) (map[string]harness.Strategy, error) {
	known := make(map[string]bool)
	for _, t := range append(Targets(), extraTargets...) {
		known[t] = true
	}

	out := make(map[string]harness.Strategy, len(raw))
	for target, s := range raw {
		if !known[target] {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown target %q in strategies", target))
		}
		strategy, err := harness.ParseStrategy(s)
		if err != nil {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("target %q: %v", target, err))
		}
		out[target] = strategy
	}
	return out, nil
}

// Find returns the flow with the given ID.
func Find(flows []flow.Flow, id string) (flow.Flow, bool) {
	for _, f := range flows {
		if f.ID == id {
			return f, true
		}
	}
	return flow.Flow{}, false
}
