// Package catalog holds the built-in Tokodon acceptance scenarios.
package catalog

import (
	"fmt"
	"strings"
)

// Labels holds the UI strings that differ between localized builds.
type Labels struct {
	Name       string
	Favourite  string // "Favourite" or "Favorite"
	Favourited string // Favourite button after activation
	Users      string // "Users" or "People"
}

// Label variants.
var (
	LabelsBritish  = Labels{Name: "british", Favourite: "Favourite", Favourited: "Favourited", Users: "Users"}
	LabelsAmerican = Labels{Name: "american", Favourite: "Favorite", Favourited: "Favorited", Users: "People"}
)

// Toggle buttons that do not vary between builds, with their activated labels.
const (
	Bookmark   = "Bookmark"
	Bookmarked = "Bookmarked"
	Boost      = "Boost"
	Boosted    = "Boosted"
)

// LabelsFor returns the variant for name. An empty name selects British.
func LabelsFor(name string) (Labels, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "british", "uk", "en_gb", "en-gb":
		return LabelsBritish, nil
	case "american", "us", "en_us", "en-us":
		return LabelsAmerican, nil
	default:
		return Labels{}, fmt.Errorf("unknown label variant %q (want british or american)", name)
	}
}
