package mock

import (
	"strings"

	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
)

// NewTokodonTree builds a tree that behaves like the offline Tokodon build:
// a focused search field that shows result categories after Enter, a
// timeline whose Favourite/Bookmark/Boost buttons flip state when clicked,
// and media posts that scroll into view after three Down presses.
// favourite, favourited and users select the label variant
// ("Favourite"/"Favourited"/"Users" or "Favorite"/"Favorited"/"People").
func NewTokodonTree(favourite, favourited, users string) *Tree {
	downPresses := 0

	toggle := func(label, activated string) *Node {
		return &Node{
			Description: label,
			Class:       "[push button]",
			OnClick: func(t *Tree) {
				t.Remove("description", label)
				t.Add(&Node{Description: activated, Class: "[push button]"})
			},
		}
	}

	return NewTree(
		&Node{
			Name:       "Search",
			Class:      "[text]",
			Attributes: map[string]string{"focused": "true"},
			OnKeys: func(t *Tree, text string) {
				if strings.Contains(text, webdriver.KeyEnter) {
					t.Add(&Node{Name: users, Class: "[page tab]"})
					t.Add(&Node{Name: "Post", Class: "[page tab]"})
					t.Add(&Node{Name: "Hashtags", Class: "[page tab]"})
				}
			},
		},
		&Node{
			Name:  "Home",
			Class: "[list]",
			OnKeys: func(t *Tree, text string) {
				downPresses += strings.Count(text, webdriver.KeyDown)
				if downPresses == 3 {
					t.Add(&Node{Description: "Status with image attachment"})
					t.Add(&Node{Description: "Status with Video attachment"})
					t.Add(&Node{Description: "Status with GifV attachment"})
				}
			},
		},
		&Node{Description: "Normal Status"},
		&Node{Description: "Spoiler Status"},
		toggle(favourite, favourited),
		toggle("Bookmark", "Bookmarked"),
		toggle("Boost", "Boosted"),
	)
}
