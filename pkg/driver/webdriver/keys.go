package webdriver

import (
	"fmt"
	"strings"
)

// Special keys from the WebDriver key table. They are sent embedded in the
// text of a send-keys request.
const (
	KeyBackspace = "\uE003"
	KeyTab       = "\uE004"
	KeyEnter     = "\uE007"
	KeyEscape    = "\uE00C"
	KeyPageUp    = "\uE00E"
	KeyPageDown  = "\uE00F"
	KeyLeft      = "\uE012"
	KeyUp        = "\uE013"
	KeyRight     = "\uE014"
	KeyDown      = "\uE015"
)

var keyNames = map[string]string{
	"backspace": KeyBackspace,
	"tab":       KeyTab,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"escape":    KeyEscape,
	"esc":       KeyEscape,
	"pageup":    KeyPageUp,
	"pagedown":  KeyPageDown,
	"left":      KeyLeft,
	"up":        KeyUp,
	"right":     KeyRight,
	"down":      KeyDown,
}

// ParseKey resolves a key name such as "Enter" or "Down" (case-insensitive).
func ParseKey(name string) (string, error) {
	normalized := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name))
	if key, ok := keyNames[normalized]; ok {
		return key, nil
	}
	return "", fmt.Errorf("unknown key %q", name)
}

// KeyName returns a readable name for a special key, or the text itself.
func KeyName(key string) string {
	for name, k := range keyNames {
		if k == key && name != "return" && name != "esc" {
			return strings.ToUpper(name[:1]) + name[1:]
		}
	}
	return key
}

// splitKeys splits text into the per-character array the W3C value
// endpoint expects.
func splitKeys(text string) []string {
	keys := make([]string, 0, len(text))
	for _, r := range text {
		keys = append(keys, string(r))
	}
	return keys
}
