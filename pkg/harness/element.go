package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
)

// Element is an opaque reference to a located UI node. It is valid only
// while the session that produced it is open.
type Element struct {
	id      string
	query   Query
	session *Session
}

// ID returns the server-side element identifier.
func (e *Element) ID() string { return e.id }

// Query returns the query that located the element.
func (e *Element) Query() Query { return e.query }

// Click activates the element.
func (e *Element) Click(ctx context.Context) error {
	if err := e.session.checkOpen(); err != nil {
		return err
	}
	if err := e.session.remote.Click(ctx, e.id); err != nil {
		return fmt.Errorf("click %s: %w", e.query, err)
	}
	return nil
}

// SendKeys types the concatenation of keys into the element. Special keys
// come from the webdriver package (webdriver.KeyEnter, webdriver.KeyDown).
func (e *Element) SendKeys(ctx context.Context, keys ...string) error {
	if err := e.session.checkOpen(); err != nil {
		return err
	}
	text := strings.Join(keys, "")
	if err := e.session.remote.SendKeys(ctx, e.id, text); err != nil {
		return fmt.Errorf("send keys to %s: %w", e.query, err)
	}
	return nil
}

// Attribute reads an attribute such as "focused". Missing attributes are "".
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := e.session.checkOpen(); err != nil {
		return "", err
	}
	v, err := e.session.remote.Attribute(ctx, e.id, name)
	if err != nil {
		return "", fmt.Errorf("attribute %s of %s: %w", name, e.query, err)
	}
	return v, nil
}

// ActionKind enumerates input actions.
type ActionKind int

const (
	ActionClick ActionKind = iota
	ActionType
	ActionPress
)

// Action is an input applied to an element via Session.Interact.
type Action struct {
	Kind  ActionKind
	Text  string // literal text for ActionType, key for ActionPress
	Times int    // repetitions for ActionPress, each sent separately
}

// Click activates the element.
func Click() Action { return Action{Kind: ActionClick} }

// Type sends literal text.
func Type(text string) Action { return Action{Kind: ActionType, Text: text} }

// Press sends key times times, one request per press.
func Press(key string, times int) Action {
	if times < 1 {
		times = 1
	}
	return Action{Kind: ActionPress, Text: key, Times: times}
}

// String describes the action for logs and reports.
func (a Action) String() string {
	switch a.Kind {
	case ActionClick:
		return "click"
	case ActionType:
		return fmt.Sprintf("type %q", a.Text)
	case ActionPress:
		if a.Times > 1 {
			return fmt.Sprintf("press %s x%d", webdriver.KeyName(a.Text), a.Times)
		}
		return "press " + webdriver.KeyName(a.Text)
	default:
		return "unknown action"
	}
}

func (a Action) apply(ctx context.Context, el *Element) error {
	switch a.Kind {
	case ActionClick:
		return el.Click(ctx)
	case ActionType:
		return el.SendKeys(ctx, a.Text)
	case ActionPress:
		for i := 0; i < a.Times; i++ {
			if err := el.SendKeys(ctx, a.Text); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported action kind %d", a.Kind)
	}
}
