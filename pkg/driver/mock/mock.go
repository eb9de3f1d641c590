// Package mock provides an in-memory automation server for running
// scenarios without a real application.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
)

// Node is one element of the fake accessibility tree.
type Node struct {
	Name        string
	Description string
	Class       string
	Attributes  map[string]string

	// AppearsAfter hides the node for this many find requests.
	AppearsAfter int

	// OnClick and OnKeys let a node change the tree, e.g. a Favourite
	// button adding a Favourited node.
	OnClick func(t *Tree)
	OnKeys  func(t *Tree, text string)

	id      string
	removed bool
}

// Tree is a mutable set of nodes.
type Tree struct {
	mu     sync.Mutex
	nodes  []*Node
	nextID int
	finds  int
}

// NewTree creates a tree holding nodes.
func NewTree(nodes ...*Node) *Tree {
	t := &Tree{}
	for _, n := range nodes {
		t.Add(n)
	}
	return t
}

// Add inserts a node. Safe to call from OnClick/OnKeys.
func (t *Tree) Add(n *Node) {
	t.nextID++
	n.id = fmt.Sprintf("node-%d", t.nextID)
	n.AppearsAfter += t.finds
	t.nodes = append(t.nodes, n)
}

// Remove detaches every node matching using/value. References to them go stale.
func (t *Tree) Remove(using, value string) {
	for _, n := range t.nodes {
		if n.matches(using, value) {
			n.removed = true
		}
	}
}

func (n *Node) matches(using, value string) bool {
	if n.removed {
		return false
	}
	switch using {
	case "name":
		return n.Name == value
	case "description":
		return n.Description == value
	case "class name":
		return n.Class == value
	default:
		return false
	}
}

func (t *Tree) find(using, value string) *Node {
	t.finds++
	for _, n := range t.nodes {
		if n.matches(using, value) && t.finds > n.AppearsAfter {
			return n
		}
	}
	return nil
}

func (t *Tree) byID(id string) *Node {
	for _, n := range t.nodes {
		if n.id == id {
			return n
		}
	}
	return nil
}

// Remote implements the harness Remote interface against a Tree.
type Remote struct {
	Tree *Tree

	// StartErr, when set, is returned by NewSession.
	StartErr error
	// ScreenshotData is returned by Screenshot.
	ScreenshotData []byte

	mu        sync.Mutex
	sessionID string
	opened    int
	deleted   int
	caps      webdriver.Capabilities
	calls     []string
}

// New creates a Remote over tree.
func New(tree *Tree) *Remote {
	return &Remote{Tree: tree, ScreenshotData: PNG}
}

// NewSession implements harness.Remote.
func (r *Remote) NewSession(ctx context.Context, caps webdriver.Capabilities) (string, error) {
	r.record("newSession")
	if r.StartErr != nil {
		return "", r.StartErr
	}
	if err := ctx.Err(); err != nil {
		return "", core.ErrConnection.WithCause(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened++
	r.sessionID = fmt.Sprintf("mock-session-%d", r.opened)
	r.caps = caps
	return r.sessionID, nil
}

// DeleteSession implements harness.Remote.
func (r *Remote) DeleteSession(_ context.Context) error {
	r.record("deleteSession")
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessionID == "" {
		return nil
	}
	r.deleted++
	r.sessionID = ""
	return nil
}

// FindElement implements harness.Remote.
func (r *Remote) FindElement(_ context.Context, using, value string) (string, error) {
	r.record(fmt.Sprintf("find %s=%q", using, value))
	if err := r.checkSession(); err != nil {
		return "", err
	}

	r.Tree.mu.Lock()
	defer r.Tree.mu.Unlock()
	if n := r.Tree.find(using, value); n != nil {
		return n.id, nil
	}
	return "", core.ErrNotFound.WithCause(&webdriver.ServerError{
		Code:    "no such element",
		Message: fmt.Sprintf("%s=%q", using, value),
	})
}

// Click implements harness.Remote.
func (r *Remote) Click(_ context.Context, elementID string) error {
	r.record("click " + elementID)
	n, err := r.node(elementID)
	if err != nil {
		return err
	}
	if n.OnClick != nil {
		r.Tree.mu.Lock()
		n.OnClick(r.Tree)
		r.Tree.mu.Unlock()
	}
	return nil
}

// SendKeys implements harness.Remote.
func (r *Remote) SendKeys(_ context.Context, elementID, text string) error {
	r.record(fmt.Sprintf("keys %s %q", elementID, text))
	n, err := r.node(elementID)
	if err != nil {
		return err
	}
	if n.OnKeys != nil {
		r.Tree.mu.Lock()
		n.OnKeys(r.Tree, text)
		r.Tree.mu.Unlock()
	}
	return nil
}

// Attribute implements harness.Remote.
func (r *Remote) Attribute(_ context.Context, elementID, name string) (string, error) {
	r.record(fmt.Sprintf("attribute %s %s", elementID, name))
	n, err := r.node(elementID)
	if err != nil {
		return "", err
	}
	r.Tree.mu.Lock()
	defer r.Tree.mu.Unlock()
	return n.Attributes[name], nil
}

// Screenshot implements harness.Remote.
func (r *Remote) Screenshot(_ context.Context) ([]byte, error) {
	r.record("screenshot")
	if err := r.checkSession(); err != nil {
		return nil, err
	}
	return r.ScreenshotData, nil
}

// Source implements harness.Remote.
func (r *Remote) Source(_ context.Context) (string, error) {
	r.record("source")
	if err := r.checkSession(); err != nil {
		return "", err
	}
	r.Tree.mu.Lock()
	defer r.Tree.mu.Unlock()
	src := "<desktop>"
	for _, n := range r.Tree.nodes {
		if !n.removed {
			src += fmt.Sprintf("<%s name=%q description=%q/>", classOrNode(n), n.Name, n.Description)
		}
	}
	return src + "</desktop>", nil
}

// Opened returns how many sessions were created.
func (r *Remote) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}

// Deleted returns how many sessions were deleted.
func (r *Remote) Deleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleted
}

// Capabilities returns the capabilities of the last session.
func (r *Remote) Capabilities() webdriver.Capabilities {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caps
}

// Calls returns every request in order.
func (r *Remote) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *Remote) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *Remote) checkSession() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessionID == "" {
		return core.ErrSessionClosed.WithCause(errors.New("invalid session id"))
	}
	return nil
}

func (r *Remote) node(elementID string) (*Node, error) {
	if err := r.checkSession(); err != nil {
		return nil, err
	}
	r.Tree.mu.Lock()
	defer r.Tree.mu.Unlock()
	n := r.Tree.byID(elementID)
	if n == nil || n.removed {
		return nil, core.ErrStaleElement.WithCause(&webdriver.ServerError{
			Code:    "stale element reference",
			Message: elementID,
		})
	}
	return n, nil
}

func classOrNode(n *Node) string {
	if n.Class != "" {
		return n.Class
	}
	return "node"
}

// PNG is a 1x1 transparent image returned as the default screenshot.
var PNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}
