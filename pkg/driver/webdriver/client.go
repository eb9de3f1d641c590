// Package webdriver is a minimal W3C WebDriver client for Appium-style
// automation servers, including the AT-SPI driver used for desktop Linux
// applications.
package webdriver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/logger"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// DefaultHTTPTimeout bounds every request. Launching an application can take a
// while, so it is generous; a hung server stalls the run until it elapses.
const DefaultHTTPTimeout = 2 * time.Minute

// Capabilities is the alwaysMatch capability map sent on session creation.
type Capabilities map[string]interface{}

// Client handles HTTP communication with the automation server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// NewClient creates a new client for the server at serverURL.
func NewClient(serverURL string, opts ...Option) *Client {
	c := &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client:    &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServerURL returns the endpoint this client talks to.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// SessionID returns the current session, or "" when none is open.
func (c *Client) SessionID() string {
	return c.sessionID
}

// NewSession creates a new session with the given capabilities.
func (c *Client) NewSession(ctx context.Context, caps Capabilities) (string, error) {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": map[string]interface{}(caps),
		},
	}

	resp, err := c.post(ctx, "/session", body)
	if err != nil {
		return "", err
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", core.ErrLaunch.WithCause(errors.New("invalid session response"))
	}

	id, _ := value["sessionId"].(string)
	if id == "" {
		// Legacy JSONWP servers put the ID at the top level.
		id, _ = resp["sessionId"].(string)
	}
	if id == "" {
		return "", core.ErrLaunch.WithCause(errors.New("no session ID in response"))
	}

	c.sessionID = id
	logger.Debug("webdriver: session %s created on %s", id, c.serverURL)
	return id, nil
}

// DeleteSession closes the session. It is a no-op without an open session.
func (c *Client) DeleteSession(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(ctx, c.sessionPath())
	logger.Debug("webdriver: session %s deleted", c.sessionID)
	c.sessionID = ""
	return err
}

// SetImplicitWait sets the server-side implicit wait for element lookups.
func (c *Client) SetImplicitWait(ctx context.Context, timeout time.Duration) error {
	_, err := c.post(ctx, c.sessionPath()+"/timeouts", map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(ctx context.Context, using, value string) (string, error) {
	resp, err := c.post(ctx, c.sessionPath()+"/element", map[string]interface{}{
		"using": using,
		"value": value,
	})
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", core.ErrNotFound.WithCause(fmt.Errorf("%s=%q", using, value))
	}

	id := extractElementID(elemValue)
	if id == "" {
		return "", core.ErrNotFound.WithCause(fmt.Errorf("%s=%q", using, value))
	}
	return id, nil
}

// FindElements finds all matching elements. An empty result is not an error.
func (c *Client) FindElements(ctx context.Context, using, value string) ([]string, error) {
	resp, err := c.post(ctx, c.sessionPath()+"/elements", map[string]interface{}{
		"using": using,
		"value": value,
	})
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// Click activates an element using the WebDriver standard endpoint.
func (c *Client) Click(ctx context.Context, elementID string) error {
	_, err := c.post(ctx, c.elementPath(elementID)+"/click", map[string]interface{}{})
	return err
}

// SendKeys types text into an element. Special keys from keys.go may be
// embedded in text.
func (c *Client) SendKeys(ctx context.Context, elementID, text string) error {
	_, err := c.post(ctx, c.elementPath(elementID)+"/value", map[string]interface{}{
		"text":  text,
		"value": splitKeys(text),
	})
	return err
}

// Attribute returns an element's attribute value. A missing attribute yields "".
func (c *Client) Attribute(ctx context.Context, elementID, name string) (string, error) {
	resp, err := c.get(ctx, c.elementPath(elementID)+"/attribute/"+name)
	if err != nil {
		return "", err
	}
	switch v := resp["value"].(type) {
	case string:
		return v, nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	case float64:
		return fmt.Sprintf("%g", v), nil
	default:
		return "", nil
	}
}

// Text returns an element's visible text.
func (c *Client) Text(ctx context.Context, elementID string) (string, error) {
	resp, err := c.get(ctx, c.elementPath(elementID)+"/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the accessibility tree as XML.
func (c *Client) Source(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug("webdriver: %s %s", method, path)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.ErrConnection.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.ErrConnection.WithCause(err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if err := responseError(result); err != nil {
		logger.Debug("webdriver: %s %s failed: %v", method, path, err)
		return result, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return result, fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
