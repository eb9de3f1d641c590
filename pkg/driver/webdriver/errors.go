package webdriver

import (
	"errors"

	"github.com/devicelab-dev/uiharness/pkg/core"
)

// W3C error codes this client distinguishes.
const (
	codeNoSuchElement     = "no such element"
	codeStaleElement      = "stale element reference"
	codeNoSuchWindow      = "no such window"
	codeSessionNotCreated = "session not created"
	codeInvalidSession    = "invalid session id"
	codeTimeout           = "timeout"
)

// ServerError is a W3C error payload returned by the automation server.
type ServerError struct {
	Code    string // W3C error code, e.g. "no such element"
	Message string
}

func (e *ServerError) Error() string {
	return e.Code + ": " + e.Message
}

// responseError extracts the W3C error from a response body and maps it onto
// the harness error taxonomy. It returns nil for successful responses.
func responseError(result map[string]interface{}) error {
	errValue, ok := result["value"].(map[string]interface{})
	if !ok {
		return nil
	}
	code, ok := errValue["error"].(string)
	if !ok || code == "" {
		return nil
	}
	msg, _ := errValue["message"].(string)
	return classify(&ServerError{Code: code, Message: msg})
}

func classify(se *ServerError) error {
	switch se.Code {
	case codeNoSuchElement:
		return core.ErrNotFound.WithCause(se)
	case codeStaleElement, codeNoSuchWindow:
		return core.ErrStaleElement.WithCause(se)
	case codeSessionNotCreated:
		return core.ErrLaunch.WithCause(se)
	case codeInvalidSession:
		return core.ErrSessionClosed.WithCause(se)
	case codeTimeout:
		return core.ErrWaitTimeout.WithCause(se)
	default:
		return &core.ExecutionError{
			Category: core.ErrCategoryConnection,
			Code:     se.Code,
			Message:  "automation server error",
			Cause:    se,
		}
	}
}

// AsServerError returns the W3C payload inside err, if any.
func AsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
