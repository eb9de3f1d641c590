package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/logger"
)

// WaitFor polls Locate until q matches or timeout elapses. Only absence is
// retried; any other error ends the wait immediately. A zero timeout makes
// a single attempt.
func (s *Session) WaitFor(ctx context.Context, q Query, timeout time.Duration) (*Element, error) {
	el, _, err := s.WaitForAny(ctx, []Query{q}, timeout)
	return el, err
}

// WaitForAny polls every query in order each round and returns the first
// element found together with the query that matched.
func (s *Session) WaitForAny(ctx context.Context, queries []Query, timeout time.Duration) (*Element, Query, error) {
	if len(queries) == 0 {
		return nil, Query{}, errors.New("wait: no queries")
	}

	deadline := time.Now().Add(timeout)
	attempts := 0
	for {
		attempts++
		for _, q := range queries {
			el, err := s.Locate(ctx, q)
			if err == nil {
				if attempts > 1 {
					logger.Debug("%s appeared after %d attempts", q, attempts)
				}
				return el, q, nil
			}
			if !errors.Is(err, core.ErrNotFound) {
				return nil, Query{}, err
			}
		}

		if !time.Now().Before(deadline) {
			return nil, Query{}, core.ErrNotFound.WithCause(
				fmt.Errorf("%s not present after %s", describe(queries), timeout))
		}

		select {
		case <-ctx.Done():
			return nil, Query{}, ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// AssertPresent waits up to the configured wait timeout for q.
func (s *Session) AssertPresent(ctx context.Context, q Query) (*Element, error) {
	return s.WaitFor(ctx, q, s.cfg.WaitTimeout)
}

// AssertAnyPresent passes when at least one query matches within the wait
// timeout.
func (s *Session) AssertAnyPresent(ctx context.Context, queries []Query) (*Element, Query, error) {
	el, q, err := s.WaitForAny(ctx, queries, s.cfg.WaitTimeout)
	if err != nil && errors.Is(err, core.ErrNotFound) {
		return nil, Query{}, core.ErrAssertion.WithMessage("none of the expected elements appeared").WithCause(err)
	}
	return el, q, err
}

// AssertAttribute checks an attribute of el. An empty want only requires
// the attribute to be non-empty.
func (s *Session) AssertAttribute(ctx context.Context, el *Element, name, want string) error {
	got, err := el.Attribute(ctx, name)
	if err != nil {
		return err
	}
	switch {
	case want == "" && got == "":
		return core.ErrAssertion.WithMessage(fmt.Sprintf("%s of %s is empty", name, el.query))
	case want != "" && !strings.EqualFold(got, want):
		return core.ErrAssertion.WithMessage(fmt.Sprintf("%s of %s is %q, want %q", name, el.query, got, want))
	}
	return nil
}

func describe(queries []Query) string {
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = q.String()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "any of [" + strings.Join(parts, ", ") + "]"
}
