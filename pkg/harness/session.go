package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/config"
	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
	"github.com/devicelab-dev/uiharness/pkg/logger"
)

// teardownTimeout bounds screenshot capture plus session deletion.
const teardownTimeout = 30 * time.Second

// Remote is the subset of the WebDriver protocol a session needs.
// *webdriver.Client implements it; tests use driver/mock.
type Remote interface {
	NewSession(ctx context.Context, caps webdriver.Capabilities) (string, error)
	DeleteSession(ctx context.Context) error
	FindElement(ctx context.Context, using, value string) (string, error)
	Click(ctx context.Context, elementID string) error
	SendKeys(ctx context.Context, elementID, text string) error
	Attribute(ctx context.Context, elementID, name string) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Source(ctx context.Context) (string, error)
}

// SessionConfig is everything StartSession needs, derived once per run.
type SessionConfig struct {
	App           string        // "app" capability
	ImplicitWait  time.Duration // "timeouts.implicit" capability
	LaunchTimeout time.Duration // bound on session creation; 0 = none
	WaitTimeout   time.Duration // default bound for WaitFor/Assert*
	PollInterval  time.Duration
	OutputDir     string
	Artifacts     core.ArtifactConfig
	Namer         *core.ArtifactNamer
}

// NewSessionConfig derives a SessionConfig from the run configuration.
func NewSessionConfig(cfg *config.Config, namer *core.ArtifactNamer) SessionConfig {
	return SessionConfig{
		App:           cfg.App,
		ImplicitWait:  cfg.ImplicitWait(),
		LaunchTimeout: cfg.LaunchTimeout(),
		WaitTimeout:   cfg.WaitTimeout(),
		PollInterval:  cfg.PollInterval(),
		OutputDir:     cfg.OutputDir,
		Artifacts:     cfg.Artifacts,
		Namer:         namer,
	}
}

// Capabilities returns the capabilities sent on session creation.
func (c SessionConfig) Capabilities() webdriver.Capabilities {
	return webdriver.Capabilities{
		"app": c.App,
		"timeouts": map[string]interface{}{
			"implicit": c.ImplicitWait.Milliseconds(),
		},
	}
}

// Session is one connection to the automation server for one scenario.
// It is owned by a single goroutine; only End is safe to call repeatedly.
type Session struct {
	scenarioID string
	remote     Remote
	cfg        SessionConfig

	mu          sync.Mutex
	closed      bool
	endOnce     sync.Once
	endErr      error
	attachments []core.Attachment
}

// StartSession opens a session for scenarioID, launching cfg.App.
// An unreachable endpoint yields core.ErrConnection; anything else that
// prevents the session from starting yields core.ErrLaunch.
func StartSession(ctx context.Context, remote Remote, cfg SessionConfig, scenarioID string) (*Session, error) {
	if cfg.Namer == nil {
		cfg.Namer = core.NewArtifactNamer(config.DefaultAppName)
	}

	startCtx := ctx
	if cfg.LaunchTimeout > 0 {
		var cancel context.CancelFunc
		startCtx, cancel = context.WithTimeout(ctx, cfg.LaunchTimeout)
		defer cancel()
	}

	log := logger.WithScenario(scenarioID)
	log.Infof("starting session for %s", cfg.App)

	if _, err := remote.NewSession(startCtx, cfg.Capabilities()); err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(startCtx.Err(), context.DeadlineExceeded):
			return nil, core.ErrLaunch.WithCause(fmt.Errorf("%s did not start within %s: %w", cfg.App, cfg.LaunchTimeout, err))
		case errors.Is(err, core.ErrConnection), errors.Is(err, core.ErrLaunch):
			return nil, err
		default:
			return nil, core.ErrLaunch.WithCause(err)
		}
	}

	return &Session{
		scenarioID: scenarioID,
		remote:     remote,
		cfg:        cfg,
	}, nil
}

// ScenarioID returns the scenario this session belongs to.
func (s *Session) ScenarioID() string {
	return s.scenarioID
}

// Config returns the session configuration.
func (s *Session) Config() SessionConfig {
	return s.cfg
}

// Closed reports whether End has released the session.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) checkOpen() error {
	if s.Closed() {
		return core.ErrSessionClosed.WithDetails(map[string]interface{}{"scenario": s.scenarioID})
	}
	return nil
}

// Locate queries the accessibility tree once. The server applies the
// session's implicit wait; absence yields core.ErrNotFound.
func (s *Session) Locate(ctx context.Context, q Query) (*Element, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	id, err := s.remote.FindElement(ctx, string(q.Strategy), q.Value)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrNotFound.WithCause(errors.New(q.String())).
				WithDetails(map[string]interface{}{"strategy": string(q.Strategy), "value": q.Value})
		}
		return nil, fmt.Errorf("locate %s: %w", q, err)
	}

	logger.Debug("located %s as %s", q, id)
	return &Element{id: id, query: q, session: s}, nil
}

// Interact applies an action to an element.
func (s *Session) Interact(ctx context.Context, el *Element, a Action) error {
	if el.session != s {
		return core.ErrSessionClosed.WithMessage("element belongs to another session")
	}
	return a.apply(ctx, el)
}

// Source returns the current accessibility tree as XML.
func (s *Session) Source(ctx context.Context) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	return s.remote.Source(ctx)
}

// Attachments returns the artifacts captured by End.
func (s *Session) Attachments() []core.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Attachment(nil), s.attachments...)
}

// End releases the session. For outcomes the artifact config selects
// (failures by default) it first captures a screenshot named after the
// scenario. Release happens once; later calls return the first result.
// End keeps working when ctx is already cancelled.
func (s *Session) End(ctx context.Context, outcome core.Status) error {
	s.endOnce.Do(func() {
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()

		if s.cfg.Artifacts.ShouldCapture(outcome) {
			s.captureArtifacts(teardownCtx, outcome)
		}

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.endErr = s.remote.DeleteSession(teardownCtx)
		if s.endErr != nil {
			logger.WithScenario(s.scenarioID).Warnf("delete session: %v", s.endErr)
		}
	})
	return s.endErr
}

// captureArtifacts writes diagnostics for the scenario. Failures are
// logged; they never mask the scenario outcome.
func (s *Session) captureArtifacts(ctx context.Context, outcome core.Status) {
	log := logger.WithScenario(s.scenarioID)

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		log.Warnf("create output dir: %v", err)
		return
	}

	if s.cfg.Artifacts.Screenshot {
		data, err := s.remote.Screenshot(ctx)
		if err != nil {
			log.Warnf("screenshot: %v", err)
		} else if name, err := s.write(s.cfg.Namer.ScreenshotName(s.scenarioID, outcome), data); err != nil {
			log.Warnf("write screenshot: %v", err)
		} else {
			log.Infof("saved screenshot %s", name)
			s.addAttachment(core.NewScreenshotAttachment(name, data))
		}
	}

	if s.cfg.Artifacts.PageSource {
		src, err := s.remote.Source(ctx)
		if err != nil {
			log.Warnf("page source: %v", err)
		} else if name, err := s.write(s.cfg.Namer.SourceName(s.scenarioID, outcome), []byte(src)); err != nil {
			log.Warnf("write page source: %v", err)
		} else {
			s.addAttachment(core.NewSourceAttachment(name, []byte(src)))
		}
	}
}

func (s *Session) write(name string, data []byte) (string, error) {
	path := filepath.Join(s.cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Session) addAttachment(a core.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, a)
}
