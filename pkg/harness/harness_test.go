package harness_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/uiharness/pkg/core"
	"github.com/devicelab-dev/uiharness/pkg/driver/mock"
	"github.com/devicelab-dev/uiharness/pkg/driver/webdriver"
	"github.com/devicelab-dev/uiharness/pkg/harness"
)

func testConfig(t *testing.T) harness.SessionConfig {
	t.Helper()
	return harness.SessionConfig{
		App:          "org.kde.tokodon.offline",
		ImplicitWait: 0,
		WaitTimeout:  200 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		OutputDir:    t.TempDir(),
		Artifacts:    core.DefaultArtifactConfig(),
		Namer:        core.NewArtifactNamer("tokodon"),
	}
}

func start(t *testing.T, remote *mock.Remote, cfg harness.SessionConfig, id string) *harness.Session {
	t.Helper()
	s, err := harness.StartSession(context.Background(), remote, cfg, id)
	require.NoError(t, err)
	return s
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]harness.Strategy{
		"name":                   harness.ByName,
		"Accessible Name":        harness.ByName,
		"description":            harness.ByDescription,
		"desc":                   harness.ByDescription,
		"class":                  harness.ByClass,
		" class name ":           harness.ByClass,
		"accessible description": harness.ByDescription,
	}
	for in, want := range tests {
		got, err := harness.ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := harness.ParseStrategy("xpath")
	assert.Error(t, err)
}

func TestQuery_String(t *testing.T) {
	assert.Equal(t, `description="Favourite"`, harness.Description("Favourite").String())
	assert.Equal(t, `class name="[push button]"`, harness.Class("[push button]").String())
}

func TestStartSession_SendsCapabilities(t *testing.T) {
	remote := mock.New(mock.NewTree())
	cfg := testConfig(t)
	cfg.ImplicitWait = 30 * time.Second

	s := start(t, remote, cfg, "search.search_and_app")
	defer s.End(context.Background(), core.StatusPassed)

	caps := remote.Capabilities()
	assert.Equal(t, "org.kde.tokodon.offline", caps["app"])
	assert.Equal(t, map[string]interface{}{"implicit": int64(30000)}, caps["timeouts"])
}

func TestStartSession_ConnectionError(t *testing.T) {
	remote := mock.New(mock.NewTree())
	remote.StartErr = core.ErrConnection.WithCause(errors.New("dial tcp 127.0.0.1:4723: connection refused"))

	_, err := harness.StartSession(context.Background(), remote, testConfig(t), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConnection))
}

func TestStartSession_LaunchError(t *testing.T) {
	remote := mock.New(mock.NewTree())
	remote.StartErr = &webdriver.ServerError{Code: "unknown error", Message: "app exited"}

	_, err := harness.StartSession(context.Background(), remote, testConfig(t), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLaunch))
	assert.Equal(t, core.ErrCategoryApp, core.CategoryOf(err))
}

func TestLocate_NotFound(t *testing.T) {
	remote := mock.New(mock.NewTree(&mock.Node{Name: "Home"}))
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	_, err := s.Locate(context.Background(), harness.Name("Search"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Contains(t, err.Error(), `name="Search"`)

	el, err := s.Locate(context.Background(), harness.Name("Home"))
	require.NoError(t, err)
	assert.Equal(t, harness.Name("Home"), el.Query())
	assert.NotEmpty(t, el.ID())
}

func TestInteract_StaleElement(t *testing.T) {
	tree := mock.NewTree(&mock.Node{Description: "Boost"})
	remote := mock.New(tree)
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	el, err := s.Locate(context.Background(), harness.Description("Boost"))
	require.NoError(t, err)

	tree.Remove("description", "Boost")
	err = s.Interact(context.Background(), el, harness.Click())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStaleElement))
}

func TestInteract_PressSendsEachKeySeparately(t *testing.T) {
	remote := mock.New(mock.NewTree(&mock.Node{Name: "Home"}))
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	el, err := s.Locate(context.Background(), harness.Name("Home"))
	require.NoError(t, err)
	require.NoError(t, s.Interact(context.Background(), el, harness.Press(webdriver.KeyDown, 3)))

	keys := 0
	for _, c := range remote.Calls() {
		if len(c) > 4 && c[:4] == "keys" {
			keys++
		}
	}
	assert.Equal(t, 3, keys)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "click", harness.Click().String())
	assert.Equal(t, `type "myquery"`, harness.Type("myquery").String())
	assert.Equal(t, "press Enter", harness.Press(webdriver.KeyEnter, 1).String())
	assert.Equal(t, "press Down x3", harness.Press(webdriver.KeyDown, 3).String())
	assert.Equal(t, 1, harness.Press(webdriver.KeyDown, 0).Times)
}

func TestWaitFor_PollsUntilPresent(t *testing.T) {
	remote := mock.New(mock.NewTree(&mock.Node{Description: "Favourited", AppearsAfter: 3}))
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	el, err := s.WaitFor(context.Background(), harness.Description("Favourited"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Favourited", el.Query().Value)
}

func TestWaitFor_TimesOutWithNotFound(t *testing.T) {
	remote := mock.New(mock.NewTree())
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	begin := time.Now()
	_, err := s.WaitFor(context.Background(), harness.Description("Never"), 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.GreaterOrEqual(t, time.Since(begin), 50*time.Millisecond)
}

func TestWaitFor_ZeroTimeoutSingleAttempt(t *testing.T) {
	remote := mock.New(mock.NewTree())
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	_, err := s.WaitFor(context.Background(), harness.Name("Search"), 0)
	require.Error(t, err)

	finds := 0
	for _, c := range remote.Calls() {
		if len(c) > 4 && c[:4] == "find" {
			finds++
		}
	}
	assert.Equal(t, 1, finds)
}

func TestWaitFor_ContextCancelled(t *testing.T) {
	remote := mock.New(mock.NewTree())
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.WaitFor(ctx, harness.Name("Search"), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssertAnyPresent(t *testing.T) {
	remote := mock.New(mock.NewTree(&mock.Node{Name: "Post"}))
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)

	queries := []harness.Query{harness.Name("Users"), harness.Name("Post"), harness.Name("Hashtags")}
	_, q, err := s.AssertAnyPresent(context.Background(), queries)
	require.NoError(t, err)
	assert.Equal(t, harness.Name("Post"), q)

	_, _, err = s.AssertAnyPresent(context.Background(), []harness.Query{harness.Name("People")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAssertion))
	assert.Equal(t, core.ErrCategoryAssertion, core.CategoryOf(err))
}

func TestAssertAttribute(t *testing.T) {
	remote := mock.New(mock.NewTree(
		&mock.Node{Name: "Search", Attributes: map[string]string{"focused": "true"}},
	))
	s := start(t, remote, testConfig(t), "x")
	defer s.End(context.Background(), core.StatusPassed)
	ctx := context.Background()

	el, err := s.Locate(ctx, harness.Name("Search"))
	require.NoError(t, err)

	assert.NoError(t, s.AssertAttribute(ctx, el, "focused", ""))
	assert.NoError(t, s.AssertAttribute(ctx, el, "focused", "TRUE"))

	err = s.AssertAttribute(ctx, el, "focused", "false")
	assert.True(t, errors.Is(err, core.ErrAssertion))

	err = s.AssertAttribute(ctx, el, "checked", "")
	assert.True(t, errors.Is(err, core.ErrAssertion))
}

func TestEnd_ReleasesExactlyOnce(t *testing.T) {
	remote := mock.New(mock.NewTree())
	s := start(t, remote, testConfig(t), "x")

	require.NoError(t, s.End(context.Background(), core.StatusPassed))
	require.NoError(t, s.End(context.Background(), core.StatusFailed))

	assert.Equal(t, 1, remote.Deleted())
	assert.True(t, s.Closed())
	assert.Empty(t, s.Attachments(), "second End must not capture")
}

func TestEnd_ScreenshotOnFailure(t *testing.T) {
	remote := mock.New(mock.NewTree())
	cfg := testConfig(t)
	s := start(t, remote, cfg, "timeline.boost_interactions")

	require.NoError(t, s.End(context.Background(), core.StatusFailed))

	name := "failed_test_shot_tokodon_#timeline.boost_interactions.png"
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
	require.NoError(t, err)
	assert.Equal(t, mock.PNG, data)

	attachments := s.Attachments()
	require.Len(t, attachments, 1)
	assert.Equal(t, name, attachments[0].Path)
}

func TestEnd_NoScreenshotOnSuccess(t *testing.T) {
	remote := mock.New(mock.NewTree())
	cfg := testConfig(t)
	s := start(t, remote, cfg, "x")

	require.NoError(t, s.End(context.Background(), core.StatusPassed))

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	for _, c := range remote.Calls() {
		assert.NotEqual(t, "screenshot", c)
	}
}

func TestEnd_CaptureOnSuccessUsesPassPrefix(t *testing.T) {
	remote := mock.New(mock.NewTree())
	cfg := testConfig(t)
	cfg.Artifacts.CaptureOnSuccess = true
	s := start(t, remote, cfg, "search_and_app")

	require.NoError(t, s.End(context.Background(), core.StatusPassed))

	attachments := s.Attachments()
	require.Len(t, attachments, 1)
	assert.Equal(t, "test_shot_tokodon_#search_and_app.png", attachments[0].Path)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, attachments[0].Path))
}

func TestEnd_PageSourceWhenEnabled(t *testing.T) {
	remote := mock.New(mock.NewTree(&mock.Node{Name: "Home"}))
	cfg := testConfig(t)
	cfg.Artifacts.PageSource = true
	s := start(t, remote, cfg, "x")

	require.NoError(t, s.End(context.Background(), core.StatusErrored))
	assert.Len(t, s.Attachments(), 2)
	_, err := os.Stat(filepath.Join(cfg.OutputDir, "failed_test_shot_tokodon_#x.xml"))
	assert.NoError(t, err)
}

func TestEnd_WorksWithCancelledContext(t *testing.T) {
	remote := mock.New(mock.NewTree())
	s := start(t, remote, testConfig(t), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.End(ctx, core.StatusFailed))
	assert.Equal(t, 1, remote.Deleted())
	assert.Len(t, s.Attachments(), 1)
}

func TestElement_InvalidAfterEnd(t *testing.T) {
	remote := mock.New(mock.NewTree(&mock.Node{Name: "Search"}))
	s := start(t, remote, testConfig(t), "x")
	ctx := context.Background()

	el, err := s.Locate(ctx, harness.Name("Search"))
	require.NoError(t, err)
	require.NoError(t, s.End(ctx, core.StatusPassed))

	assert.True(t, errors.Is(el.Click(ctx), core.ErrSessionClosed))
	assert.True(t, errors.Is(el.SendKeys(ctx, "x"), core.ErrSessionClosed))
	_, err = el.Attribute(ctx, "focused")
	assert.True(t, errors.Is(err, core.ErrSessionClosed))
	_, err = s.Locate(ctx, harness.Name("Search"))
	assert.True(t, errors.Is(err, core.ErrSessionClosed))
}

func TestInteract_RejectsForeignElement(t *testing.T) {
	tree := mock.NewTree(&mock.Node{Name: "Search"})
	ctx := context.Background()

	s1 := start(t, mock.New(tree), testConfig(t), "one")
	defer s1.End(ctx, core.StatusPassed)
	s2 := start(t, mock.New(tree), testConfig(t), "two")
	defer s2.End(ctx, core.StatusPassed)

	el, err := s1.Locate(ctx, harness.Name("Search"))
	require.NoError(t, err)

	err = s2.Interact(ctx, el, harness.Click())
	assert.True(t, errors.Is(err, core.ErrSessionClosed))
}
