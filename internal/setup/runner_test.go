package setup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/oauthsetup/internal/browser"
	"github.com/neboloop/oauthsetup/internal/config"
	"github.com/neboloop/oauthsetup/internal/crashlog"
	"github.com/neboloop/oauthsetup/internal/matcher"
)

const editPage = "https://console.cloud.google.com/apis/credentials/oauthclient/cid?project=rasma-app"

type fakeProcess struct {
	kills int
}

func (p *fakeProcess) Kill() error {
	p.kills++
	return nil
}

type fakePage struct {
	urls     []string // returned in order; the last one repeats
	urlCalls int

	buttons [][]matcher.Element // one entry per Buttons call; the last repeats
	btnCall int
	inputs  []matcher.Element
	icons   []matcher.Element

	shotErr  error
	panicOn  string
	closes   int
	events   []string
	typed    string
	navigate string
}

func (p *fakePage) URL() (string, error) {
	if p.panicOn == "url" {
		panic("boom")
	}
	i := p.urlCalls
	if i >= len(p.urls) {
		i = len(p.urls) - 1
	}
	p.urlCalls++
	return p.urls[i], nil
}

func (p *fakePage) Navigate(url string) error {
	p.navigate = url
	p.events = append(p.events, "navigate")
	return nil
}

func (p *fakePage) Screenshot(path string) error {
	if p.shotErr != nil {
		return p.shotErr
	}
	p.events = append(p.events, "shot:"+filepath.Base(path))
	return nil
}

func (p *fakePage) ScrollToMiddle() error {
	p.events = append(p.events, "scroll")
	return nil
}

func (p *fakePage) Buttons() ([]matcher.Element, error) {
	if len(p.buttons) == 0 {
		return nil, nil
	}
	i := p.btnCall
	if i >= len(p.buttons) {
		i = len(p.buttons) - 1
	}
	p.btnCall++
	return p.buttons[i], nil
}

func (p *fakePage) Inputs() ([]matcher.Element, error) { return p.inputs, nil }

func (p *fakePage) AddIcons() ([]matcher.Element, error) { return p.icons, nil }

func (p *fakePage) Click(el matcher.Element) error {
	p.events = append(p.events, "click:"+el.Ref)
	return nil
}

func (p *fakePage) Type(el matcher.Element, text string) error {
	p.typed = text
	p.events = append(p.events, "type:"+el.Ref)
	return nil
}

func (p *fakePage) Close() error {
	p.closes++
	return nil
}

type fakePlatform struct {
	findErr   error
	attachErr error
	page      *fakePage
	proc      *fakeProcess
	launched  string
	calls     []string
}

func (f *fakePlatform) FindBrowser() (*browser.BrowserExecutable, error) {
	f.calls = append(f.calls, "find")
	if f.findErr != nil {
		return nil, f.findErr
	}
	return &browser.BrowserExecutable{Kind: browser.BrowserChrome, Path: "/usr/bin/google-chrome"}, nil
}

func (f *fakePlatform) KillExisting(context.Context) error {
	f.calls = append(f.calls, "kill")
	return errors.New("no process found")
}

func (f *fakePlatform) StageProfile() ([]string, error) {
	f.calls = append(f.calls, "stage")
	return []string{"Local State", "Default/Cookies"}, nil
}

func (f *fakePlatform) Launch(_ *browser.BrowserExecutable, url string) (Process, error) {
	f.calls = append(f.calls, "launch")
	f.launched = url
	f.proc = &fakeProcess{}
	return f.proc, nil
}

func (f *fakePlatform) Attach(context.Context) (Page, error) {
	f.calls = append(f.calls, "attach")
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	return f.page, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Project: config.Project{ID: "rasma-app", ClientID: "cid"},
		OAuth: config.OAuth{
			RedirectURI: "http://localhost:3000/api/auth/callback/google",
			ConsoleURL:  "https://console.cloud.google.com",
		},
		Browser: config.Browser{DebugPort: 9222, KillSettle: 3 * time.Second},
		Automation: config.Automation{
			LoginHost:         "accounts.google.com",
			LoginPollInterval: time.Millisecond,
			LoginPollAttempts: 3,
			TargetMarker:      "oauthclient",
			HoldOpen:          15 * time.Second,
		},
		Output: config.Output{Dir: t.TempDir()},
	}
}

type sleepLog struct {
	total time.Duration
	calls int
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.calls++
	s.total += d
	return ctx.Err()
}

func newTestRunner(t *testing.T, cfg *config.Config, p Platform) (*Runner, *bytes.Buffer, *sleepLog) {
	t.Helper()
	prev := crashlog.SetOutput(io.Discard)
	t.Cleanup(func() { crashlog.SetOutput(prev) })

	out := &bytes.Buffer{}
	sl := &sleepLog{}
	return NewRunner(cfg, WithPlatform(p), WithOutput(out), WithSleep(sl.sleep)), out, sl
}

func formPage() *fakePage {
	return &fakePage{
		urls: []string{editPage},
		buttons: [][]matcher.Element{
			{{Ref: "add", Text: "+ ADD URI", Visible: true}, {Ref: "cancel", Text: "Cancel", Visible: true}},
			{{Ref: "save", Text: "Save", Visible: true}},
		},
		inputs: []matcher.Element{
			{Ref: "filled", Type: "text", Value: "http://localhost:3000/old", Visible: true},
			{Ref: "empty", Type: "url", Visible: true},
		},
	}
}

func TestRunBrowserNotFound(t *testing.T) {
	fp := &fakePlatform{findErr: browser.ErrNotFound}
	r, out, _ := newTestRunner(t, testConfig(t), fp)

	_, err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrBrowserNotFound)
	assert.Equal(t, []string{"find"}, fp.calls)
	assert.Contains(t, out.String(), "ERROR: Chrome not found")
}

func TestRunAttachFailureKillsBrowser(t *testing.T) {
	fp := &fakePlatform{attachErr: errors.New("connection refused")}
	r, out, _ := newTestRunner(t, testConfig(t), fp)

	_, err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrAttach)
	assert.Equal(t, []string{"find", "kill", "stage", "launch", "attach"}, fp.calls)
	assert.Equal(t, 1, fp.proc.kills)
	assert.Contains(t, out.String(), "Could not connect to Chrome")
}

func TestRunFillsAndSaves(t *testing.T) {
	cfg := testConfig(t)
	page := formPage()
	fp := &fakePlatform{page: page}
	r, out, sl := newTestRunner(t, cfg, fp)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cfg.EditURL(), fp.launched)
	assert.True(t, res.LoggedIn)
	assert.True(t, res.AddClicked)
	assert.True(t, res.InputFound)
	assert.True(t, res.Saved)
	assert.Equal(t, cfg.OAuth.RedirectURI, page.typed)
	assert.Empty(t, page.navigate)
	assert.Equal(t, []string{
		"shot:" + ShotLoaded,
		"shot:" + ShotTarget,
		"scroll",
		"click:add",
		"click:empty",
		"type:empty",
		"shot:" + ShotFilled,
		"click:save",
		"shot:" + ShotSaved,
	}, page.events)
	assert.Len(t, res.Screenshots, 4)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, ShotLoaded), res.Screenshots[0])

	assert.Equal(t, 1, page.closes)
	assert.Equal(t, 1, fp.proc.kills)
	assert.GreaterOrEqual(t, sl.total, 18*time.Second)

	text := out.String()
	assert.Contains(t, text, "Found 2 buttons")
	assert.Contains(t, text, "  Button: '+ ADD URI'")
	assert.Contains(t, text, "Clicking: '+ ADD URI'")
	assert.Contains(t, text, "SUCCESS!")
}

func TestRunNavigatesWhenNotOnTarget(t *testing.T) {
	cfg := testConfig(t)
	page := formPage()
	page.urls = []string{"https://console.cloud.google.com/home"}
	fp := &fakePlatform{page: page}
	r, _, _ := newTestRunner(t, cfg, fp)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.EditURL(), page.navigate)
}

func TestRunLoginPollIsBounded(t *testing.T) {
	cfg := testConfig(t)
	page := formPage()
	page.urls = []string{"https://accounts.google.com/signin"}
	fp := &fakePlatform{page: page}
	r, out, _ := newTestRunner(t, cfg, fp)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.LoggedIn)
	// one read for the first screenshot, three polls, one re-read
	assert.Equal(t, 5, page.urlCalls)
	assert.Contains(t, out.String(), "Not logged in")
	assert.Contains(t, out.String(), "continuing anyway")
	assert.Equal(t, cfg.EditURL(), page.navigate)
	assert.Equal(t, 1, fp.proc.kills)
}

func TestRunLoginDetected(t *testing.T) {
	cfg := testConfig(t)
	page := formPage()
	page.urls = []string{
		"https://accounts.google.com/signin",
		"https://accounts.google.com/signin",
		editPage,
	}
	fp := &fakePlatform{page: page}
	r, out, _ := newTestRunner(t, cfg, fp)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.LoggedIn)
	assert.Contains(t, out.String(), "Login detected!")
	assert.Empty(t, page.navigate)
}

func TestRunFallsBackToLastAddIcon(t *testing.T) {
	page := formPage()
	page.buttons[0] = []matcher.Element{{Ref: "cancel", Text: "Cancel", Visible: true}}
	page.icons = []matcher.Element{{Ref: "icon-origins"}, {Ref: "icon-redirects"}}
	fp := &fakePlatform{page: page}
	r, _, _ := newTestRunner(t, testConfig(t), fp)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.AddClicked)
	assert.Contains(t, page.events, "click:icon-redirects")
	assert.NotContains(t, page.events, "click:icon-origins")
}

func TestRunWithoutInputLeavesItToTheUser(t *testing.T) {
	page := formPage()
	page.inputs = []matcher.Element{{Ref: "filled", Type: "text", Value: "x", Visible: true}}
	fp := &fakePlatform{page: page}
	r, out, _ := newTestRunner(t, testConfig(t), fp)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.InputFound)
	assert.False(t, res.Saved)
	assert.Empty(t, page.typed)
	assert.Contains(t, out.String(), "Could not find input field for redirect URI.")
	assert.Contains(t, out.String(), "The browser is open - you can add it manually.")
	assert.Equal(t, 1, fp.proc.kills)
}

func TestRunWithoutSaveButton(t *testing.T) {
	page := formPage()
	page.buttons[1] = []matcher.Element{{Ref: "save-all", Text: "Save all", Visible: true}}
	fp := &fakePlatform{page: page}
	r, out, _ := newTestRunner(t, testConfig(t), fp)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.InputFound)
	assert.False(t, res.Saved)
	assert.Len(t, res.Screenshots, 3)
	assert.NotContains(t, out.String(), "SUCCESS!")
}

func TestRunScreenshotFailureIsNotFatal(t *testing.T) {
	page := formPage()
	page.shotErr = errors.New("disk full")
	fp := &fakePlatform{page: page}
	r, out, _ := newTestRunner(t, testConfig(t), fp)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Empty(t, res.Screenshots)
	assert.Contains(t, out.String(), "Screenshot failed: disk full")
}

func TestRunPanicStillCleansUp(t *testing.T) {
	page := formPage()
	page.panicOn = "url"
	fp := &fakePlatform{page: page}
	r, _, _ := newTestRunner(t, testConfig(t), fp)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.closes)
	assert.Equal(t, 1, fp.proc.kills)
}

func TestRunInterrupted(t *testing.T) {
	page := formPage()
	fp := &fakePlatform{page: page}
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	r, out, _ := newTestRunner(t, cfg, fp)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		if d == cfg.Automation.HoldOpen {
			cancel()
		}
		return ctx.Err()
	}

	_, err := r.Run(ctx)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out.String(), "Interrupted"))
	assert.Equal(t, 1, page.closes)
	assert.Equal(t, 1, fp.proc.kills)
}

func TestReleaseRunsOnce(t *testing.T) {
	page := &fakePage{}
	proc := &fakeProcess{}
	rel := &release{page: page, proc: proc, log: NewRunner(testConfig(t)).log}

	rel.do()
	rel.do()
	assert.Equal(t, 1, page.closes)
	assert.Equal(t, 1, proc.kills)
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
}
