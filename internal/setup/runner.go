// Package setup runs the redirect URI procedure: find and relaunch Chrome
// against a staged profile, attach over CDP, and fill in the OAuth client
// form, leaving anything the heuristics miss to the user.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neboloop/oauthsetup/internal/config"
	"github.com/neboloop/oauthsetup/internal/crashlog"
	"github.com/neboloop/oauthsetup/internal/logging"
)

var (
	// ErrBrowserNotFound means no Chrome executable could be located.
	ErrBrowserNotFound = errors.New("chrome not found")

	// ErrAttach means the automation session could not be established.
	ErrAttach = errors.New("could not attach to chrome")
)

// Screenshot file names, in the order they are taken.
const (
	ShotLoaded = "step1.png"
	ShotTarget = "step2.png"
	ShotFilled = "step3_filled.png"
	ShotSaved  = "step4_saved.png"
)

// Result records how far a run got.
type Result struct {
	Browser     string
	Staged      []string
	LoggedIn    bool
	AddClicked  bool
	InputFound  bool
	Saved       bool
	Screenshots []string
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Runner executes one setup run.
type Runner struct {
	cfg      *config.Config
	platform Platform
	out      io.Writer
	sleep    SleepFunc
	log      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPlatform replaces the local machine side effects.
func WithPlatform(p Platform) Option {
	return func(r *Runner) { r.platform = p }
}

// WithOutput sets where progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithSleep replaces the fixed delays.
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) { r.sleep = fn }
}

// NewRunner returns a Runner for cfg.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:   cfg,
		out:   os.Stdout,
		sleep: sleepContext,
		log:   logging.With("component", "setup", "run", uuid.NewString()),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.platform == nil {
		r.platform = NewLocalPlatform(cfg)
	}
	return r
}

// Run executes the procedure. It fails with ErrBrowserNotFound, ErrAttach,
// or the context error when interrupted before launch; every failure after
// attaching is reported and absorbed. The browser and session are always
// released before Run returns.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	r.printf("%s\n", strings.Repeat("=", 60))
	r.printf("Google Cloud OAuth - Redirect URI Setup\n")
	r.printf("%s\n", strings.Repeat("=", 60))

	exe, err := r.platform.FindBrowser()
	if err != nil {
		r.printf("ERROR: Chrome not found\n")
		return res, fmt.Errorf("%w: %v", ErrBrowserNotFound, err)
	}
	res.Browser = exe.Path
	r.printf("Chrome found: %s\n", exe.Path)

	r.printf("Closing Chrome...\n")
	if err := r.platform.KillExisting(ctx); err != nil {
		r.log.Debug("kill existing chrome", "error", err)
	}
	if err := r.sleep(ctx, r.cfg.Browser.KillSettle); err != nil {
		return res, err
	}

	r.printf("Copying Chrome auth data...\n")
	staged, err := r.platform.StageProfile()
	if err != nil {
		crashlog.LogWarn("setup", fmt.Sprintf("profile staging incomplete: %v", err), nil)
	}
	res.Staged = staged
	r.log.Info("profile staged", "files", len(staged), "dir", r.cfg.ScratchProfileDir())
	r.printf("Auth data copied.\n")

	editURL := r.cfg.EditURL()
	if r.cfg.Project.ClientID == "" {
		r.log.Warn("GOOGLE_CLIENT_ID is not set; the edit page URL has no client id")
	}

	r.printf("\nStarting Chrome with remote debugging port %d...\n", r.cfg.Browser.DebugPort)
	proc, err := r.platform.Launch(exe, editURL)
	if err != nil {
		r.printf("Could not start Chrome: %v\n", err)
		return res, fmt.Errorf("%w: %v", ErrAttach, err)
	}

	rel := &release{proc: proc, log: r.log}
	defer rel.do()

	r.printf("Connecting to Chrome...\n")
	page, err := r.platform.Attach(ctx)
	if err != nil {
		r.printf("Could not connect to Chrome: %v\n", err)
		return res, fmt.Errorf("%w: %v", ErrAttach, err)
	}
	rel.page = page

	r.interactSafely(ctx, page, res)
	return res, nil
}

// interactSafely runs the interactive phase, reporting any error or panic
// instead of propagating it.
func (r *Runner) interactSafely(ctx context.Context, page Page, res *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			crashlog.LogPanic("setup", rec, nil)
		}
	}()

	err := r.interact(ctx, page, res)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		r.printf("\nInterrupted: %v\n", ctx.Err())
	default:
		crashlog.LogError("setup", err, nil)
	}
}

// release frees the session and the browser exactly once, swallowing errors.
type release struct {
	once sync.Once
	page Page
	proc Process
	log  *slog.Logger
}

func (c *release) do() {
	c.once.Do(func() {
		defer func() {
			if rec := recover(); rec != nil {
				c.log.Debug("cleanup panicked", "panic", rec)
			}
		}()
		if c.page != nil {
			if err := c.page.Close(); err != nil {
				c.log.Debug("close session", "error", err)
			}
		}
		if c.proc != nil {
			if err := c.proc.Kill(); err != nil {
				c.log.Debug("kill chrome", "error", err)
			}
		}
	})
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
