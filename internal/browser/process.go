package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// killTimeout bounds the platform kill utility.
const killTimeout = 10 * time.Second

// RunningChrome represents a running Chrome instance.
type RunningChrome struct {
	PID         int
	Executable  *BrowserExecutable
	UserDataDir string
	CDPPort     int
	StartedAt   time.Time

	cmd  *exec.Cmd
	once sync.Once
	err  error
}

// LaunchOptions configures a Chrome launch.
type LaunchOptions struct {
	UserDataDir      string
	ProfileDirectory string
	CDPPort          int
	URL              string
}

// DefaultImageName returns the process image name Chrome runs under on goos.
func DefaultImageName(goos string) string {
	switch goos {
	case "windows":
		return "chrome.exe"
	case "darwin":
		return "Google Chrome"
	default:
		return "chrome"
	}
}

// KillExisting force-terminates every process named imageName. Callers treat
// failure as non-fatal: the utility exits non-zero when nothing matched.
func KillExisting(ctx context.Context, imageName string) error {
	ctx, cancel := context.WithTimeout(ctx, killTimeout)
	defer cancel()

	name, args := killByNameCommand(imageName)
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// BuildChromeArgs returns the command line for a launch.
func BuildChromeArgs(opts LaunchOptions) []string {
	profileDir := opts.ProfileDirectory
	if profileDir == "" {
		profileDir = DefaultProfileDirectory
	}
	port := opts.CDPPort
	if port == 0 {
		port = DefaultCDPPort
	}

	args := []string{
		fmt.Sprintf("--user-data-dir=%s", opts.UserDataDir),
		fmt.Sprintf("--profile-directory=%s", profileDir),
		fmt.Sprintf("--remote-debugging-port=%d", port),
		"--no-first-run",
		"--no-default-browser-check",
	}
	if opts.URL != "" {
		args = append(args, opts.URL)
	}
	return args
}

// LaunchChrome starts exe with the remote debugging port enabled. It does not
// wait for the DevTools endpoint; see WaitForCDP.
func LaunchChrome(exe *BrowserExecutable, opts LaunchOptions) (*RunningChrome, error) {
	if exe == nil {
		return nil, ErrNotFound
	}

	cmd := exec.Command(exe.Path, BuildChromeArgs(opts)...)
	cmd.Env = os.Environ()
	setChromeProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}

	port := opts.CDPPort
	if port == 0 {
		port = DefaultCDPPort
	}
	return &RunningChrome{
		PID:         cmd.Process.Pid,
		Executable:  exe,
		UserDataDir: opts.UserDataDir,
		CDPPort:     port,
		StartedAt:   time.Now(),
		cmd:         cmd,
	}, nil
}

// Kill force-kills the browser and reaps it. Safe to call more than once.
func (r *RunningChrome) Kill() error {
	if r == nil || r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	r.once.Do(func() {
		killChromeProcessGroup(r.cmd, true)
		// Wait reports the kill signal as an error; only a failed reap matters.
		if err := r.cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				r.err = err
			}
		}
	})
	return r.err
}
