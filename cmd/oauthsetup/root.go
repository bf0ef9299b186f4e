package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neboloop/oauthsetup/internal/logging"
	"github.com/neboloop/oauthsetup/internal/setup"
)

// ErrLocked means another run holds the scratch profile.
var ErrLocked = errors.New("another oauthsetup run is using the scratch profile")

// RunSetup runs the redirect URI procedure once and prints the credentials.
func RunSetup(cmd *cobra.Command) error {
	logging.Setup(os.Stderr, verbose)

	c, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	lockPath := lockPathFor(c.ScratchProfileDir())
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	lock, err := acquireLock(lockPath)
	if err != nil {
		return fmt.Errorf("%w (%s): %v", ErrLocked, lockPath, err)
	}
	defer releaseLock(lock)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	res, err := setup.NewRunner(c, setup.WithOutput(out)).Run(ctx)
	if err != nil {
		return err
	}
	logging.Debug("run finished",
		"logged_in", res.LoggedIn,
		"add_clicked", res.AddClicked,
		"input_found", res.InputFound,
		"saved", res.Saved,
		"screenshots", len(res.Screenshots))

	printCredentials(out, c.Project.ClientID, resolveSecret(c.Project.ClientSecret))
	return nil
}
