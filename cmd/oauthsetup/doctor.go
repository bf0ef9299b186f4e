package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/neboloop/oauthsetup/internal/browser"
	"github.com/neboloop/oauthsetup/internal/config"
	"github.com/neboloop/oauthsetup/internal/keyring"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// DoctorCmd creates the doctor command for health checks
func DoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that a setup run can work on this machine",
		Long: `Run diagnostics before a setup run.

Checks:
  - Configuration
  - Chrome executable
  - Chrome profile auth files
  - OAuth client id and secret
  - Remote debugging port
  - Scratch profile lock`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			results := []checkResult{configCheck(err)}
			if err != nil {
				c = ServerConfig
			}
			results = append(results, runChecks(c)...)
			if printResults(cmd.OutOrStdout(), results) > 0 {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
}

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func configCheck(err error) checkResult {
	if err != nil {
		return checkResult{name: "Config", status: "error", message: err.Error()}
	}
	msg := "built-in defaults"
	if cfgFile != "" {
		msg = cfgFile
	}
	return checkResult{name: "Config", status: "ok", message: msg}
}

func runChecks(c *config.Config) []checkResult {
	var results []checkResult
	results = append(results, checkBrowser(c))
	results = append(results, checkProfile(c.ProfileSourceDir()))
	results = append(results, checkCredentials(c)...)
	results = append(results, checkDebugPort(c.Browser.DebugPort))
	results = append(results, checkLock(lockPathFor(c.ScratchProfileDir())))
	return results
}

func checkBrowser(c *config.Config) checkResult {
	exe, err := browser.FindChromeExecutable(c.Browser.ExecutablePath)
	if err != nil {
		return checkResult{name: "Chrome", status: "error", message: err.Error()}
	}
	return checkResult{name: "Chrome", status: "ok", message: exe.Path}
}

func checkProfile(dir string) checkResult {
	if dir == "" {
		return checkResult{name: "Chrome Profile", status: "error", message: "profile directory unknown; set browser.profile_source"}
	}
	found := 0
	for _, rel := range browser.ProfileFiles() {
		if _, err := os.Stat(filepath.Join(dir, rel)); err == nil {
			found++
		}
	}
	if found == 0 {
		return checkResult{name: "Chrome Profile", status: "warn", message: fmt.Sprintf("no auth files in %s; you will have to log in", dir)}
	}
	return checkResult{name: "Chrome Profile", status: "ok", message: fmt.Sprintf("%d auth files in %s", found, dir)}
}

func checkCredentials(c *config.Config) []checkResult {
	var results []checkResult
	if c.Project.ClientID == "" {
		results = append(results, checkResult{name: "Client ID", status: "warn", message: "GOOGLE_CLIENT_ID is not set"})
	} else {
		results = append(results, checkResult{name: "Client ID", status: "ok", message: c.Project.ClientID})
	}

	switch secret := resolveSecret(c.Project.ClientSecret); {
	case secret == secretPlaceholder:
		results = append(results, checkResult{name: "Client Secret", status: "warn", message: "not in environment or keychain"})
	case c.Project.ClientSecret != "":
		results = append(results, checkResult{name: "Client Secret", status: "ok", message: maskKey(secret) + " (environment)"})
	default:
		results = append(results, checkResult{name: "Client Secret", status: "ok", message: maskKey(secret) + " (keychain)"})
	}
	if !keyring.Available() {
		results = append(results, checkResult{name: "Keychain", status: "warn", message: "unavailable"})
	}
	return results
}

func checkDebugPort(port int) checkResult {
	url := browser.CDPURL(port)
	if browser.IsChromeReachable(url, time.Second) {
		return checkResult{name: "Debug Port", status: "warn", message: fmt.Sprintf("%s already answers; a browser is still running with remote debugging", url)}
	}
	return checkResult{name: "Debug Port", status: "ok", message: fmt.Sprintf("%d free", port)}
}

func checkLock(lockPath string) checkResult {
	held, owner, err := lockHolder(lockPath)
	switch {
	case err != nil:
		return checkResult{name: "Scratch Lock", status: "warn", message: err.Error()}
	case held && owner != "":
		return checkResult{name: "Scratch Lock", status: "error", message: fmt.Sprintf("%s is held by pid %s", lockPath, owner)}
	case held:
		return checkResult{name: "Scratch Lock", status: "error", message: fmt.Sprintf("%s is held by another run", lockPath)}
	}
	return checkResult{name: "Scratch Lock", status: "ok", message: "free"}
}

// printResults writes the report and returns the number of errors.
func printResults(w io.Writer, results []checkResult) int {
	fmt.Fprintln(w, bold("oauthsetup doctor"))
	fmt.Fprintln(w, "=================")
	fmt.Fprintln(w)

	okCount, warnCount, errorCount := 0, 0, 0
	for _, r := range results {
		switch r.status {
		case "ok":
			fmt.Fprintf(w, "%s %s: %s\n", green("✓"), r.name, r.message)
			okCount++
		case "warn":
			fmt.Fprintf(w, "%s %s: %s\n", yellow("⚠"), r.name, r.message)
			warnCount++
		case "error":
			fmt.Fprintf(w, "%s %s: %s\n", red("✗"), r.name, r.message)
			errorCount++
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %s", green(fmt.Sprintf("%d passed", okCount)))
	if warnCount > 0 {
		fmt.Fprintf(w, "  %s", yellow(fmt.Sprintf("%d warnings", warnCount)))
	}
	if errorCount > 0 {
		fmt.Fprintf(w, "  %s", red(fmt.Sprintf("%d errors", errorCount)))
	}
	fmt.Fprintln(w)
	return errorCount
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
