// Package config loads the run configuration from embedded YAML defaults,
// an optional user file and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neboloop/oauthsetup/internal/browser"
)

// Config is the full run configuration.
type Config struct {
	Project    Project    `yaml:"project"`
	OAuth      OAuth      `yaml:"oauth"`
	Browser    Browser    `yaml:"browser"`
	Automation Automation `yaml:"automation"`
	Output     Output     `yaml:"output"`
}

type Project struct {
	ID           string `yaml:"id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type OAuth struct {
	RedirectURI string `yaml:"redirect_uri"`
	ConsoleURL  string `yaml:"console_url"`
}

type Browser struct {
	ExecutablePath string        `yaml:"executable_path"`
	ImageName      string        `yaml:"image_name"`
	ProfileSource  string        `yaml:"profile_source"`
	ScratchProfile string        `yaml:"scratch_profile"`
	DebugPort      int           `yaml:"debug_port"`
	KillSettle     time.Duration `yaml:"kill_settle"`
	CDPTimeout     time.Duration `yaml:"cdp_timeout"`
}

type Automation struct {
	ActionTimeout     time.Duration `yaml:"action_timeout"`
	PageLoadDelay     time.Duration `yaml:"page_load_delay"`
	LoginHost         string        `yaml:"login_host"`
	LoginPollInterval time.Duration `yaml:"login_poll_interval"`
	LoginPollAttempts int           `yaml:"login_poll_attempts"`
	PostLoginDelay    time.Duration `yaml:"post_login_delay"`
	TargetMarker      string        `yaml:"target_marker"`
	NavigateDelay     time.Duration `yaml:"navigate_delay"`
	ScrollDelay       time.Duration `yaml:"scroll_delay"`
	ClickDelay        time.Duration `yaml:"click_delay"`
	FocusDelay        time.Duration `yaml:"focus_delay"`
	TypeDelay         time.Duration `yaml:"type_delay"`
	SaveDelay         time.Duration `yaml:"save_delay"`
	HoldOpen          time.Duration `yaml:"hold_open"`
	AddKeywords       []string      `yaml:"add_keywords"`
	SaveLabels        []string      `yaml:"save_labels"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	if err := c.Merge(data); err != nil {
		return c, err
	}
	return c, nil
}

// Merge overlays YAML onto c. Keys absent from data keep their current value.
// ${VAR} references are expanded per scalar after parsing, so values may
// hold any characters.
func (c *Config) Merge(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc.Kind == 0 {
		return nil
	}
	expandNode(&doc)
	if err := doc.Decode(c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func expandNode(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		expanded := os.ExpandEnv(n.Value)
		if expanded != n.Value {
			n.Value = expanded
			// Plain scalars re-resolve so ${PORT} can still feed an int.
			if n.Style == 0 {
				n.Tag = ""
			}
		}
		return
	}
	for _, child := range n.Content {
		expandNode(child)
	}
}

// MergeFile overlays the YAML file at path onto c.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return c.Merge(data)
}

// Validate reports every setting that would make a run meaningless.
func (c *Config) Validate() error {
	var errs []error
	if c.Browser.DebugPort <= 0 || c.Browser.DebugPort > 65535 {
		errs = append(errs, fmt.Errorf("browser.debug_port %d out of range", c.Browser.DebugPort))
	}
	if c.Automation.LoginPollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("automation.login_poll_attempts must be positive, got %d", c.Automation.LoginPollAttempts))
	}
	if strings.TrimSpace(c.OAuth.RedirectURI) == "" {
		errs = append(errs, errors.New("oauth.redirect_uri is required"))
	}
	if _, err := url.Parse(c.OAuth.ConsoleURL); err != nil || c.OAuth.ConsoleURL == "" {
		errs = append(errs, fmt.Errorf("oauth.console_url %q is not a URL", c.OAuth.ConsoleURL))
	}
	return errors.Join(errs...)
}

// EditURL is the console page that edits the OAuth client.
func (c *Config) EditURL() string {
	base := strings.TrimSuffix(c.OAuth.ConsoleURL, "/")
	return fmt.Sprintf("%s/apis/credentials/oauthclient/%s?project=%s",
		base, url.PathEscape(c.Project.ClientID), url.QueryEscape(c.Project.ID))
}

// OutputDir returns the screenshot directory, defaulting to the working directory.
func (c *Config) OutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// ScratchProfileDir returns where the staged profile is written.
func (c *Config) ScratchProfileDir() string {
	if c.Browser.ScratchProfile != "" {
		return c.Browser.ScratchProfile
	}
	return filepath.Join(c.OutputDir(), browser.ScratchProfileName)
}

// ProfileSourceDir returns the live profile to copy auth files from.
func (c *Config) ProfileSourceDir() string {
	if c.Browser.ProfileSource != "" {
		return c.Browser.ProfileSource
	}
	return browser.DefaultUserDataDir(runtime.GOOS, os.Getenv)
}

// ImageName returns the process name killed before launch.
func (c *Config) ImageName() string {
	if c.Browser.ImageName != "" {
		return c.Browser.ImageName
	}
	return browser.DefaultImageName(runtime.GOOS)
}

// ScreenshotPath returns name inside the output directory.
func (c *Config) ScreenshotPath(name string) string {
	return filepath.Join(c.OutputDir(), name)
}
