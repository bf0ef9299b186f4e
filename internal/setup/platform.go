package setup

import (
	"context"
	"errors"

	"github.com/neboloop/oauthsetup/internal/browser"
	"github.com/neboloop/oauthsetup/internal/config"
	"github.com/neboloop/oauthsetup/internal/driver"
	"github.com/neboloop/oauthsetup/internal/matcher"
)

// Page is the attached browser tab.
type Page interface {
	URL() (string, error)
	Navigate(url string) error
	Screenshot(path string) error
	ScrollToMiddle() error
	Buttons() ([]matcher.Element, error)
	Inputs() ([]matcher.Element, error)
	AddIcons() ([]matcher.Element, error)
	Click(el matcher.Element) error
	Type(el matcher.Element, text string) error
	Close() error
}

// Process is the launched browser.
type Process interface {
	Kill() error
}

// Platform performs the run's side effects on the local machine.
type Platform interface {
	FindBrowser() (*browser.BrowserExecutable, error)
	KillExisting(ctx context.Context) error
	StageProfile() ([]string, error)
	Launch(exe *browser.BrowserExecutable, url string) (Process, error)
	Attach(ctx context.Context) (Page, error)
}

// LocalPlatform drives the Chrome installed on this machine.
type LocalPlatform struct {
	cfg *config.Config
}

// NewLocalPlatform returns the Platform backed by cfg.
func NewLocalPlatform(cfg *config.Config) *LocalPlatform {
	return &LocalPlatform{cfg: cfg}
}

func (p *LocalPlatform) FindBrowser() (*browser.BrowserExecutable, error) {
	return browser.FindChromeExecutable(p.cfg.Browser.ExecutablePath)
}

func (p *LocalPlatform) KillExisting(ctx context.Context) error {
	return browser.KillExisting(ctx, p.cfg.ImageName())
}

func (p *LocalPlatform) StageProfile() ([]string, error) {
	src := p.cfg.ProfileSourceDir()
	if src == "" {
		return nil, errors.New("live profile directory unknown; set browser.profile_source")
	}
	return browser.StageProfile(src, p.cfg.ScratchProfileDir())
}

func (p *LocalPlatform) Launch(exe *browser.BrowserExecutable, url string) (Process, error) {
	running, err := browser.LaunchChrome(exe, browser.LaunchOptions{
		UserDataDir:      p.cfg.ScratchProfileDir(),
		ProfileDirectory: browser.DefaultProfileDirectory,
		CDPPort:          p.cfg.Browser.DebugPort,
		URL:              url,
	})
	if err != nil {
		return nil, err
	}
	return running, nil
}

func (p *LocalPlatform) Attach(ctx context.Context) (Page, error) {
	wsURL, err := browser.WaitForCDP(ctx, browser.CDPURL(p.cfg.Browser.DebugPort), p.cfg.Browser.CDPTimeout)
	if err != nil {
		return nil, err
	}
	page, err := driver.Attach(ctx, wsURL, driver.Options{ActionTimeout: p.cfg.Automation.ActionTimeout})
	if err != nil {
		return nil, err
	}
	return page, nil
}
