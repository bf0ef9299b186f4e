package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"

	"github.com/neboloop/oauthsetup/internal/matcher"
)

// URL returns the tab's current location.
func (p *Page) URL() (string, error) {
	var url string
	if err := p.run(chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read url failed: %w", err)
	}
	return url, nil
}

// Navigate loads url and waits for the load event.
func (p *Page) Navigate(url string) error {
	p.audit.action("navigate", url)
	if err := p.run(chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Screenshot writes a PNG of the viewport to path.
func (p *Page) Screenshot(path string) error {
	var buf []byte
	if err := p.run(chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	p.audit.action("screenshot", path)
	return nil
}

// ScrollToMiddle scrolls the window to half the document height.
func (p *Page) ScrollToMiddle() error {
	if err := p.run(chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil)); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// Click clicks an element returned by Buttons, Inputs or AddIcons.
func (p *Page) Click(el matcher.Element) error {
	p.audit.action("click", el.Ref)
	if err := p.run(chromedp.Click(el.Ref, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Type sends text as key events to el.
func (p *Page) Type(el matcher.Element, text string) error {
	p.audit.action("type", el.Ref)
	if err := p.run(chromedp.SendKeys(el.Ref, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("type failed: %w", err)
	}
	return nil
}
