package setup

import (
	"context"
	"errors"
	"strings"

	"github.com/avast/retry-go/v4"

	"github.com/neboloop/oauthsetup/internal/matcher"
)

var errStillOnLogin = errors.New("still on login page")

func (r *Runner) interact(ctx context.Context, page Page, res *Result) error {
	a := r.cfg.Automation

	r.printf("Waiting for page to load...\n")
	if err := r.sleep(ctx, a.PageLoadDelay); err != nil {
		return err
	}

	url, err := page.URL()
	if err != nil {
		return err
	}
	r.printf("Current URL: %s\n", url)
	r.screenshot(page, ShotLoaded, res)

	res.LoggedIn = true
	if strings.Contains(url, a.LoginHost) {
		r.printf("\nNot logged in with copied profile.\n")
		r.printf("This session's cookies didn't transfer properly.\n")
		r.printf("Keeping browser open - please log in manually, then the script will continue...\n")

		loggedIn, _, err := r.waitForLogin(ctx, page)
		if err != nil {
			return err
		}
		res.LoggedIn = loggedIn
		if loggedIn {
			r.printf("Login detected!\n")
		} else {
			r.printf("Login not detected; continuing anyway.\n")
		}
		if err := r.sleep(ctx, a.PostLoginDelay); err != nil {
			return err
		}
	}

	url, err = page.URL()
	if err != nil {
		return err
	}
	if !strings.Contains(url, a.TargetMarker) {
		r.printf("Navigating to OAuth client edit page...\n")
		if err := page.Navigate(r.cfg.EditURL()); err != nil {
			return err
		}
		if err := r.sleep(ctx, a.NavigateDelay); err != nil {
			return err
		}
	}
	r.screenshot(page, ShotTarget, res)

	r.printf("\nSearching for page elements...\n")
	if err := page.ScrollToMiddle(); err != nil {
		r.log.Warn("scroll", "error", err)
	}
	if err := r.sleep(ctx, a.ScrollDelay); err != nil {
		return err
	}

	buttons, err := page.Buttons()
	if err != nil {
		return err
	}
	r.printf("Found %d buttons\n", len(buttons))
	for _, label := range matcher.LoggableLabels(buttons) {
		r.printf("  Button: '%s'\n", label)
	}

	added, err := r.clickAdd(ctx, page, buttons)
	if err != nil {
		return err
	}
	res.AddClicked = added

	inputs, err := page.Inputs()
	if err != nil {
		return err
	}
	input, ok := matcher.SelectInput(inputs)
	if !ok {
		r.printf("Could not find input field for redirect URI.\n")
		r.printf("The browser is open - you can add it manually.\n")
		return r.sleep(ctx, a.HoldOpen)
	}
	res.InputFound = true

	r.printf("Entering redirect URI...\n")
	if err := page.Click(input); err != nil {
		return err
	}
	if err := r.sleep(ctx, a.FocusDelay); err != nil {
		return err
	}
	if err := page.Type(input, r.cfg.OAuth.RedirectURI); err != nil {
		return err
	}
	if err := r.sleep(ctx, a.TypeDelay); err != nil {
		return err
	}
	r.screenshot(page, ShotFilled, res)

	saved, err := r.clickSave(ctx, page, res)
	if err != nil {
		return err
	}
	res.Saved = saved
	if !saved {
		r.printf("Save button not found - click Save in the browser to finish.\n")
	}

	return r.sleep(ctx, a.HoldOpen)
}

// waitForLogin polls the tab URL until it leaves the login host. It reports
// whether login was seen and how many polls were made; exhausting the
// attempts is not an error.
func (r *Runner) waitForLogin(ctx context.Context, page Page) (bool, int, error) {
	a := r.cfg.Automation
	attempts := a.LoginPollAttempts
	if attempts < 1 {
		attempts = 1
	}

	polls := 0
	err := retry.Do(
		func() error {
			polls++
			url, err := page.URL()
			if err != nil {
				return err
			}
			if strings.Contains(url, a.LoginHost) {
				return errStillOnLogin
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(a.LoginPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return true, polls, nil
	}
	if ctx.Err() != nil {
		return false, polls, ctx.Err()
	}
	r.log.Info("login not detected", "polls", polls, "last_error", err)
	return false, polls, nil
}

// clickAdd clicks the "add URI" button, falling back to the last icon-only
// add button. It reports whether anything was clicked.
func (r *Runner) clickAdd(ctx context.Context, page Page, buttons []matcher.Element) (bool, error) {
	if btn, ok := matcher.FindAddButton(buttons, orDefault(r.cfg.Automation.AddKeywords, matcher.DefaultAddKeywords)); ok {
		r.printf("Clicking: '%s'\n", btn.Label())
		if err := page.Click(btn); err != nil {
			r.log.Warn("click add button", "error", err)
		} else {
			return true, r.sleep(ctx, r.cfg.Automation.ClickDelay)
		}
	}

	icons, err := page.AddIcons()
	if err != nil {
		r.log.Warn("enumerate add icons", "error", err)
		return false, nil
	}
	icon, ok := matcher.PickAddIcon(icons)
	if !ok {
		r.log.Info("no add button or icon found")
		return false, nil
	}
	if err := page.Click(icon); err != nil {
		r.log.Warn("click add icon", "error", err)
		return false, nil
	}
	return true, r.sleep(ctx, r.cfg.Automation.ClickDelay)
}

func (r *Runner) clickSave(ctx context.Context, page Page, res *Result) (bool, error) {
	buttons, err := page.Buttons()
	if err != nil {
		return false, err
	}
	btn, ok := matcher.FindSaveButton(buttons, orDefault(r.cfg.Automation.SaveLabels, matcher.DefaultSaveLabels))
	if !ok {
		return false, nil
	}

	r.printf("Clicking Save...\n")
	if err := page.Click(btn); err != nil {
		return false, err
	}
	if err := r.sleep(ctx, r.cfg.Automation.SaveDelay); err != nil {
		return false, err
	}
	r.screenshot(page, ShotSaved, res)
	r.printf("\nSUCCESS!\n")
	return true, nil
}

// screenshot saves name in the output directory. Failure only loses the image.
func (r *Runner) screenshot(page Page, name string, res *Result) {
	path := r.cfg.ScreenshotPath(name)
	if err := page.Screenshot(path); err != nil {
		r.log.Warn("screenshot", "path", path, "error", err)
		r.printf("Screenshot failed: %v\n", err)
		return
	}
	res.Screenshots = append(res.Screenshots, path)
	r.printf("Screenshot: %s\n", path)
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
