// Package driver attaches to an already running Chrome over the DevTools
// protocol and exposes the page operations used by the redirect URI setup.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// DefaultActionTimeout bounds a single page action.
const DefaultActionTimeout = 30 * time.Second

// Page is a DevTools session bound to one browser tab.
type Page struct {
	ctx      context.Context
	targetID target.ID
	timeout  time.Duration
	audit    *actionLogger

	cancels   []context.CancelFunc
	closeOnce sync.Once
}

// Options configures Attach.
type Options struct {
	// ActionTimeout bounds each page action. Zero means DefaultActionTimeout.
	ActionTimeout time.Duration
}

// Attach connects to the browser behind wsURL and binds to its first page
// tab, preferring one that already shows a real URL.
func Attach(ctx context.Context, wsURL string, opts Options) (*Page, error) {
	timeout := opts.ActionTimeout
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, wsURL, chromedp.NoModifyURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	p := &Page{
		timeout: timeout,
		audit:   newActionLogger(),
		cancels: []context.CancelFunc{browserCancel, allocCancel},
	}

	// chromedp binds the browser connection to the context of the first
	// call, so listing runs on browserCtx itself under a cancel guard.
	var targets []*target.Info
	err := guarded(timeout, browserCancel, func() error {
		var err error
		targets, err = chromedp.Targets(browserCtx)
		return err
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to connect to CDP at %s: %w", wsURL, err)
	}

	targetID, err := pickPageTarget(targets)
	if err != nil {
		p.Close()
		return nil, err
	}

	pageCtx, pageCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(targetID))
	p.cancels = append([]context.CancelFunc{pageCancel}, p.cancels...)
	p.ctx = pageCtx
	p.targetID = targetID

	// Likewise the tab's event loop lives on the context of the first Run.
	if err := guarded(timeout, pageCancel, func() error { return chromedp.Run(pageCtx) }); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to attach to page: %w", err)
	}

	p.audit.attached(targetID)
	return p, nil
}

// TargetID returns the id of the tab the page is bound to.
func (p *Page) TargetID() target.ID {
	return p.targetID
}

// Close closes the tab, asks the browser to shut down and drops the
// connection. Safe to call more than once.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		for _, cancel := range p.cancels {
			cancel()
		}
	})
	return nil
}

// guarded runs fn and calls cancel if it has not returned within timeout.
func guarded(timeout time.Duration, cancel context.CancelFunc, fn func() error) error {
	timer := time.AfterFunc(timeout, cancel)
	err := fn()
	if !timer.Stop() {
		return fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
	}
	return err
}

func (p *Page) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func pickPageTarget(targets []*target.Info) (target.ID, error) {
	var fallback *target.Info
	for _, info := range targets {
		if info == nil || info.Type != "page" {
			continue
		}
		if info.URL != "" && info.URL != "about:blank" && !strings.HasPrefix(info.URL, "chrome://") {
			return info.TargetID, nil
		}
		if fallback == nil {
			fallback = info
		}
	}
	if fallback != nil {
		return fallback.TargetID, nil
	}
	return "", errors.New("no page targets available")
}
