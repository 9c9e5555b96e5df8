// File: internal/browser/cdp/cdp.go
// The Chrome driver. It implements browser.Driver on top of chromedp,
// launching a real Chrome process and addressing elements by XPath so the
// same selectors the answer engine derives from snapshots resolve in the
// live page.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/karavolt/surveyor-cli/internal/browser"
	"github.com/karavolt/surveyor-cli/internal/config"
)

const actionTimeout = 15 * time.Second

// Session is the chromedp-backed driver. It owns the allocator and the tab
// context and implements browser.Driver.
type Session struct {
	logger      *zap.Logger
	browserCtx  context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
	postLoad    time.Duration
}

var _ browser.Driver = (*Session)(nil)

// New launches a Chrome instance and opens a single tab. The returned
// session must be Closed to release the browser process.
func New(ctx context.Context, bcfg config.BrowserConfig, ncfg config.NetworkConfig, logger *zap.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", bcfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(bcfg.WindowWidth, bcfg.WindowHeight),
	)
	if bcfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if bcfg.BinaryPath != "" {
		opts = append(opts, chromedp.ExecPath(bcfg.BinaryPath))
	}
	if bcfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(bcfg.UserDataDir))
	}
	if ncfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(ncfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first navigation.
	startCtx, cancel := context.WithTimeout(tabCtx, ncfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", browser.ErrSessionStart, err)
	}

	logger.Info("Chrome session started",
		zap.Bool("headless", bcfg.Headless),
		zap.String("user_data_dir", bcfg.UserDataDir))

	return &Session{
		logger:      logger.With(zap.String("driver", "cdp")),
		browserCtx:  tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		navTimeout:  ncfg.NavigationTimeout,
		postLoad:    ncfg.PostLoadWait,
	}, nil
}

// run executes actions against the tab, bounded by the given timeout and
// abandoned early if the caller's context is cancelled.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the URL and waits for the document plus a settle period so
// script-rendered forms are present before the first snapshot.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))
	err := s.run(ctx, s.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.postLoad),
	)
	if err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	return nil
}

// pageSourceScript serializes the live DOM with the checked, selected and
// value properties mirrored back into content attributes first. Clicks and
// keystrokes change only the properties, so a plain outerHTML snapshot
// would still show the page as originally served.
const pageSourceScript = `(() => {
	for (const el of document.querySelectorAll('input')) {
		const kind = (el.getAttribute('type') || 'text').toLowerCase();
		if (kind === 'checkbox' || kind === 'radio') {
			if (el.checked) el.setAttribute('checked', 'checked');
			else el.removeAttribute('checked');
		} else {
			el.setAttribute('value', el.value);
		}
	}
	for (const el of document.querySelectorAll('textarea')) {
		if (el.textContent !== el.value) el.textContent = el.value;
	}
	for (const el of document.querySelectorAll('option')) {
		if (el.selected) el.setAttribute('selected', 'selected');
		else el.removeAttribute('selected');
	}
	return document.documentElement.outerHTML;
})()`

// PageSource returns the serialized live DOM, not the original response
// body, so dynamically inserted controls and the session's own edits are
// visible to the parser.
func (s *Session) PageSource(ctx context.Context) (io.Reader, error) {
	var source string
	err := s.run(ctx, actionTimeout, chromedp.Evaluate(pageSourceScript, &source))
	if err != nil {
		return nil, fmt.Errorf("failed to capture page source: %w", err)
	}
	return strings.NewReader(source), nil
}

// Click performs a direct element click by XPath.
func (s *Session) Click(ctx context.Context, xpath string) error {
	err := s.run(ctx, actionTimeout,
		chromedp.Click(xpath, chromedp.BySearch),
	)
	if err != nil {
		return s.wrapElementErr(xpath, err)
	}
	return nil
}

// PointerClick clicks at the element's viewport center with raw mouse
// events, for controls whose hit target is an overlay rather than the
// element itself.
func (s *Session) PointerClick(ctx context.Context, xpath string) error {
	var center []float64
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return null;
		el.scrollIntoView({block: 'center', inline: 'center'});
		const r = el.getBoundingClientRect();
		return [r.left + r.width / 2, r.top + r.height / 2];
	})()`, strconv.Quote(xpath))

	err := s.run(ctx, actionTimeout, chromedp.Evaluate(script, &center))
	if err != nil {
		return fmt.Errorf("failed to locate %q for pointer click: %w", xpath, err)
	}
	if len(center) != 2 {
		return fmt.Errorf("%q: %w", xpath, browser.ErrNoElement)
	}

	x, y := center[0], center[1]
	return s.run(ctx, actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		move := input.DispatchMouseEvent(input.MouseMoved, x, y)
		if err := move.Do(ctx); err != nil {
			return err
		}
		press := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).
			WithClickCount(1)
		if err := press.Do(ctx); err != nil {
			return err
		}
		release := input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).
			WithClickCount(1)
		return release.Do(ctx)
	}))
}

// ScrollIntoView centers the element in the viewport.
func (s *Session) ScrollIntoView(ctx context.Context, xpath string) error {
	err := s.run(ctx, actionTimeout,
		chromedp.ScrollIntoView(xpath, chromedp.BySearch),
	)
	if err != nil {
		return s.wrapElementErr(xpath, err)
	}
	return nil
}

// DispatchClickEvents fires the full synthetic mouse event sequence on the
// element. Handlers bound to intermediate events (mousedown validation,
// hover-revealed targets) see the same order a real pointer produces.
func (s *Session) DispatchClickEvents(ctx context.Context, xpath string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		for (const type of ['mouseover', 'mousemove', 'mousedown', 'mouseup', 'click']) {
			el.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
		}
		return true;
	})()`, strconv.Quote(xpath))

	var hit bool
	err := s.run(ctx, actionTimeout, chromedp.Evaluate(script, &hit))
	if err != nil {
		return fmt.Errorf("failed to dispatch click events on %q: %w", xpath, err)
	}
	if !hit {
		return fmt.Errorf("%q: %w", xpath, browser.ErrNoElement)
	}
	return nil
}

// TypeText sends keystrokes to the element.
func (s *Session) TypeText(ctx context.Context, xpath, text string) error {
	err := s.run(ctx, actionTimeout,
		chromedp.SendKeys(xpath, text, chromedp.BySearch),
	)
	if err != nil {
		return s.wrapElementErr(xpath, err)
	}
	return nil
}

// Clear empties the element's value and notifies listeners.
func (s *Session) Clear(ctx context.Context, xpath string) error {
	err := s.run(ctx, actionTimeout,
		chromedp.SetValue(xpath, "", chromedp.BySearch),
	)
	if err != nil {
		return s.wrapElementErr(xpath, err)
	}
	return nil
}

// selectOptionScript builds the selection script. Assigning el.value on a
// multi-select first deselects every option, so the multiple path flips the
// matching option's selected property and leaves the rest alone.
func selectOptionScript(xpath, value string) string {
	return fmt.Sprintf(`(() => {
		const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		const value = %s;
		if (el.multiple) {
			const opt = Array.from(el.options).find(o => o.value === value);
			if (!opt) return false;
			opt.selected = true;
		} else {
			el.value = value;
		}
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, strconv.Quote(xpath), strconv.Quote(value))
}

// SelectOption commits one option and fires input/change events, which
// SetValue alone does not do for framework-bound selects. On multi-selects
// the commit is additive.
func (s *Session) SelectOption(ctx context.Context, xpath, value string) error {
	var hit bool
	err := s.run(ctx, actionTimeout, chromedp.Evaluate(selectOptionScript(xpath, value), &hit))
	if err != nil {
		return fmt.Errorf("failed to select option on %q: %w", xpath, err)
	}
	if !hit {
		return fmt.Errorf("%q: %w", xpath, browser.ErrNoElement)
	}
	return nil
}

// Close shuts down the tab and the browser process. chromedp.Cancel blocks
// until Chrome exits gracefully, so it runs under the caller's deadline.
func (s *Session) Close(ctx context.Context) error {
	s.logger.Debug("Closing Chrome session")

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Cancel(s.browserCtx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		s.logger.Warn("Timeout waiting for graceful browser shutdown, forcing exit")
		s.cancelTab()
		err = ctx.Err()
	}
	s.cancelAlloc()
	return err
}

func (s *Session) wrapElementErr(xpath string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%q: %w", xpath, browser.ErrNoElement)
	}
	return fmt.Errorf("action on %q failed: %w", xpath, err)
}
