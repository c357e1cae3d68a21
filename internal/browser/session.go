// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ensure Session implements the interface
var _ Lease = (*Session)(nil)

// closeGracePeriod bounds the polite Browser.close before the process is killed.
const closeGracePeriod = 5 * time.Second

// Session is one Chrome process with a single tab, driven over CDP.
type Session struct {
	id     string
	logger *zap.Logger

	// ctx is the tab context; every CDP call is derived from it.
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	pid         int32

	mu       sync.Mutex
	released bool
}

// remoteElement is a handle on a JS object in the page's execution context.
// The object dies with the document, which is how staleness is detected.
type remoteElement struct {
	loc      Locator
	objectID runtime.RemoteObjectID
}

func (e *remoteElement) Locator() Locator { return e.loc }

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PID returns the browser's process id, or 0 if it is unknown.
func (s *Session) PID() int32 { return s.pid }

// run executes actions on the tab, bounded by the operational context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) callOn(ctx context.Context, el Element, fn string, res interface{}) error {
	re, ok := el.(*remoteElement)
	if !ok || re == nil {
		return fmt.Errorf("element %v was not located by this session", el)
	}
	return s.run(ctx, chromedp.CallFunctionOn(fn, res,
		func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(re.objectID)
		},
	))
}

// Load navigates to url and waits for the load event.
func (s *Session) Load(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Find resolves loc against the current document without waiting.
func (s *Session) Find(ctx context.Context, loc Locator) (Element, error) {
	expr, err := findExpression(loc)
	if err != nil {
		return nil, err
	}

	var obj *runtime.RemoteObject
	if err := s.run(ctx, chromedp.Evaluate(expr, &obj)); err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", loc, err)
	}
	if obj == nil || obj.ObjectID == "" {
		return nil, fmt.Errorf("%s: %w", loc, ErrElementNotFound)
	}
	return &remoteElement{loc: loc, objectID: obj.ObjectID}, nil
}

// ScrollIntoView centers el in the viewport.
func (s *Session) ScrollIntoView(ctx context.Context, el Element) error {
	if err := s.callOn(ctx, el, jsScrollIntoView, nil); err != nil {
		return fmt.Errorf("failed to scroll %s into view: %w", el.Locator(), err)
	}
	return nil
}

// Click calls el.click() in the page. Unlike a synthesized pointer event this
// does not depend on layout or overlapping elements.
func (s *Session) Click(ctx context.Context, el Element) error {
	if err := s.callOn(ctx, el, jsClick, nil); err != nil {
		return fmt.Errorf("failed to click %s: %w", el.Locator(), err)
	}
	return nil
}

// Checked reports whether el, or the control it labels, is checked.
func (s *Session) Checked(ctx context.Context, el Element) (bool, error) {
	var checked bool
	if err := s.callOn(ctx, el, jsChecked, &checked); err != nil {
		return false, fmt.Errorf("failed to read checked state of %s: %w", el.Locator(), err)
	}
	return checked, nil
}

// Clickable reports whether el is displayed, sized and enabled.
func (s *Session) Clickable(ctx context.Context, el Element) (bool, error) {
	var clickable bool
	if err := s.callOn(ctx, el, jsClickable, &clickable); err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", el.Locator(), err)
	}
	return clickable, nil
}

// Stale reports whether el left the document. A handle whose execution
// context was destroyed by a navigation is stale as well.
func (s *Session) Stale(ctx context.Context, el Element) (bool, error) {
	var connected bool
	err := s.callOn(ctx, el, jsIsConnected, &connected)
	if err == nil {
		return !connected, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if s.ctx.Err() != nil {
		return false, fmt.Errorf("session closed: %w", s.ctx.Err())
	}
	s.logger.Debug("Element handle no longer resolvable, treating as stale.",
		zap.Stringer("locator", el.Locator()), zap.Error(err))
	return true, nil
}

// Text returns the rendered text of el.
func (s *Session) Text(ctx context.Context, el Element) (string, error) {
	var text string
	if err := s.callOn(ctx, el, jsText, &text); err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", el.Locator(), err)
	}
	return text, nil
}

// Title returns the document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

// Release closes the tab, terminates the browser and kills whatever part of
// its process tree survived. Only the first call does anything.
func (s *Session) Release(ctx context.Context) error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.mu.Unlock()

	// Snapshot the tree first; killing the root reparents the children.
	tree := descendants(ctx, s.pid)

	closeCtx, cancel := context.WithTimeout(ctx, closeGracePeriod)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()

	var closeErr error
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			closeErr = err
		}
	case <-closeCtx.Done():
		s.logger.Warn("Browser did not close in time, killing it.", zap.Duration("grace", closeGracePeriod))
	}

	// Cancelling the allocator kills the process and waits for it to exit.
	s.cancelTab()
	s.cancelAlloc()

	killed := terminate(context.WithoutCancel(ctx), tree, s.logger)
	if killed > 0 {
		s.logger.Warn("Killed leftover browser processes.", zap.Int("count", killed))
	}

	s.logger.Info("Browser session released.", zap.Int32("pid", s.pid))
	if closeErr != nil {
		return fmt.Errorf("failed to close browser gracefully: %w", closeErr)
	}
	return nil
}
