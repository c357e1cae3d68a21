// internal/browser/driver.go
package browser

import (
	"context"
	"errors"
	"fmt"
)

// ErrElementNotFound is returned by Driver.Find when no element matches the locator.
var ErrElementNotFound = errors.New("element not found")

// Strategy selects how a Locator is resolved against the document.
type Strategy int

const (
	// ByTag matches the first element with the given tag name.
	ByTag Strategy = iota
	// ByID matches the element with the given id attribute.
	ByID
	// ByQuery matches the first element for a CSS selector.
	ByQuery
	// ByLabelText matches the first <label> whose text content contains the value.
	ByLabelText
)

func (s Strategy) String() string {
	switch s {
	case ByTag:
		return "tag"
	case ByID:
		return "id"
	case ByQuery:
		return "query"
	case ByLabelText:
		return "label"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Locator identifies an element on the current page.
type Locator struct {
	By    Strategy
	Value string
}

// Tag locates the first element with the given tag name.
func Tag(name string) Locator { return Locator{By: ByTag, Value: name} }

// ID locates an element by its id attribute.
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// Query locates the first element matching a CSS selector.
func Query(selector string) Locator { return Locator{By: ByQuery, Value: selector} }

// Label locates a <label> by (a substring of) its visible text.
func Label(text string) Locator { return Locator{By: ByLabelText, Value: text} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.By, l.Value)
}

// Element is an opaque reference to a node in the document that was loaded
// when it was found. It goes stale once that document is replaced.
type Element interface {
	Locator() Locator
}

// Driver is the browser capability the probe depends on. Find never waits:
// callers poll it themselves.
type Driver interface {
	// Load navigates the session to url.
	Load(ctx context.Context, url string) error
	// Find returns the first element matching loc, or ErrElementNotFound.
	Find(ctx context.Context, loc Locator) (Element, error)
	// ScrollIntoView centers el in the viewport.
	ScrollIntoView(ctx context.Context, el Element) error
	// Click invokes el.click() from script rather than simulating a pointer.
	Click(ctx context.Context, el Element) error
	// Checked reports whether el, or the form control it labels, is checked.
	Checked(ctx context.Context, el Element) (bool, error)
	// Clickable reports whether el is rendered and enabled.
	Clickable(ctx context.Context, el Element) (bool, error)
	// Stale reports whether el is no longer attached to the current document.
	Stale(ctx context.Context, el Element) (bool, error)
	// Text returns the rendered text of el.
	Text(ctx context.Context, el Element) (string, error)
	// Title returns the current document title.
	Title(ctx context.Context) (string, error)
}

// Lease is a Driver bound to a browser instance that must be released.
type Lease interface {
	Driver
	// ID identifies the session in logs.
	ID() string
	// Release terminates the browser. Calling it more than once is a no-op.
	Release(ctx context.Context) error
}
