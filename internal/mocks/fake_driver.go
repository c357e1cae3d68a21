// File: internal/mocks/fake_driver.go
package mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xkilldash9x/terminwatch/internal/browser"
)

// ErrPageNotFound is returned by FakeDriver.Load for URLs it has no page for.
var ErrPageNotFound = errors.New("fake: no page registered for url")

// FakeElement is a node of a FakePage. The locator fields that are set
// decide which strategies find it.
type FakeElement struct {
	Tag   string
	ID    string
	Query string
	Text  string

	Checked bool
	// Hidden and Disabled make the element unclickable.
	Hidden   bool
	Disabled bool
	// ChecksOnClick sets Checked when the element is clicked.
	ChecksOnClick bool
	// NavigatesTo loads the named page when the element is clicked.
	NavigatesTo string
	// AppearsAfter hides the element from Find for that many lookups.
	AppearsAfter int

	lookups int
}

// FakePage is one document.
type FakePage struct {
	Title    string
	Body     string
	Elements []*FakeElement
}

// FakeDriver is an in-memory browser.Lease. Each Load or navigating click
// replaces the current document; handles from an earlier document are stale.
type FakeDriver struct {
	mu sync.Mutex

	SessionID string
	Pages     map[string]*FakePage
	// Errors makes the named method fail with the given error.
	Errors map[string]error
	// PanicOn makes the named method panic.
	PanicOn string
	// BlockOn makes the named method block until its context is done.
	BlockOn string

	// session stands in for the browser's own lifetime. It ends on Release
	// and, after BindSession, with the bound context.
	session      context.Context
	closeSession context.CancelFunc

	current    *FakePage
	generation int
	calls      []string
	releases   int
}

type fakeHandle struct {
	loc        browser.Locator
	el         *FakeElement
	generation int
}

func (h *fakeHandle) Locator() browser.Locator { return h.loc }

var _ browser.Lease = (*FakeDriver)(nil)

// NewFakeDriver creates a driver serving pages, keyed by URL or page name.
func NewFakeDriver(pages map[string]*FakePage) *FakeDriver {
	session, closeSession := context.WithCancel(context.Background())
	return &FakeDriver{
		SessionID:    "fake-session",
		Pages:        pages,
		Errors:       map[string]error{},
		session:      session,
		closeSession: closeSession,
	}
}

// BindSession ties the fake browser's lifetime to parent, the way a browser
// launched on a caller's context dies with it.
func (d *FakeDriver) BindSession(parent context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	stop := context.AfterFunc(parent, d.closeSession)
	prev := d.closeSession
	d.closeSession = func() {
		stop()
		prev()
	}
}

// SessionClosed reports whether the fake browser is gone.
func (d *FakeDriver) SessionClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session != nil && d.session.Err() != nil
}

// enter records the call and applies the configured failure for method.
// It is called with d.mu held and may release it while blocking.
func (d *FakeDriver) enter(ctx context.Context, method string) error {
	d.calls = append(d.calls, method)
	if d.PanicOn == method {
		d.mu.Unlock()
		defer d.mu.Lock()
		panic(fmt.Sprintf("fake: %s exploded", method))
	}
	var closed <-chan struct{}
	if d.session != nil {
		closed = d.session.Done()
	}
	if d.BlockOn == method {
		d.mu.Unlock()
		select {
		case <-ctx.Done():
		case <-closed:
		}
		d.mu.Lock()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.session != nil && d.session.Err() != nil {
		return fmt.Errorf("fake: session closed: %w", d.session.Err())
	}
	return d.Errors[method]
}

func (d *FakeDriver) handle(el browser.Element) (*fakeHandle, error) {
	h, ok := el.(*fakeHandle)
	if !ok || h == nil {
		return nil, fmt.Errorf("fake: foreign element %v", el)
	}
	if h.generation != d.generation {
		return nil, fmt.Errorf("fake: stale element %s", h.loc)
	}
	return h, nil
}

func (d *FakeDriver) navigate(name string) error {
	page, ok := d.Pages[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, name)
	}
	d.current = page
	d.generation++
	return nil
}

func (d *FakeDriver) ID() string { return d.SessionID }

func (d *FakeDriver) Load(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Load"); err != nil {
		return err
	}
	return d.navigate(url)
}

func (d *FakeDriver) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Find"); err != nil {
		return nil, err
	}
	if d.current == nil {
		return nil, fmt.Errorf("%s: %w", loc, browser.ErrElementNotFound)
	}
	if loc.By == browser.ByTag && loc.Value == "body" {
		return &fakeHandle{loc: loc, el: &FakeElement{Tag: "body", Text: d.current.Body}, generation: d.generation}, nil
	}

	for _, el := range d.current.Elements {
		if !matches(el, loc) {
			continue
		}
		if el.lookups < el.AppearsAfter {
			el.lookups++
			continue
		}
		return &fakeHandle{loc: loc, el: el, generation: d.generation}, nil
	}
	return nil, fmt.Errorf("%s: %w", loc, browser.ErrElementNotFound)
}

func matches(el *FakeElement, loc browser.Locator) bool {
	switch loc.By {
	case browser.ByTag:
		return el.Tag == loc.Value
	case browser.ByID:
		return el.ID != "" && el.ID == loc.Value
	case browser.ByQuery:
		return el.Query == loc.Value || (el.Tag != "" && el.Tag == loc.Value)
	case browser.ByLabelText:
		return el.Tag == "label" && strings.Contains(el.Text, loc.Value)
	default:
		return false
	}
}

func (d *FakeDriver) ScrollIntoView(ctx context.Context, el browser.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "ScrollIntoView"); err != nil {
		return err
	}
	_, err := d.handle(el)
	return err
}

func (d *FakeDriver) Click(ctx context.Context, el browser.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Click"); err != nil {
		return err
	}
	h, err := d.handle(el)
	if err != nil {
		return err
	}
	if h.el.ChecksOnClick {
		h.el.Checked = true
	}
	if h.el.NavigatesTo != "" {
		return d.navigate(h.el.NavigatesTo)
	}
	return nil
}

func (d *FakeDriver) Checked(ctx context.Context, el browser.Element) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Checked"); err != nil {
		return false, err
	}
	h, err := d.handle(el)
	if err != nil {
		return false, err
	}
	return h.el.Checked, nil
}

func (d *FakeDriver) Clickable(ctx context.Context, el browser.Element) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Clickable"); err != nil {
		return false, err
	}
	h, err := d.handle(el)
	if err != nil {
		return false, err
	}
	return !h.el.Hidden && !h.el.Disabled, nil
}

func (d *FakeDriver) Stale(ctx context.Context, el browser.Element) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Stale"); err != nil {
		return false, err
	}
	h, ok := el.(*fakeHandle)
	if !ok || h == nil {
		return false, fmt.Errorf("fake: foreign element %v", el)
	}
	return h.generation != d.generation, nil
}

func (d *FakeDriver) Text(ctx context.Context, el browser.Element) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Text"); err != nil {
		return "", err
	}
	h, err := d.handle(el)
	if err != nil {
		return "", err
	}
	return h.el.Text, nil
}

func (d *FakeDriver) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "Title"); err != nil {
		return "", err
	}
	if d.current == nil {
		return "", nil
	}
	return d.current.Title, nil
}

// Release counts releases. Only the first has an effect.
func (d *FakeDriver) Release(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releases++
	if d.releases == 1 {
		d.current = nil
		d.generation++
		if d.closeSession != nil {
			d.closeSession()
		}
	}
	return nil
}

// Releases returns how many times Release was called.
func (d *FakeDriver) Releases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releases
}

// Calls returns the driver methods invoked so far, in order.
func (d *FakeDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Page names used by BookingSite.
const (
	BookingURL = "https://booking.test/dienstleistung/351180/"
	ResultPage = "result"
)

// BookingSite builds a fresh two-page booking flow whose result page shows
// resultBody. Every call returns independent pages.
func BookingSite(resultBody string) map[string]*FakePage {
	return map[string]*FakePage{
		BookingURL: {
			Title: "Termin buchen - Service Berlin",
			Body:  "Dienstleistung Anmeldung einer Wohnung Alle Standorte auswählen Weiter",
			Elements: []*FakeElement{
				{Tag: "h1", Text: "Anmeldung einer Wohnung"},
				{Tag: "label", Text: "Alle Standorte auswählen", ChecksOnClick: true},
				{Tag: "input", ID: "appointment_submit", Text: "Weiter", NavigatesTo: ResultPage},
			},
		},
		ResultPage: {
			Title: "Terminvereinbarung - Service Berlin",
			Body:  resultBody,
			Elements: []*FakeElement{
				{Tag: "h1", Text: "Terminvereinbarung"},
			},
		},
	}
}
