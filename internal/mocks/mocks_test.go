// internal/mocks/mocks_test.go
package mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/terminwatch/internal/browser"
)

func TestFakeDriver_BookingFlow(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver(BookingSite("keine Termine"))

	require.NoError(t, d.Load(ctx, BookingURL))
	title, err := d.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Termin buchen - Service Berlin", title)

	heading, err := d.Find(ctx, browser.Query("h1"))
	require.NoError(t, err)

	label, err := d.Find(ctx, browser.Label("Alle Standorte"))
	require.NoError(t, err)
	checked, err := d.Checked(ctx, label)
	require.NoError(t, err)
	assert.False(t, checked)
	require.NoError(t, d.Click(ctx, label))
	checked, err = d.Checked(ctx, label)
	require.NoError(t, err)
	assert.True(t, checked)

	submit, err := d.Find(ctx, browser.ID("appointment_submit"))
	require.NoError(t, err)
	require.NoError(t, d.Click(ctx, submit))

	stale, err := d.Stale(ctx, heading)
	require.NoError(t, err)
	assert.True(t, stale, "navigation replaces the document")

	_, err = d.Text(ctx, heading)
	assert.Error(t, err, "stale handles cannot be read")

	body, err := d.Find(ctx, browser.Tag("body"))
	require.NoError(t, err)
	text, err := d.Text(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, "keine Termine", text)
}

func TestFakeDriver_FindMissing(t *testing.T) {
	d := NewFakeDriver(BookingSite(""))
	_, err := d.Find(context.Background(), browser.ID("x"))
	assert.True(t, errors.Is(err, browser.ErrElementNotFound), "nothing loaded yet")

	require.NoError(t, d.Load(context.Background(), BookingURL))
	_, err = d.Find(context.Background(), browser.ID("x"))
	assert.True(t, errors.Is(err, browser.ErrElementNotFound))

	err = d.Load(context.Background(), "https://elsewhere.test/")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestFakeDriver_AppearsAfter(t *testing.T) {
	pages := map[string]*FakePage{"p": {Elements: []*FakeElement{{Tag: "h1", AppearsAfter: 2}}}}
	d := NewFakeDriver(pages)
	require.NoError(t, d.Load(context.Background(), "p"))

	for i := 0; i < 2; i++ {
		_, err := d.Find(context.Background(), browser.Tag("h1"))
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	}
	_, err := d.Find(context.Background(), browser.Tag("h1"))
	assert.NoError(t, err)
}

func TestFakeDriver_FailureHooks(t *testing.T) {
	d := NewFakeDriver(BookingSite(""))
	d.Errors["Load"] = errors.New("net::ERR_CONNECTION_RESET")
	assert.EqualError(t, d.Load(context.Background(), BookingURL), "net::ERR_CONNECTION_RESET")

	d.PanicOn = "Title"
	assert.Panics(t, func() { _, _ = d.Title(context.Background()) })

	// The lock must be usable again after the panic.
	d.PanicOn = ""
	_, err := d.Title(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"Load", "Title", "Title"}, d.Calls())
}

func TestFakeDriver_ReleaseCounts(t *testing.T) {
	d := NewFakeDriver(BookingSite(""))
	require.NoError(t, d.Release(context.Background()))
	require.NoError(t, d.Release(context.Background()))
	assert.Equal(t, 2, d.Releases())
}

func TestMockAcquirer(t *testing.T) {
	m := new(MockAcquirer)
	fake := NewFakeDriver(nil)
	m.On("Acquire", context.Background()).Return(fake, nil).Once()

	lease, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, fake, lease)
	m.AssertExpectations(t)

	failing := new(MockAcquirer)
	failing.On("Acquire", context.Background()).Return(nil, errors.New("no chrome"))
	lease, err = failing.Acquire(context.Background())
	assert.Nil(t, lease)
	assert.EqualError(t, err, "no chrome")
}

func TestFakeDriver_SessionLifetime(t *testing.T) {
	t.Run("independent of call contexts until release", func(t *testing.T) {
		d := NewFakeDriver(BookingSite(""))
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, d.Load(ctx, BookingURL))
		cancel()

		_, err := d.Title(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		title, err := d.Title(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, title)

		require.NoError(t, d.Release(context.Background()))
		assert.True(t, d.SessionClosed())
		_, err = d.Title(context.Background())
		assert.ErrorContains(t, err, "session closed")
	})

	t.Run("bound session ends with its parent", func(t *testing.T) {
		d := NewFakeDriver(BookingSite(""))
		parent, cancel := context.WithCancel(context.Background())
		d.BindSession(parent)
		require.NoError(t, d.Load(context.Background(), BookingURL))

		cancel()
		assert.Eventually(t, d.SessionClosed, time.Second, time.Millisecond)
		_, err := d.Title(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
