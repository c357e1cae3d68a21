// internal/browser/session_test.go
package browser_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/browser"
	"github.com/xkilldash9x/terminwatch/internal/config"
)

const formPage = `<!DOCTYPE html>
<html><head><title>Termin buchen</title></head>
<body>
<h1>Dienstleistung</h1>
<form action="/result" method="get">
  <label><input type="checkbox" name="all"> Alle Standorte auswählen</label>
  <input type="submit" id="appointment_submit" value="Weiter">
</form>
</body></html>`

const resultPage = `<!DOCTYPE html>
<html><head><title>Ergebnis</title></head>
<body><h1>Ergebnis</h1><p>Leider sind keine Termine für Ihre Auswahl verfügbar.</p></body></html>`

// findChrome returns a browser binary or skips the test.
func findChrome(t *testing.T) string {
	t.Helper()
	if p := os.Getenv("TERMINWATCH_BROWSER_EXEC_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary available, skipping browser integration test")
	return ""
}

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(formPage))
	})
	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(resultPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSession_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = findChrome(t)
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	m := browser.NewManager(cfg, zap.NewNop())
	lease, err := m.Acquire(ctx)
	require.NoError(t, err)
	defer func() { assert.NoError(t, lease.Release(context.Background())) }()

	require.NoError(t, lease.Load(ctx, srv.URL))

	title, err := lease.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Termin buchen", title)

	heading, err := lease.Find(ctx, browser.Query("h1"))
	require.NoError(t, err)

	_, err = lease.Find(ctx, browser.ID("does-not-exist"))
	assert.True(t, errors.Is(err, browser.ErrElementNotFound))

	label, err := lease.Find(ctx, browser.Label("Alle Standorte auswählen"))
	require.NoError(t, err)
	checked, err := lease.Checked(ctx, label)
	require.NoError(t, err)
	assert.False(t, checked)

	require.NoError(t, lease.ScrollIntoView(ctx, label))
	require.NoError(t, lease.Click(ctx, label))
	checked, err = lease.Checked(ctx, label)
	require.NoError(t, err)
	assert.True(t, checked)

	submit, err := lease.Find(ctx, browser.ID("appointment_submit"))
	require.NoError(t, err)
	clickable, err := lease.Clickable(ctx, submit)
	require.NoError(t, err)
	assert.True(t, clickable)

	stale, err := lease.Stale(ctx, heading)
	require.NoError(t, err)
	assert.False(t, stale)

	require.NoError(t, lease.Click(ctx, submit))
	assert.Eventually(t, func() bool {
		stale, err := lease.Stale(ctx, heading)
		return err == nil && stale
	}, 15*time.Second, 100*time.Millisecond, "heading should go stale after submit")

	require.Eventually(t, func() bool {
		body, err := lease.Find(ctx, browser.Tag("body"))
		if err != nil {
			return false
		}
		text, err := lease.Text(ctx, body)
		return err == nil && strings.Contains(text, "keine Termine")
	}, 15*time.Second, 100*time.Millisecond, "result page body should be readable")
}

func TestSession_ReleaseIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = findChrome(t)

	m := browser.NewManager(cfg, zap.NewNop())
	lease, err := m.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, lease.Release(context.Background()))
	assert.NoError(t, lease.Release(context.Background()), "second release is a no-op")

	_, err = lease.Title(context.Background())
	assert.Error(t, err, "a released session can no longer be driven")
}

func TestSession_OutlivesAcquireContext(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = findChrome(t)
	srv := newTestServer(t)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	lease, err := browser.NewManager(cfg, zap.NewNop()).Acquire(runCtx)
	require.NoError(t, err)
	defer func() { _ = lease.Release(context.Background()) }()

	require.NoError(t, lease.Load(runCtx, srv.URL))
	cancelRun()

	_, err = lease.Title(runCtx)
	assert.Error(t, err, "calls on the cancelled run context are aborted")

	// The browser is still up, so diagnostics on a detached context work.
	diagCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), 5*time.Second)
	defer cancel()
	title, err := lease.Title(diagCtx)
	require.NoError(t, err)
	assert.Equal(t, "Termin buchen", title)

	body, err := lease.Find(diagCtx, browser.Tag("body"))
	require.NoError(t, err)
	text, err := lease.Text(diagCtx, body)
	require.NoError(t, err)
	assert.Contains(t, text, "Alle Standorte")
}
