// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/config"
)

// Manager launches one isolated browser process per acquisition.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewManager creates a browser manager. Nothing is started until Acquire.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("browser_manager"),
	}
}

// Acquire starts a fresh browser and returns it with no page loaded. Any
// failure to bring the browser up is an *EnvironmentError; in that case there
// is nothing to release. If ctx ends before the browser is up, the returned
// error wraps the context error instead.
//
// The browser outlives ctx: cancelling ctx later aborts whatever call is in
// flight, but the process stays up until Release.
func (m *Manager) Acquire(ctx context.Context) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("browser launch cancelled: %w", context.Cause(ctx))
	}

	id := uuid.New().String()
	log := m.logger.With(zap.String("session_id", id[:8]))
	log.Info("Launching browser.",
		zap.Bool("headless", m.cfg.Headless),
		zap.Int("width", m.cfg.Viewport.Width),
		zap.Int("height", m.cfg.Viewport.Height),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), AllocatorOptions(m.cfg)...)

	// chromedp's own logging is chatty and mostly protocol noise.
	sugar := log.Named("cdp").Sugar()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	// The first Run allocates the browser and ties it to tabCtx. It must not
	// get a deadline of its own or the browser would die with it, so the
	// startup timeout is enforced from the outside.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(m.startupTimeout())
	defer timer.Stop()

	var err error
	select {
	case err = <-started:
	case <-timer.C:
		err = fmt.Errorf("browser did not start within %s", m.startupTimeout())
	case <-ctx.Done():
		cancelTab()
		cancelAlloc()
		log.Info("Browser launch cancelled.")
		return nil, fmt.Errorf("browser launch cancelled: %w", context.Cause(ctx))
	}
	if err != nil {
		cancelTab()
		cancelAlloc()
		log.Error("Failed to start browser.", zap.Error(err))
		return nil, &EnvironmentError{Op: "launch", Err: err}
	}

	var pid int32
	if c := chromedp.FromContext(tabCtx); c != nil && c.Browser != nil {
		if p := c.Browser.Process(); p != nil {
			pid = int32(p.Pid)
		}
	}

	log.Info("Browser launched.", zap.Int32("pid", pid))
	return &Session{
		id:          id,
		logger:      log,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		pid:         pid,
	}, nil
}

func (m *Manager) startupTimeout() time.Duration {
	if m.cfg.StartupTimeout > 0 {
		return m.cfg.StartupTimeout
	}
	return 30 * time.Second
}
