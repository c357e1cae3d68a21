// internal/browser/manager_test.go
package browser_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/browser"
	"github.com/xkilldash9x/terminwatch/internal/config"
)

func TestManager_AcquireMissingBinary(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")
	cfg.StartupTimeout = 5 * time.Second

	m := browser.NewManager(cfg, zap.NewNop())
	lease, err := m.Acquire(context.Background())

	require.Error(t, err)
	assert.Nil(t, lease, "a failed acquire must not hand out a lease")

	var envErr *browser.EnvironmentError
	require.True(t, errors.As(err, &envErr), "expected EnvironmentError, got %T", err)
	assert.Equal(t, "launch", envErr.Op)
	assert.Contains(t, err.Error(), "browser environment error")
}

func TestEnvironmentError_Unwrap(t *testing.T) {
	cause := errors.New("exec: not found")
	err := &browser.EnvironmentError{Op: "launch", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "browser environment error during launch: exec: not found", err.Error())
}

func TestManager_AcquireCancelledIsNotEnvironmentError(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lease, err := browser.NewManager(cfg, zap.NewNop()).Acquire(ctx)

	require.Error(t, err)
	assert.Nil(t, lease)
	assert.ErrorIs(t, err, context.Canceled)
	var envErr *browser.EnvironmentError
	assert.False(t, errors.As(err, &envErr), "an interrupted launch says nothing about the environment")
}
