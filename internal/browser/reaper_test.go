// internal/browser/reaper_test.go
package browser

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDescendants_InvalidPID(t *testing.T) {
	assert.Empty(t, descendants(context.Background(), 0))
	assert.Empty(t, descendants(context.Background(), -1))
}

func TestTerminate_KillsProcessTree(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process tree test relies on sh")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	ctx := context.Background()
	cmd := exec.Command(sh, "-c", "sleep 30 & sleep 30 & wait")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	pid := int32(cmd.Process.Pid)
	var tree []*process.Process
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); time.Sleep(20 * time.Millisecond) {
		if tree = descendants(ctx, pid); len(tree) >= 2 {
			break
		}
	}
	if len(tree) < 2 {
		t.Skip("child processes are not observable on this system")
	}

	killed := terminate(ctx, tree, zaptest.NewLogger(t))
	assert.Equal(t, len(tree), killed)

	// With its children gone the shell's wait returns.
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("shell did not exit after its children were killed")
	}

	// Nothing left to kill the second time round.
	assert.Zero(t, terminate(ctx, tree, zaptest.NewLogger(t)))
}
