// internal/browser/reaper.go
package browser

import (
	"context"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// descendants walks the process tree below pid breadth first. It has to run
// before the root is killed: orphans get reparented and drop out of the tree.
func descendants(ctx context.Context, pid int32) []*process.Process {
	if pid <= 0 {
		return nil
	}
	root, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil
	}

	var out []*process.Process
	queue := []*process.Process{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := current.ChildrenWithContext(ctx)
		if err != nil {
			// ErrorNoChildren, or the process exited while we were walking.
			continue
		}
		out = append(out, children...)
		queue = append(queue, children...)
	}
	return out
}

// terminate kills every process in procs that is still running and returns
// how many were killed. IsRunning compares creation times, so a recycled PID
// is never hit.
func terminate(ctx context.Context, procs []*process.Process, logger *zap.Logger) int {
	killed := 0
	for _, p := range procs {
		running, err := p.IsRunningWithContext(ctx)
		if err != nil || !running {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			logger.Warn("Failed to kill leftover browser process.", zap.Int32("pid", p.Pid), zap.Error(err))
			continue
		}
		killed++
	}
	return killed
}
