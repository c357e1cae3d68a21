package probe

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/browser"
)

const defaultReleaseTimeout = 15 * time.Second

// Acquirer hands out browser sessions. *browser.Manager implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (browser.Lease, error)
}

// Checker performs one complete check: acquire a session, run the engine,
// release the session on every exit path.
type Checker struct {
	acquirer       Acquirer
	engine         *Engine
	logger         *zap.Logger
	releaseTimeout time.Duration
}

func NewChecker(acquirer Acquirer, engine *Engine, logger *zap.Logger) *Checker {
	return &Checker{
		acquirer:       acquirer,
		engine:         engine,
		logger:         logger.Named("checker"),
		releaseTimeout: defaultReleaseTimeout,
	}
}

// Check runs a single check. It never returns an error; environment
// failures come back as IndeterminateError with KindEnvironment, a launch
// interrupted by ctx as IndeterminateError with KindUnexpected.
func (c *Checker) Check(ctx context.Context) Classification {
	started := time.Now()
	lease, err := c.acquirer.Acquire(ctx)
	if err != nil {
		se := stepError(StateAcquire, err)
		if se.Kind == KindEnvironment {
			c.logger.Error("ENVIRONMENT ERROR: could not start a browser session, no check was performed. "+
				"This is reported like \"no appointment\" unless check.environment_error_exit_code is set.",
				zap.Error(err))
		} else {
			c.logger.Warn("Browser session was not acquired, no check was performed.", zap.Error(err))
		}
		return Classification{
			Outcome: IndeterminateError,
			State:   StateAcquire,
			Diagnostic: &Diagnostic{
				Kind:  se.Kind,
				State: StateAcquire,
				Err:   err,
				Error: err.Error(),
			},
			RunID:      uuid.NewString(),
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
	}

	defer func() {
		// Release must run even when ctx is already cancelled.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.releaseTimeout)
		defer cancel()
		if err := lease.Release(rctx); err != nil {
			c.logger.Warn("Browser session release reported an error.", zap.String("session_id", lease.ID()), zap.Error(err))
		}
	}()

	c.logger.Debug("Browser session acquired.", zap.String("session_id", lease.ID()))
	return c.engine.Run(ctx, lease)
}
