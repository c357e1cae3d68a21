// internal/browser/context_utils.go
package browser

import "context"

// CombineContext creates a new context derived from ctx1 (the session context)
// that is canceled when either ctx1 or ctx2 (the operational context) is done.
// Values come from ctx1 only, which is what chromedp needs: ctx1 carries the
// CDP target, ctx2 carries the step deadline.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancelCause(ctx1)

	stop := context.AfterFunc(ctx2, func() {
		cancel(context.Cause(ctx2))
	})

	return combinedCtx, func() {
		stop()
		cancel(context.Canceled)
	}
}
