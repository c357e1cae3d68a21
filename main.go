// ./main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/terminwatch/cmd"
	"github.com/xkilldash9x/terminwatch/internal/observability"
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

// main is the entry point for the terminwatch CLI.
func main() {
	defer handlePanic()

	// SIGINT and SIGTERM cancel the check; the browser is still released.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()

	observability.Sync()
	osExit(code)
}

// handlePanic reports a crash outside the check itself and exits with the
// usage status, never with the "found" status.
func handlePanic() {
	if r := recover(); r != nil {
		observability.Sync()
		fmt.Fprintf(os.Stderr, "panic: %v\n\n%s\n", r, debug.Stack())
		osExit(cmd.ExitUsage)
	}
}
