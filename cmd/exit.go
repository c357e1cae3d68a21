package cmd

import (
	"fmt"

	"github.com/xkilldash9x/terminwatch/internal/probe"
)

// Process exit statuses. A found appointment is deliberately the only
// "failure", so a scheduler's alert-on-failure doubles as the notification.
const (
	ExitOK    = 0
	ExitFound = 1
	ExitUsage = 2
)

// ExitCodeError carries the exit status a command wants. Err may be nil when
// the status is the whole message.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error { return e.Err }

// exitCodeFor maps a classification to the process exit status. Environment
// failures use envCode, which defaults to 0.
func exitCodeFor(c probe.Classification, envCode int) int {
	switch {
	case c.Outcome == probe.AppointmentFound:
		return ExitFound
	case c.EnvironmentFailure():
		return envCode
	default:
		return ExitOK
	}
}

// resultError turns a non-zero exit status into a silent command error.
func resultError(code int) error {
	if code == ExitOK {
		return nil
	}
	return &ExitCodeError{Code: code}
}
