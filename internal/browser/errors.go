// internal/browser/errors.go
package browser

import "fmt"

// EnvironmentError reports that a browser session could not be created at
// all: the binary is missing, its version does not speak the protocol, the
// sandbox refused to start, or startup timed out. It is not retried.
type EnvironmentError struct {
	Op  string
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("browser environment error during %s: %v", e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }
