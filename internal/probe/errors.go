package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/terminwatch/internal/browser"
)

// FailureKind classifies why a run ended in IndeterminateError.
type FailureKind string

const (
	KindEnvironment             FailureKind = "environment"
	KindNavigationTimeout       FailureKind = "navigation_timeout"
	KindElementNotFound         FailureKind = "element_not_found"
	KindClassificationAmbiguous FailureKind = "classification_ambiguous"
	KindUnexpected              FailureKind = "unexpected"
)

// Sentinel errors for step failures.
var (
	ErrNavigationTimeout       = errors.New("navigation timeout")
	ErrClassificationAmbiguous = errors.New("classification ambiguous")
)

// StepError is a failure while trying to leave State.
type StepError struct {
	State State
	Kind  FailureKind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed (%s): %v", e.State, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// stepError wraps err for state, deriving the kind from the cause.
func stepError(state State, err error) *StepError {
	var se *StepError
	if errors.As(err, &se) {
		return se
	}
	return &StepError{State: state, Kind: kindOf(err), Err: err}
}

func kindOf(err error) FailureKind {
	var envErr *browser.EnvironmentError
	switch {
	case errors.As(err, &envErr):
		return KindEnvironment
	case errors.Is(err, browser.ErrElementNotFound):
		return KindElementNotFound
	case errors.Is(err, ErrNavigationTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindNavigationTimeout
	case errors.Is(err, ErrClassificationAmbiguous):
		return KindClassificationAmbiguous
	default:
		return KindUnexpected
	}
}
