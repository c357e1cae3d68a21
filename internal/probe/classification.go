// Package probe drives the booking form through its fixed sequence of steps
// and classifies the page it ends on.
package probe

import "time"

// Outcome is the three-way result of one check.
type Outcome string

const (
	AppointmentFound   Outcome = "AppointmentFound"
	NoAppointment      Outcome = "NoAppointment"
	IndeterminateError Outcome = "IndeterminateError"
)

// State names a step of the navigation sequence.
type State string

const (
	// StateAcquire is reported when no browser session could be created.
	StateAcquire           State = "Acquire"
	StateStart             State = "Start"
	StateLocationsSelected State = "LocationsSelected"
	StateSubmitted         State = "Submitted"
	StateResultReady       State = "ResultReady"
	StateClassified        State = "Classified"
)

// Classification is the single result of one engine run. It is returned by
// value and never mutated afterwards.
type Classification struct {
	Outcome Outcome `json:"outcome"`
	// State is the last state reached. For failures it is the state whose
	// exit condition was not met.
	State State `json:"state"`
	// Signature is the failure signature that matched, for NoAppointment.
	Signature  string      `json:"signature,omitempty"`
	Title      string      `json:"title,omitempty"`
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Diagnostic describes why a run ended in IndeterminateError.
type Diagnostic struct {
	Kind    FailureKind `json:"kind"`
	State   State       `json:"state"`
	Err     error       `json:"-"`
	Error   string      `json:"error"`
	Title   string      `json:"title,omitempty"`
	Excerpt string      `json:"excerpt,omitempty"`
}

// Duration is the wall time the run took.
func (c Classification) Duration() time.Duration {
	if c.FinishedAt.IsZero() {
		return 0
	}
	return c.FinishedAt.Sub(c.StartedAt)
}

// Notify reports whether the result should alert an operator. Only a
// possible appointment does; errors are deliberately reported as quiet.
func (c Classification) Notify() bool { return c.Outcome == AppointmentFound }

// EnvironmentFailure reports whether the check never ran because the browser
// could not be started.
func (c Classification) EnvironmentFailure() bool {
	return c.Outcome == IndeterminateError && c.Diagnostic != nil && c.Diagnostic.Kind == KindEnvironment
}
