// Package steps implements the four pipeline step handlers. Each handler maps
// the current event to the next event plus exactly one outward Signal.
package steps

import (
	"errors"
	"fmt"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/event"
)

// Signal is the outcome of one step invocation, consumed by the workflow engine.
// Build it with Succeed or Fail.
type Signal struct {
	Event event.Event
	Err   error
}

// Succeed completes the invocation. The engine schedules Event.StepName next,
// if any.
func Succeed(ev event.Event) Signal {
	return Signal{Event: ev}
}

// Fail ends the invocation with err. ev is the event as it stood when the
// failure happened and is kept for logging only.
func Fail(ev event.Event, err error) Signal {
	if err == nil {
		err = ErrUnexpected
	}
	return Signal{Event: ev, Err: err}
}

// Failed reports whether the signal is a failure.
func (s Signal) Failed() bool {
	return s.Err != nil
}

// UnexpectedError is reported by the catch step. It has already been
// notified, so the state machine ends the execution on it without running
// catch_build again.
type UnexpectedError struct{}

func (e *UnexpectedError) Error() string { return "UnexpectedError" }

// ErrUnexpected is the catch step's failure.
var ErrUnexpected error = &UnexpectedError{}

// BuildInProgressError is the wait step's "not done yet" outcome. It travels
// on the failure channel because that is how the engine is told to retry, but
// it is not a pipeline failure. The engine matches it by type name.
type BuildInProgressError struct {
	BuildID string
}

func (e *BuildInProgressError) Error() string {
	return "Build status in progress"
}

// IsBuildInProgress reports whether err is the wait step's retry condition.
func IsBuildInProgress(err error) bool {
	var target *BuildInProgressError
	return errors.As(err, &target)
}

// StartBuildError carries the build service error from start_build. The
// message is the service error's own.
type StartBuildError struct {
	Err error
}

func (e *StartBuildError) Error() string { return e.Err.Error() }
func (e *StartBuildError) Unwrap() error { return e.Err }

// BuildFailedError reports a build that finished with a non-success status.
type BuildFailedError struct {
	Status codebuild.Status
	Logs   string
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("Codebuild Error: %s, %s", e.Status, e.Logs)
}
