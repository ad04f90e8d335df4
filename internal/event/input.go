package event

import (
	"fmt"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
)

// MissingFieldError reports an event that lacks a field its step requires.
type MissingFieldError struct {
	Step  Step
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Step, e.Field)
}

// StartInput is what start_build reads from the event.
type StartInput struct {
	Config []EnvVar
}

// WaitInput is what wait_for_build reads from the event.
type WaitInput struct {
	BuildID string
}

// EndInput is what end_build reads from the event.
type EndInput struct {
	BuildStatus codebuild.Status
	// BuildLogs may be empty.
	BuildLogs string
}

func (e Event) StartInput() StartInput {
	return StartInput{Config: e.Config}
}

func (e Event) WaitInput() (WaitInput, error) {
	if e.BuildID == "" {
		return WaitInput{}, &MissingFieldError{Step: StepWait, Field: "buildId"}
	}
	return WaitInput{BuildID: e.BuildID}, nil
}

func (e Event) EndInput() (EndInput, error) {
	if e.BuildStatus == "" {
		return EndInput{}, &MissingFieldError{Step: StepEnd, Field: "buildStatus"}
	}
	return EndInput{
		BuildStatus: codebuild.Status(e.BuildStatus),
		BuildLogs:   e.BuildLogs,
	}, nil
}
