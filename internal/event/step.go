package event

import "fmt"

// Step is one of the fixed pipeline steps.
type Step int

const (
	StepStart Step = iota
	StepWait
	StepEnd
	StepCatch
)

// Steps lists every step in pipeline order.
var Steps = []Step{StepStart, StepWait, StepEnd, StepCatch}

// String returns the wire name used in step_name.
func (s Step) String() string {
	switch s {
	case StepStart:
		return "start_build"
	case StepWait:
		return "wait_for_build"
	case StepEnd:
		return "end_build"
	case StepCatch:
		return "catch_build"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// MissingStepError reports a step_name that names no handler.
// The message format is matched by existing callers; keep it stable.
type MissingStepError struct {
	Name string
}

func (e *MissingStepError) Error() string {
	return fmt.Sprintf("Error: Missing step function: %s", e.Name)
}

// ParseStep converts a step_name into a Step. An empty name is the first
// invocation and maps to StepStart.
func ParseStep(name string) (Step, error) {
	if name == "" {
		return StepStart, nil
	}
	for _, s := range Steps {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, &MissingStepError{Name: name}
}
