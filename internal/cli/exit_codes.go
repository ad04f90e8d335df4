package cli

import cberrors "github.com/ariel-frischer/codebuilder/internal/errors"

// Exit codes for the codebuilder CLI
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure (AWS, Slack, pipeline)
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitConfiguration indicates invalid configuration or a missing prerequisite
	ExitConfiguration = 4
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	cliErr := cberrors.AsCLIError(err)
	if cliErr == nil {
		return ExitFailure
	}
	switch cliErr.Category {
	case cberrors.Argument:
		return ExitInvalidArguments
	case cberrors.Configuration, cberrors.Prerequisite:
		return ExitConfiguration
	default:
		return ExitFailure
	}
}
