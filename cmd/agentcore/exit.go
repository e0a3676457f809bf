package cmd

import (
	"fmt"
	"os"

	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1 // Remote or other failure.
	ExitUsage      = 2 // Invalid usage or missing precondition.
	ExitConflict   = 3 // Runtime exists and updating is not allowed.
	ExitAmbiguous  = 4 // Runtime exists but could not be resolved.
	ExitValidation = 5 // One or more validation cases failed.
)

// errValidationFailed is returned when validation ran but did not pass.
var errValidationFailed = errors.New("validation failed")

// usageError marks an error caused by invalid command line usage.
type usageError struct {
	error
}

func (e usageError) Unwrap() error { return e.error }

// ExitCode returns the process exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	if errors.Is(err, errValidationFailed) {
		return ExitValidation
	}
	switch agent.KindOf(err) {
	case agent.Precondition:
		return ExitUsage
	case agent.Conflict:
		return ExitConflict
	case agent.AmbiguousConflict:
		return ExitAmbiguous
	default:
		return ExitFailure
	}
}

// Execute runs the root command and returns the exit code. Errors are
// printed to stderr on a single line.
func Execute() int {
	err := Agentcore.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitCode(err)
}
