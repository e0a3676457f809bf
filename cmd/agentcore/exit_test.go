package cmd

import (
	"testing"

	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, ExitOK},
		{"Other", errors.New("boom"), ExitFailure},
		{"Usage", usageError{errors.New("bad flag")}, ExitUsage},
		{"WrappedUsage", errors.Wrap(usageError{errors.New("bad flag")}, "setup"), ExitUsage},
		{"Validation", errValidationFailed, ExitValidation},
		{"Precondition", &agent.Error{Kind: agent.Precondition, Err: errors.New("no role")}, ExitUsage},
		{"Conflict", &agent.Error{Kind: agent.Conflict, Name: "calc"}, ExitConflict},
		{"Ambiguous", &agent.Error{Kind: agent.AmbiguousConflict, Name: "calc"}, ExitAmbiguous},
		{"Remote", &agent.Error{Kind: agent.Remote, Err: errors.New("throttled")}, ExitFailure},
		{"NotFound", &agent.Error{Kind: agent.NotFound, Name: "calc", Err: agent.ErrNotFound}, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExitCode(tt.err)
			if got != tt.want {
				t.Errorf("ExitCode() got = %d, want = %d", got, tt.want)
			}
		})
	}
}
