package agent_test

import (
	"context"
	"strings"
	"testing"

	"github.com/func/agentcore/agent"
	"github.com/func/agentcore/agent/agenttest"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestFind(t *testing.T) {
	cp := &agenttest.ControlPlane{
		Runtimes: []agent.Runtime{
			{Name: "calculator", ID: "calculator-1", ARN: agenttest.ARN("calculator-1"), Status: agent.StatusReady},
			{Name: "weather", ID: "weather-1", ARN: agenttest.ARN("weather-1"), Status: agent.StatusCreating},
		},
	}

	got, err := agent.Find(context.Background(), cp, "weather")
	if err != nil {
		t.Fatalf("Find() err = %v", err)
	}
	want := &agent.Runtime{Name: "weather", ID: "weather-1", ARN: agenttest.ARN("weather-1"), Status: agent.StatusCreating}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Find() (-got +want)\n%s", diff)
	}
}

func TestFind_notFound(t *testing.T) {
	tests := []struct {
		name       string
		find       string
		wantSuffix string
	}{
		{name: "Suggestion", find: "calculater", wantSuffix: `did you mean "calculator"?`},
		{name: "NoSuggestion", find: "unrelated", wantSuffix: "runtime not found"},
	}

	cp := &agenttest.ControlPlane{
		Runtimes: []agent.Runtime{
			{Name: "calculator", ID: "calculator-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agent.Find(context.Background(), cp, tt.find)
			if err == nil {
				t.Fatal("Find() want error")
			}
			if !errors.Is(err, agent.ErrNotFound) {
				t.Errorf("errors.Is(err, ErrNotFound) = false, err = %v", err)
			}
			if got := agent.KindOf(err); got != agent.NotFound {
				t.Errorf("KindOf() = %v, want = %v", got, agent.NotFound)
			}
			if !strings.HasSuffix(err.Error(), tt.wantSuffix) {
				t.Errorf("Error() = %q, want suffix %q", err.Error(), tt.wantSuffix)
			}
		})
	}
}

func TestFind_listError(t *testing.T) {
	listErr := errors.New("throttled")
	cp := &agenttest.ControlPlane{ListErr: listErr}

	_, err := agent.Find(context.Background(), cp, "calculator")
	if got := agent.KindOf(err); got != agent.Remote {
		t.Errorf("KindOf() = %v, want = %v", got, agent.Remote)
	}
	if errors.Cause(err) != listErr {
		t.Errorf("Cause() = %v, want = %v", errors.Cause(err), listErr)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		err  *agent.Error
		want string
	}{
		{
			err:  &agent.Error{Kind: agent.Conflict, Op: "reconcile", Name: "calc", Err: errors.New("auto-update is disabled")},
			want: "reconcile calc: conflict: auto-update is disabled",
		},
		{
			err:  &agent.Error{Kind: agent.Precondition, Err: errors.New("role missing")},
			want: "precondition: role missing",
		},
		{
			err:  &agent.Error{Kind: agent.AmbiguousConflict, Op: "create"},
			want: "create: ambiguous conflict",
		},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want = %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := errors.Wrap(&agent.Error{Kind: agent.AmbiguousConflict}, "deploy")
	if got := agent.KindOf(wrapped); got != agent.AmbiguousConflict {
		t.Errorf("KindOf(wrapped) = %v, want = %v", got, agent.AmbiguousConflict)
	}
	if got := agent.KindOf(errors.New("plain")); got != agent.Other {
		t.Errorf("KindOf(plain) = %v, want = %v", got, agent.Other)
	}
	if got := agent.KindOf(nil); got != agent.Other {
		t.Errorf("KindOf(nil) = %v, want = %v", got, agent.Other)
	}
}
