// Package agenttest provides in-memory fakes of the agent interfaces for
// tests.
package agenttest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

// A Call is a recorded call to the fake control plane.
type Call struct {
	Method string
	Arg    string // Name for create, id for update and status.
	Config agent.Config
}

// ControlPlane is an in-memory control plane. The zero value is ready to use.
type ControlPlane struct {
	// Runtimes are the existing runtimes. Created runtimes are appended.
	Runtimes []agent.Runtime

	// Hidden names are left out of ListRuntimes, simulating a list that has
	// not caught up with a create.
	Hidden map[string]bool

	// Errors to return from the corresponding methods.
	ListErr, CreateErr, UpdateErr, StatusErr error

	mu    sync.Mutex
	seq   int
	Calls []Call
}

// Methods returns the names of the called methods, in order.
func (c *ControlPlane) Methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.Calls))
	for i, call := range c.Calls {
		out[i] = call.Method
	}
	return out
}

func (c *ControlPlane) record(call Call) {
	c.Calls = append(c.Calls, call)
}

// ListRuntimes returns all runtimes that are not hidden.
func (c *ControlPlane) ListRuntimes(ctx context.Context) ([]agent.Runtime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "ListRuntimes"})
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	var out []agent.Runtime
	for _, rt := range c.Runtimes {
		if c.Hidden[rt.Name] {
			continue
		}
		out = append(out, rt)
	}
	return out, nil
}

// CreateRuntime adds a runtime in CREATING state. Returns an error matching
// agent.ErrNameConflict if the name exists, including hidden runtimes.
func (c *ControlPlane) CreateRuntime(ctx context.Context, name string, cfg agent.Config) (*agent.Endpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "CreateRuntime", Arg: name, Config: cfg})
	if c.CreateErr != nil {
		return nil, c.CreateErr
	}
	for _, rt := range c.Runtimes {
		if rt.Name == name {
			return nil, errors.Wrapf(agent.ErrNameConflict, "ConflictException: %s", name)
		}
	}
	c.seq++
	id := fmt.Sprintf("%s-%010d", name, c.seq)
	rt := agent.Runtime{
		Name:        name,
		ID:          id,
		ARN:         ARN(id),
		ArtifactRef: cfg.ArtifactRef,
		NetworkMode: cfg.NetworkMode,
		Status:      agent.StatusCreating,
	}
	c.Runtimes = append(c.Runtimes, rt)
	return &agent.Endpoint{ARN: rt.ARN, ID: rt.ID}, nil
}

// UpdateRuntime updates the artifact of an existing runtime.
func (c *ControlPlane) UpdateRuntime(ctx context.Context, id string, cfg agent.Config) (*agent.Endpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "UpdateRuntime", Arg: id, Config: cfg})
	if c.UpdateErr != nil {
		return nil, c.UpdateErr
	}
	for i := range c.Runtimes {
		rt := &c.Runtimes[i]
		if rt.ID != id {
			continue
		}
		if rt.ArtifactRef != cfg.ArtifactRef {
			rt.ArtifactRef = cfg.ArtifactRef
			rt.Status = agent.StatusUpdating
		}
		rt.NetworkMode = cfg.NetworkMode
		return &agent.Endpoint{ARN: rt.ARN, ID: rt.ID}, nil
	}
	return nil, errors.Wrapf(agent.ErrNotFound, "ResourceNotFoundException: %s", id)
}

// GetRuntimeStatus returns the status of a runtime.
func (c *ControlPlane) GetRuntimeStatus(ctx context.Context, id string) (agent.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Call{Method: "GetRuntimeStatus", Arg: id})
	if c.StatusErr != nil {
		return "", c.StatusErr
	}
	for _, rt := range c.Runtimes {
		if rt.ID == id {
			return rt.Status, nil
		}
	}
	return "", errors.Wrapf(agent.ErrNotFound, "ResourceNotFoundException: %s", id)
}

// SetStatus sets the status of the runtime with the given id.
func (c *ControlPlane) SetStatus(id string, status agent.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.Runtimes {
		if c.Runtimes[i].ID == id {
			c.Runtimes[i].Status = status
		}
	}
}

// ARN returns the fake ARN for a runtime id.
func ARN(id string) string {
	return "arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/" + id
}

// Invoker is a fake agent.Invoker. Handler produces the response for each
// invocation.
type Invoker struct {
	Handler func(inv agent.Invocation) (agent.Response, error)

	mu          sync.Mutex
	Invocations []agent.Invocation
}

// Invoke records the invocation and calls Handler. A nil Handler returns an
// empty status response.
func (i *Invoker) Invoke(ctx context.Context, inv agent.Invocation) (agent.Response, error) {
	i.mu.Lock()
	i.Invocations = append(i.Invocations, inv)
	i.mu.Unlock()
	if i.Handler == nil {
		return &agent.StatusResponse{StatusCode: 200, SessionID: inv.SessionID}, nil
	}
	return i.Handler(inv)
}

// Count returns the number of invocations.
func (i *Invoker) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.Invocations)
}

// Stream returns a streamed response with the given body.
func Stream(body string) *agent.StreamResponse {
	return &agent.StreamResponse{
		Body: io.NopCloser(strings.NewReader(body)),
	}
}
