// Package agent describes agent runtimes hosted by the AgentCore control
// plane, and the narrow interfaces used to manage and invoke them.
//
// The control plane owns runtime status. Nothing in this module ever sets it;
// it is only observed through ListRuntimes and GetRuntimeStatus.
package agent

import (
	"context"
)

// Status is the provisioning status of a runtime, as reported by the control
// plane.
type Status string

// Runtime statuses.
const (
	StatusCreating     Status = "CREATING"
	StatusCreateFailed Status = "CREATE_FAILED"
	StatusUpdating     Status = "UPDATING"
	StatusUpdateFailed Status = "UPDATE_FAILED"
	StatusReady        Status = "READY"
	StatusDeleting     Status = "DELETING"
)

// Failed returns true if the status is a terminal failure.
func (s Status) Failed() bool {
	return s == StatusCreateFailed || s == StatusUpdateFailed
}

// NetworkMode controls how a runtime is reachable.
type NetworkMode string

// NetworkModePublic is the only network mode used for deployments.
const NetworkModePublic NetworkMode = "PUBLIC"

// A Runtime is a remotely hosted agent runtime.
type Runtime struct {
	// Name is chosen by the user and is unique within an account and
	// region.
	Name string

	// ID is assigned by the control plane on creation. It never changes.
	ID string

	// ARN is the canonical address of the runtime, used for invocation.
	ARN string

	// ArtifactRef is the container image backing the current revision. It
	// is not always included in list responses.
	ArtifactRef string

	NetworkMode NetworkMode
	Status      Status
}

// Config is the desired configuration for a runtime.
type Config struct {
	ArtifactRef string
	NetworkMode NetworkMode
	RoleARN     string
}

// An Endpoint identifies a runtime after a successful create or update.
type Endpoint struct {
	ARN string
	ID  string
}

// A Lister lists runtimes.
//
// Listing is eventually consistent: a runtime that was just created may be
// missing from the result. Absence is a hint, not a fact.
type Lister interface {
	ListRuntimes(ctx context.Context) ([]Runtime, error)
}

// A StatusGetter returns the current status of a runtime.
type StatusGetter interface {
	GetRuntimeStatus(ctx context.Context, id string) (Status, error)
}

// ControlPlane manages agent runtimes.
type ControlPlane interface {
	Lister
	StatusGetter

	// CreateRuntime creates a runtime with the given name. If a runtime with
	// the same name already exists, the returned error matches
	// ErrNameConflict with errors.Is.
	CreateRuntime(ctx context.Context, name string, cfg Config) (*Endpoint, error)

	// UpdateRuntime updates an existing runtime. Updating with the same
	// configuration again is not an error.
	UpdateRuntime(ctx context.Context, id string, cfg Config) (*Endpoint, error)
}

// An Invocation is a single synchronous request to a runtime.
type Invocation struct {
	ARN       string
	Qualifier string
	SessionID string
	Payload   []byte
}

// An Invoker invokes runtimes.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) (Response, error)
}
