// Package deploy reconciles a named agent runtime with a desired container
// image.
//
// Reconciling lists the existing runtimes and either creates the runtime or
// updates it in place. Listing is eventually consistent, so a runtime that
// was just created by someone else may be missing from the list; creating it
// then fails with a name conflict. In that case the runtime id is unknown and
// the conflict is reported as ambiguous rather than guessed at.
//
// Reconcile does not retry and does not lock. Reconciling the same name
// concurrently from multiple processes is not supported.
package deploy

import (
	"context"

	"github.com/func/agentcore/agent"
	"github.com/func/agentcore/record"
	"github.com/func/agentcore/storage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotProvisioned is returned when no execution role is available.
var ErrNotProvisioned = errors.New("execution role not provisioned")

// A Request is the desired state of a runtime.
type Request struct {
	// Name of the runtime.
	Name string `validate:"required,max=48,runtimename"`

	// ArtifactRef is the container image to run.
	ArtifactRef string `validate:"required"`

	// RoleARN is the execution role assumed by the runtime.
	RoleARN string `validate:"required,arn"`

	// AutoUpdate allows updating an existing runtime. If not set, an
	// existing runtime is a conflict.
	AutoUpdate bool
}

// A Reconciler creates or updates runtimes.
type Reconciler struct {
	ControlPlane agent.ControlPlane

	// Records stores the record of a successful reconcile. If not set, the
	// record is only returned.
	Records storage.Store

	// Logger logs reconciliation updates. If not set, logs are discarded.
	Logger *zap.Logger
}

// Reconcile converges the runtime to the request.
//
// On success, the record of the runtime is stored and returned. Failures are
// returned as *agent.Error:
//
//   Precondition       role missing or request invalid, nothing was called
//   Conflict           runtime exists and AutoUpdate is not set
//   AmbiguousConflict  runtime was not listed but the name is taken
//   Remote             any other control plane failure
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (*record.Record, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("name", req.Name))

	if req.RoleARN == "" {
		return nil, &agent.Error{Kind: agent.Precondition, Op: "reconcile", Name: req.Name, Err: ErrNotProvisioned}
	}
	if err := validate(req); err != nil {
		return nil, &agent.Error{Kind: agent.Precondition, Op: "reconcile", Name: req.Name, Err: err}
	}

	cfg := agent.Config{
		ArtifactRef: req.ArtifactRef,
		NetworkMode: agent.NetworkModePublic,
		RoleARN:     req.RoleARN,
	}

	logger.Info("Reconcile", zap.String("image", req.ArtifactRef), zap.Bool("auto_update", req.AutoUpdate))

	existing, err := agent.Find(ctx, r.ControlPlane, req.Name)
	if err != nil && agent.KindOf(err) != agent.NotFound {
		return nil, err
	}

	var ep *agent.Endpoint
	if existing != nil {
		logger.Debug("Found existing", zap.String("id", existing.ID), zap.String("status", string(existing.Status)))
		if !req.AutoUpdate {
			return nil, &agent.Error{
				Kind: agent.Conflict,
				Op:   "reconcile",
				Name: req.Name,
				Err:  errors.Errorf("runtime exists with id %s and auto update is disabled", existing.ID),
			}
		}
		ep, err = r.ControlPlane.UpdateRuntime(ctx, existing.ID, cfg)
		if err != nil {
			return nil, &agent.Error{Kind: agent.Remote, Op: "update runtime", Name: req.Name, Err: err}
		}
		logger.Info("Updated", zap.String("id", ep.ID))
	} else {
		ep, err = r.ControlPlane.CreateRuntime(ctx, req.Name, cfg)
		if err != nil {
			return nil, createError(req, err)
		}
		logger.Info("Created", zap.String("id", ep.ID))
	}

	rec := &record.Record{ARN: ep.ARN, ID: ep.ID, ArtifactRef: req.ArtifactRef}
	if r.Records != nil {
		if err := r.Records.PutRecord(ctx, req.Name, rec); err != nil {
			return nil, &agent.Error{Kind: agent.Other, Op: "store record", Name: req.Name, Err: err}
		}
		logger.Debug("Stored record", zap.String("arn", rec.ARN))
	}
	return rec, nil
}

func createError(req Request, err error) error {
	if !errors.Is(err, agent.ErrNameConflict) {
		return &agent.Error{Kind: agent.Remote, Op: "create runtime", Name: req.Name, Err: err}
	}
	if !req.AutoUpdate {
		return &agent.Error{Kind: agent.Conflict, Op: "create runtime", Name: req.Name, Err: err}
	}
	// The runtime exists but was not listed. Its id cannot be resolved, so
	// it is not updated.
	return &agent.Error{
		Kind: agent.AmbiguousConflict,
		Op:   "create runtime",
		Name: req.Name,
		Err:  errors.Wrap(err, "runtime exists but was not listed, resolve it manually or retry later"),
	}
}
