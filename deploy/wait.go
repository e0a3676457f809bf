package deploy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// A Waiter waits for a runtime to become ready.
type Waiter struct {
	Status agent.StatusGetter

	// Logger logs status updates. If not set, logs are discarded.
	Logger *zap.Logger

	// Backoff algorithm used between status checks. If not set, exponential
	// backoff is used, capped at 15 seconds between checks.
	Backoff func() backoff.BackOff
}

// Wait polls the status of a runtime until it is ready. A failed status or a
// missing runtime stops waiting immediately. The wait is bounded by the
// context.
func (w *Waiter) Wait(ctx context.Context, id string) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("id", id))

	algo := w.Backoff
	if algo == nil {
		algo = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxInterval = 15 * time.Second
			b.MaxElapsedTime = 0
			return b
		}
	}

	var (
		last      agent.Status
		permanent bool
	)
	stop := func(err error) error {
		permanent = true
		return backoff.Permanent(err)
	}
	op := func() error {
		status, err := w.Status.GetRuntimeStatus(ctx, id)
		if err != nil {
			if errors.Is(err, agent.ErrNotFound) {
				return stop(&agent.Error{Kind: agent.NotFound, Op: "wait", Name: id, Err: err})
			}
			return &agent.Error{Kind: agent.Remote, Op: "wait", Name: id, Err: err}
		}
		last = status
		switch {
		case status == agent.StatusReady:
			return nil
		case status.Failed():
			return stop(&agent.Error{
				Kind: agent.Remote,
				Op:   "wait",
				Name: id,
				Err:  errors.Errorf("runtime status %s", status),
			})
		}
		return errors.Errorf("runtime status %s", status)
	}
	notify := func(err error, dur time.Duration) {
		logger.Info("Waiting", zap.String("status", string(last)), zap.Duration("duration", dur))
	}

	err := backoff.RetryNotify(op, backoff.WithContext(algo(), ctx), notify)
	if err != nil {
		if permanent {
			return err
		}
		// The backoff stops before the deadline when the next interval
		// would pass it, so ctx may not be done yet.
		cause := ctx.Err()
		if _, ok := ctx.Deadline(); ok && cause == nil {
			cause = context.DeadlineExceeded
		}
		if cause != nil {
			return &agent.Error{
				Kind: agent.Remote,
				Op:   "wait",
				Name: id,
				Err:  errors.Wrapf(cause, "last status %s", last),
			}
		}
		if agent.KindOf(err) == agent.Other {
			return &agent.Error{Kind: agent.Remote, Op: "wait", Name: id, Err: err}
		}
		return err
	}
	logger.Info("Ready")
	return nil
}
