// Package harness validates a deployed agent runtime by invoking it with a
// battery of prompts.
//
// Before any case runs, the runtime is resolved by name and its status must
// be READY. Cases run sequentially, each with a fresh session and its own
// timeout. A failing case does not stop the remaining cases; the run passes
// only if every case passes.
package harness

import (
	"context"
	"encoding/json"
	"time"

	"github.com/func/agentcore/agent"
	"github.com/func/agentcore/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultQualifier   = "DEFAULT"
	DefaultCaseTimeout = 60 * time.Second
)

// A Case is a single prompt sent to the runtime.
type Case struct {
	Prompt string
}

// DefaultCases exercise calculation and general conversation.
var DefaultCases = Cases(
	"What is 2 + 2?",
	"Calculate 15 * 7",
	"What is 100 / 4?",
	"What is the square root of 16?",
	"Calculate (5 + 3) * 2",
	"Hello, how are you?",
	"What can you help me with?",
	"Explain what 2^3 equals",
	"Can you solve 25 - 8?",
	"What is 0.5 + 0.3?",
)

// Cases returns a case for each prompt.
func Cases(prompts ...string) []Case {
	out := make([]Case, len(prompts))
	for i, p := range prompts {
		out[i] = Case{Prompt: p}
	}
	return out
}

// Payload returns the request body for the case.
func (c Case) Payload() ([]byte, error) {
	return json.Marshal(struct {
		Prompt string `json:"prompt"`
	}{c.Prompt})
}

// Control resolves runtimes and their status.
type Control interface {
	agent.Lister
	agent.StatusGetter
}

// A Harness runs cases against a runtime.
type Harness struct {
	Control Control
	Invoker agent.Invoker

	// Records is used to cross-check the resolved runtime with the stored
	// deployment record. Optional.
	Records storage.Store

	// Cases to run. If not set, DefaultCases are used.
	Cases []Case

	// Qualifier selects the runtime version. If not set, DefaultQualifier is
	// used.
	Qualifier string

	// CaseTimeout bounds each invocation. If not set, DefaultCaseTimeout is
	// used.
	CaseTimeout time.Duration

	// Logger logs results. If not set, logs are discarded.
	Logger *zap.Logger

	// SessionID generates a session id per case. If not set, a random UUID
	// is used.
	SessionID func() string
}

// Validate runs the harness and returns true if all cases passed.
func (h *Harness) Validate(ctx context.Context, name string) bool {
	return h.Run(ctx, name).Passed
}

// Run resolves the runtime and runs all cases.
//
// If the runtime cannot be resolved or is not READY, no case is invoked and
// the report has a Reason.
func (h *Harness) Run(ctx context.Context, name string) *Report {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("name", name))

	rep := &Report{Name: name}

	rt, err := agent.Find(ctx, h.Control, name)
	if err != nil {
		logger.Error("Could not resolve runtime", zap.Error(err))
		rep.Reason = err.Error()
		return rep
	}
	rep.ID, rep.ARN = rt.ID, rt.ARN
	logger = logger.With(zap.String("arn", rt.ARN))
	logger.Info("Found runtime")

	status, err := h.Control.GetRuntimeStatus(ctx, rt.ID)
	if err != nil {
		logger.Error("Could not get status", zap.Error(err))
		rep.Reason = errors.Wrap(err, "get status").Error()
		return rep
	}
	rep.Status = status
	if status != agent.StatusReady {
		logger.Error("Runtime is not ready", zap.String("status", string(status)))
		rep.Reason = "runtime is not ready (status " + string(status) + ")"
		return rep
	}

	h.checkRecord(ctx, logger, name, rt)

	cases := h.Cases
	if cases == nil {
		cases = DefaultCases
	}
	rep.Results = make([]Result, len(cases))
	for i := range cases {
		rep.Results[i] = Result{Case: cases[i], State: Pending}
	}

	rep.Passed = true
	for i := range rep.Results {
		res := &rep.Results[i]
		h.runCase(ctx, rt.ARN, res)
		if !res.Passed {
			rep.Passed = false
		}

		fields := []zap.Field{
			zap.Int("case", i+1),
			zap.Int("of", len(cases)),
			zap.String("prompt", res.Case.Prompt),
			zap.Stringer("state", res.State),
			zap.Duration("duration", res.Duration),
		}
		if res.Err != nil {
			logger.Error("Case failed", append(fields, zap.Error(res.Err))...)
			continue
		}
		logger.Info("Case passed", append(fields, zap.String("response", res.Summary))...)
	}

	if rep.Passed {
		logger.Info("All cases passed", zap.Int("cases", len(cases)))
	} else {
		logger.Error("Some cases failed", zap.Int("failed", rep.Failed()), zap.Int("cases", len(cases)))
	}
	return rep
}

func (h *Harness) checkRecord(ctx context.Context, logger *zap.Logger, name string, rt *agent.Runtime) {
	if h.Records == nil {
		return
	}
	rec, err := h.Records.GetRecord(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Debug("No deployment record")
			return
		}
		logger.Warn("Could not read deployment record", zap.Error(err))
		return
	}
	if rec.ARN != rt.ARN {
		logger.Warn("Deployment record does not match runtime", zap.String("record", rec.ARN))
	}
}

func (h *Harness) runCase(ctx context.Context, arn string, res *Result) {
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()
	defer func() {
		// A misbehaving invoker or response must not end the run.
		if r := recover(); r != nil {
			res.fail(errors.Errorf("panic: %v", r))
		}
	}()

	payload, err := res.Case.Payload()
	if err != nil {
		res.fail(errors.Wrap(err, "encode payload"))
		return
	}

	timeout := h.CaseTimeout
	if timeout <= 0 {
		timeout = DefaultCaseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	qualifier := h.Qualifier
	if qualifier == "" {
		qualifier = DefaultQualifier
	}
	session := h.SessionID
	if session == nil {
		session = func() string { return uuid.New().String() }
	}

	res.State = Invoked
	resp, err := h.Invoker.Invoke(ctx, agent.Invocation{
		ARN:       arn,
		Qualifier: qualifier,
		SessionID: session(),
		Payload:   payload,
	})
	if err != nil {
		res.fail(errors.Wrap(err, "invoke"))
		return
	}

	summary, state, err := classify(resp)
	if err != nil {
		res.fail(err)
		return
	}
	res.Summary, res.State, res.Passed = summary, state, true
}
