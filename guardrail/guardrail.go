// Package guardrail ensures a content filtering guardrail exists for agent
// runtimes.
package guardrail

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultName = "AgentCore-Minimal-Guardrail"
	DefaultFile = "guardrail_id.txt"
)

// Filter strengths.
const (
	StrengthNone   = "NONE"
	StrengthLow    = "LOW"
	StrengthMedium = "MEDIUM"
	StrengthHigh   = "HIGH"
)

// A Filter blocks a category of content.
type Filter struct {
	Type           string // HATE, VIOLENCE, SEXUAL, ...
	InputStrength  string
	OutputStrength string
}

// A Definition describes a guardrail to create.
type Definition struct {
	Name        string
	Description string
	Filters     []Filter

	// Messages returned in place of blocked content.
	BlockedInput  string
	BlockedOutput string
}

// Minimal returns a guardrail definition that blocks hate, violence and
// sexual content at high strength.
func Minimal(name string) Definition {
	filters := make([]Filter, 0, 3)
	for _, typ := range []string{"HATE", "VIOLENCE", "SEXUAL"} {
		filters = append(filters, Filter{Type: typ, InputStrength: StrengthHigh, OutputStrength: StrengthHigh})
	}
	return Definition{
		Name:          name,
		Description:   "Minimal guardrail for AgentCore agents with basic content filtering",
		Filters:       filters,
		BlockedInput:  "I can't process that request due to content policy.",
		BlockedOutput: "I can't provide that response due to content policy.",
	}
}

// A Summary identifies an existing guardrail.
type Summary struct {
	ID   string
	Name string
}

// API manages guardrails.
type API interface {
	ListGuardrails(ctx context.Context) ([]Summary, error)
	CreateGuardrail(ctx context.Context, def Definition) (id string, err error)
	CreateGuardrailVersion(ctx context.Context, id, description string) (version string, err error)
}

// A Manager ensures guardrails exist.
type Manager struct {
	API API

	// Logger logs progress. If not set, logs are discarded.
	Logger *zap.Logger
}

// Ensure returns the id of the guardrail with the definition's name, creating
// it if it does not exist. created is true if the guardrail was created.
//
// A newly created guardrail is published as a version. Failing to publish is
// only logged; the draft version remains usable.
func (m *Manager) Ensure(ctx context.Context, def Definition) (id string, created bool, err error) {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("guardrail", def.Name))

	if def.Name == "" {
		return "", false, errors.New("guardrail name not set")
	}

	list, err := m.API.ListGuardrails(ctx)
	if err != nil {
		return "", false, errors.Wrap(err, "list guardrails")
	}
	for _, g := range list {
		if g.Name == def.Name {
			logger.Info("Guardrail exists", zap.String("id", g.ID))
			return g.ID, false, nil
		}
	}

	id, err = m.API.CreateGuardrail(ctx, def)
	if err != nil {
		return "", false, errors.Wrap(err, "create guardrail")
	}
	logger.Info("Created guardrail", zap.String("id", id))

	version, err := m.API.CreateGuardrailVersion(ctx, id, "Version 1 - Active guardrail with HIGH strength filtering")
	if err != nil {
		logger.Warn("Could not create guardrail version, using DRAFT", zap.Error(err))
		return id, true, nil
	}
	logger.Info("Created guardrail version", zap.String("version", version))
	return id, true, nil
}
