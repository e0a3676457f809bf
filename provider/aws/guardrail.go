package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/func/agentcore/guardrail"
	"github.com/pkg/errors"
)

// BedrockAPI is the subset of the Bedrock client used by Guardrails.
type BedrockAPI interface {
	ListGuardrails(ctx context.Context, params *bedrock.ListGuardrailsInput, optFns ...func(*bedrock.Options)) (*bedrock.ListGuardrailsOutput, error)
	CreateGuardrail(ctx context.Context, params *bedrock.CreateGuardrailInput, optFns ...func(*bedrock.Options)) (*bedrock.CreateGuardrailOutput, error)
	CreateGuardrailVersion(ctx context.Context, params *bedrock.CreateGuardrailVersionInput, optFns ...func(*bedrock.Options)) (*bedrock.CreateGuardrailVersionOutput, error)
}

// Guardrails manages Amazon Bedrock guardrails.
type Guardrails struct {
	Client BedrockAPI
}

// NewGuardrails creates a guardrail client.
func NewGuardrails(cfg aws.Config) *Guardrails {
	return &Guardrails{Client: bedrock.NewFromConfig(cfg)}
}

// ListGuardrails lists all guardrails, following pagination.
func (g *Guardrails) ListGuardrails(ctx context.Context) ([]guardrail.Summary, error) {
	var out []guardrail.Summary
	input := &bedrock.ListGuardrailsInput{}
	for {
		resp, err := g.Client.ListGuardrails(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, s := range resp.Guardrails {
			out = append(out, guardrail.Summary{
				ID:   aws.ToString(s.Id),
				Name: aws.ToString(s.Name),
			})
		}
		if aws.ToString(resp.NextToken) == "" {
			return out, nil
		}
		input = &bedrock.ListGuardrailsInput{NextToken: resp.NextToken}
	}
}

// CreateGuardrail creates a guardrail with content filters.
func (g *Guardrails) CreateGuardrail(ctx context.Context, def guardrail.Definition) (string, error) {
	filters := make([]types.GuardrailContentFilterConfig, len(def.Filters))
	for i, f := range def.Filters {
		filters[i] = types.GuardrailContentFilterConfig{
			Type:           types.GuardrailContentFilterType(f.Type),
			InputStrength:  types.GuardrailFilterStrength(f.InputStrength),
			OutputStrength: types.GuardrailFilterStrength(f.OutputStrength),
		}
	}
	input := &bedrock.CreateGuardrailInput{
		Name:                    aws.String(def.Name),
		BlockedInputMessaging:   aws.String(def.BlockedInput),
		BlockedOutputsMessaging: aws.String(def.BlockedOutput),
		ContentPolicyConfig:     &types.GuardrailContentPolicyConfig{FiltersConfig: filters},
	}
	if def.Description != "" {
		input.Description = aws.String(def.Description)
	}
	resp, err := g.Client.CreateGuardrail(ctx, input)
	if err != nil {
		return "", err
	}
	id := aws.ToString(resp.GuardrailId)
	if id == "" {
		return "", errors.New("no guardrail id in response")
	}
	return id, nil
}

// CreateGuardrailVersion publishes the draft of a guardrail as a new version.
func (g *Guardrails) CreateGuardrailVersion(ctx context.Context, id, description string) (string, error) {
	resp, err := g.Client.CreateGuardrailVersion(ctx, &bedrock.CreateGuardrailVersionInput{
		GuardrailIdentifier: aws.String(id),
		Description:         aws.String(description),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(resp.Version), nil
}
