package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

// ControlPlaneAPI is the subset of the AgentCore control plane client used
// by ControlPlane.
type ControlPlaneAPI interface {
	ListAgentRuntimes(ctx context.Context, params *bedrockagentcorecontrol.ListAgentRuntimesInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.ListAgentRuntimesOutput, error)
	CreateAgentRuntime(ctx context.Context, params *bedrockagentcorecontrol.CreateAgentRuntimeInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.CreateAgentRuntimeOutput, error)
	UpdateAgentRuntime(ctx context.Context, params *bedrockagentcorecontrol.UpdateAgentRuntimeInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.UpdateAgentRuntimeOutput, error)
	GetAgentRuntime(ctx context.Context, params *bedrockagentcorecontrol.GetAgentRuntimeInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.GetAgentRuntimeOutput, error)
}

// ControlPlane manages runtimes with Amazon Bedrock AgentCore.
type ControlPlane struct {
	Client ControlPlaneAPI
}

// NewControlPlane creates a control plane client.
func NewControlPlane(cfg aws.Config) *ControlPlane {
	return &ControlPlane{Client: bedrockagentcorecontrol.NewFromConfig(cfg)}
}

var controlPlaneErrors = map[string]error{
	"ConflictException":         agent.ErrNameConflict,
	"ResourceNotFoundException": agent.ErrNotFound,
}

// ListRuntimes lists all runtimes, following pagination.
func (c *ControlPlane) ListRuntimes(ctx context.Context) ([]agent.Runtime, error) {
	var out []agent.Runtime
	input := &bedrockagentcorecontrol.ListAgentRuntimesInput{}
	for {
		resp, err := c.Client.ListAgentRuntimes(ctx, input)
		if err != nil {
			return nil, errors.Wrap(err, "list agent runtimes")
		}
		for _, rt := range resp.AgentRuntimes {
			out = append(out, agent.Runtime{
				Name:   aws.ToString(rt.AgentRuntimeName),
				ID:     aws.ToString(rt.AgentRuntimeId),
				ARN:    aws.ToString(rt.AgentRuntimeArn),
				Status: agent.Status(rt.Status),
			})
		}
		if aws.ToString(resp.NextToken) == "" {
			return out, nil
		}
		input = &bedrockagentcorecontrol.ListAgentRuntimesInput{NextToken: resp.NextToken}
	}
}

func artifact(ref string) types.AgentRuntimeArtifact {
	return &types.AgentRuntimeArtifactMemberContainerConfiguration{
		Value: types.ContainerConfiguration{ContainerUri: aws.String(ref)},
	}
}

func network(mode agent.NetworkMode) *types.NetworkConfiguration {
	if mode == "" {
		mode = agent.NetworkModePublic
	}
	return &types.NetworkConfiguration{NetworkMode: types.NetworkMode(mode)}
}

// CreateRuntime creates a runtime. A name that is already taken results in
// an error matching agent.ErrNameConflict.
func (c *ControlPlane) CreateRuntime(ctx context.Context, name string, cfg agent.Config) (*agent.Endpoint, error) {
	resp, err := c.Client.CreateAgentRuntime(ctx, &bedrockagentcorecontrol.CreateAgentRuntimeInput{
		AgentRuntimeName:     aws.String(name),
		AgentRuntimeArtifact: artifact(cfg.ArtifactRef),
		NetworkConfiguration: network(cfg.NetworkMode),
		RoleArn:              aws.String(cfg.RoleARN),
	})
	if err != nil {
		return nil, errors.Wrap(mapError(err, controlPlaneErrors), "create agent runtime")
	}
	return &agent.Endpoint{
		ARN: aws.ToString(resp.AgentRuntimeArn),
		ID:  aws.ToString(resp.AgentRuntimeId),
	}, nil
}

// UpdateRuntime updates an existing runtime.
func (c *ControlPlane) UpdateRuntime(ctx context.Context, id string, cfg agent.Config) (*agent.Endpoint, error) {
	resp, err := c.Client.UpdateAgentRuntime(ctx, &bedrockagentcorecontrol.UpdateAgentRuntimeInput{
		AgentRuntimeId:       aws.String(id),
		AgentRuntimeArtifact: artifact(cfg.ArtifactRef),
		NetworkConfiguration: network(cfg.NetworkMode),
		RoleArn:              aws.String(cfg.RoleARN),
	})
	if err != nil {
		return nil, errors.Wrap(mapError(err, controlPlaneErrors), "update agent runtime")
	}
	return &agent.Endpoint{
		ARN: aws.ToString(resp.AgentRuntimeArn),
		ID:  aws.ToString(resp.AgentRuntimeId),
	}, nil
}

// GetRuntime returns a runtime by id, including its current container
// image, which list responses leave out.
func (c *ControlPlane) GetRuntime(ctx context.Context, id string) (*agent.Runtime, error) {
	resp, err := c.Client.GetAgentRuntime(ctx, &bedrockagentcorecontrol.GetAgentRuntimeInput{
		AgentRuntimeId: aws.String(id),
	})
	if err != nil {
		return nil, errors.Wrap(mapError(err, controlPlaneErrors), "get agent runtime")
	}
	rt := &agent.Runtime{
		Name:   aws.ToString(resp.AgentRuntimeName),
		ID:     aws.ToString(resp.AgentRuntimeId),
		ARN:    aws.ToString(resp.AgentRuntimeArn),
		Status: agent.Status(resp.Status),
	}
	if cc, ok := resp.AgentRuntimeArtifact.(*types.AgentRuntimeArtifactMemberContainerConfiguration); ok {
		rt.ArtifactRef = aws.ToString(cc.Value.ContainerUri)
	}
	if resp.NetworkConfiguration != nil {
		rt.NetworkMode = agent.NetworkMode(resp.NetworkConfiguration.NetworkMode)
	}
	return rt, nil
}

// GetRuntimeStatus returns the status of a runtime.
func (c *ControlPlane) GetRuntimeStatus(ctx context.Context, id string) (agent.Status, error) {
	rt, err := c.GetRuntime(ctx, id)
	if err != nil {
		return "", err
	}
	return rt.Status, nil
}
