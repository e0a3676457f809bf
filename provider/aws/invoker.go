package aws

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

// InvokeAPI is the subset of the AgentCore data plane client used by Invoker.
type InvokeAPI interface {
	InvokeAgentRuntime(ctx context.Context, params *bedrockagentcore.InvokeAgentRuntimeInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.InvokeAgentRuntimeOutput, error)
}

// Invoker invokes runtimes with Amazon Bedrock AgentCore.
type Invoker struct {
	Client InvokeAPI
}

// NewInvoker creates an invoker.
func NewInvoker(cfg aws.Config) *Invoker {
	return &Invoker{Client: bedrockagentcore.NewFromConfig(cfg)}
}

// Invoke invokes a runtime. The payload is sent as JSON.
//
// A response with a body is returned as *agent.StreamResponse, the caller
// must close it. A response without content is returned as
// *agent.StatusResponse.
func (i *Invoker) Invoke(ctx context.Context, inv agent.Invocation) (agent.Response, error) {
	input := &bedrockagentcore.InvokeAgentRuntimeInput{
		AgentRuntimeArn: aws.String(inv.ARN),
		Payload:         inv.Payload,
		ContentType:     aws.String("application/json"),
	}
	if inv.Qualifier != "" {
		input.Qualifier = aws.String(inv.Qualifier)
	}
	if inv.SessionID != "" {
		input.RuntimeSessionId = aws.String(inv.SessionID)
	}
	resp, err := i.Client.InvokeAgentRuntime(ctx, input)
	if err != nil {
		return nil, errors.Wrap(mapError(err, controlPlaneErrors), "invoke agent runtime")
	}

	session := aws.ToString(resp.RuntimeSessionId)
	if session == "" {
		session = inv.SessionID
	}
	code, length := rawResponse(resp.ResultMetadata)
	if resp.Response == nil || length == 0 {
		if resp.Response != nil {
			_ = resp.Response.Close()
		}
		return &agent.StatusResponse{StatusCode: code, SessionID: session}, nil
	}
	return &agent.StreamResponse{
		Body:      resp.Response,
		SessionID: session,
	}, nil
}

// rawResponse returns the HTTP status code and content length of the raw
// response. The content length is -1 if unknown.
func rawResponse(md middleware.Metadata) (code int, length int64) {
	raw, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response)
	if !ok || raw == nil {
		return http.StatusOK, -1
	}
	return raw.StatusCode, raw.ContentLength
}
