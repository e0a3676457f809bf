// Package aws implements the agent, registry and guardrail interfaces with
// the AWS SDK.
//
// Each adapter wraps a narrow client interface so that tests can provide a
// fake in place of the SDK client.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// LoadConfig loads the shared AWS configuration.
//
// The region is determined by:
//
//  - The given region, if set.
//  - AWS_REGION or AWS_DEFAULT_REGION environment variables, or the region
//    in ~/.aws/config.
//  - If neither is set, us-east-1 is used.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "load aws config")
	}
	if cfg.Region == "" {
		// No region configured
		cfg.Region = DefaultRegion
	}
	return cfg, nil
}

// errorCode returns the API error code of err, such as
// "ConflictException". Returns an empty string if err is not an API error.
func errorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}

// codedError matches a sentinel error with errors.Is while keeping the
// underlying API error in the chain.
type codedError struct {
	sentinel error
	err      error
}

func (e *codedError) Error() string        { return e.err.Error() }
func (e *codedError) Unwrap() error        { return e.err }
func (e *codedError) Is(target error) bool { return target == e.sentinel }

// mapError maps API error codes to sentinel errors. Errors with other codes
// are returned unchanged.
func mapError(err error, codes map[string]error) error {
	if err == nil {
		return nil
	}
	if sentinel, ok := codes[errorCode(err)]; ok {
		return &codedError{sentinel: sentinel, err: err}
	}
	return err
}
