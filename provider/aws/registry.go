package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/func/agentcore/registry"
	"github.com/pkg/errors"
)

// ECRAPI is the subset of the ECR client used by Registry.
type ECRAPI interface {
	DescribeRepositories(ctx context.Context, params *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	DescribeImages(ctx context.Context, params *ecr.DescribeImagesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error)
	BatchDeleteImage(ctx context.Context, params *ecr.BatchDeleteImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error)
}

// Registry manages images in Amazon ECR.
type Registry struct {
	Client ECRAPI
}

// NewRegistry creates an ECR registry client.
func NewRegistry(cfg aws.Config) *Registry {
	return &Registry{Client: ecr.NewFromConfig(cfg)}
}

var registryErrors = map[string]error{
	"RepositoryNotFoundException": registry.ErrRepositoryNotFound,
}

// DescribeRepository checks that a repository exists.
func (r *Registry) DescribeRepository(ctx context.Context, repository string) error {
	_, err := r.Client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{repository},
	})
	if err != nil {
		return errors.Wrap(mapError(err, registryErrors), "describe repository")
	}
	return nil
}

// ListImages lists all images in a repository, following pagination.
func (r *Registry) ListImages(ctx context.Context, repository string) ([]registry.Image, error) {
	var out []registry.Image
	input := &ecr.DescribeImagesInput{RepositoryName: aws.String(repository)}
	for {
		resp, err := r.Client.DescribeImages(ctx, input)
		if err != nil {
			return nil, errors.Wrap(mapError(err, registryErrors), "describe images")
		}
		for _, d := range resp.ImageDetails {
			img := registry.Image{
				Digest: aws.ToString(d.ImageDigest),
			}
			if d.ImagePushedAt != nil {
				img.PushedAt = *d.ImagePushedAt
			}
			out = append(out, img)
		}
		if aws.ToString(resp.NextToken) == "" {
			return out, nil
		}
		input = &ecr.DescribeImagesInput{
			RepositoryName: aws.String(repository),
			NextToken:      resp.NextToken,
		}
	}
}

// BatchDeleteImages deletes images by digest in a single call.
func (r *Registry) BatchDeleteImages(ctx context.Context, repository string, digests []string) ([]registry.Failure, error) {
	ids := make([]types.ImageIdentifier, len(digests))
	for i, d := range digests {
		ids[i] = types.ImageIdentifier{ImageDigest: aws.String(d)}
	}
	resp, err := r.Client.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
		RepositoryName: aws.String(repository),
		ImageIds:       ids,
	})
	if err != nil {
		return nil, errors.Wrap(mapError(err, registryErrors), "batch delete image")
	}
	var failures []registry.Failure
	for _, f := range resp.Failures {
		fail := registry.Failure{
			Code:   string(f.FailureCode),
			Reason: aws.ToString(f.FailureReason),
		}
		if f.ImageId != nil {
			fail.Digest = aws.ToString(f.ImageId.ImageDigest)
		}
		failures = append(failures, fail)
	}
	return failures, nil
}
