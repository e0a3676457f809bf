// Package prune removes old images from container repositories.
//
// The retention policy keeps the most recently pushed images of a repository
// and deletes the rest. Images without a push time are treated as the oldest.
// Images are only ever deleted by digest; images whose digest is missing or
// malformed are left alone.
package prune

import (
	"context"
	"sort"

	"github.com/func/agentcore/agent"
	"github.com/func/agentcore/registry"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultKeep is the default number of images to keep per repository.
const DefaultKeep = 9

// DefaultBatchSize is the maximum number of images removed in one delete
// call. ECR rejects larger batches.
const DefaultBatchSize = 100

// Plan applies the retention policy. The images are sorted by push time,
// newest first, keeping the listing order for equal times. The first keep
// images are kept, the rest are returned for deletion.
//
// A negative keep is treated as zero. The input slice is not modified.
func Plan(images []registry.Image, keep int) (del, kept []registry.Image) {
	if keep < 0 {
		keep = 0
	}
	sorted := make([]registry.Image, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		// A zero PushedAt sorts last.
		return sorted[i].PushedAt.After(sorted[j].PushedAt)
	})
	if keep >= len(sorted) {
		return nil, sorted
	}
	return sorted[keep:], sorted[:keep]
}

// A Result is the outcome of pruning one repository.
type Result struct {
	Deleted int // Images deleted.
	Kept    int // Images retained by the policy.
	Skipped int // Images selected for deletion but without a valid digest.

	// Failures are images the registry refused to delete.
	Failures []registry.Failure
}

// A Pruner prunes repositories.
type Pruner struct {
	Registry registry.Registry

	// Logger logs progress. If not set, logs are discarded.
	Logger *zap.Logger

	// BatchSize is the maximum number of digests per delete call. If not
	// set, DefaultBatchSize is used.
	BatchSize int
}

func (p *Pruner) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Prune deletes all but the keep most recent images in a repository.
//
// A repository that does not exist is logged and results in an empty result
// without an error. A negative keep is rejected before any remote call.
func (p *Pruner) Prune(ctx context.Context, repository string, keep int) (Result, error) {
	if keep < 0 {
		return Result{}, &agent.Error{
			Kind: agent.Precondition,
			Op:   "prune",
			Name: repository,
			Err:  errors.Errorf("keep must not be negative, got %d", keep),
		}
	}
	logger := p.logger().With(zap.String("repository", repository))

	if err := p.Registry.DescribeRepository(ctx, repository); err != nil {
		if errors.Is(err, registry.ErrRepositoryNotFound) {
			logger.Warn("Repository does not exist")
			return Result{}, nil
		}
		return Result{}, &agent.Error{Kind: agent.Remote, Op: "describe repository", Name: repository, Err: err}
	}

	images, err := p.Registry.ListImages(ctx, repository)
	if err != nil {
		if errors.Is(err, registry.ErrRepositoryNotFound) {
			logger.Warn("Repository does not exist")
			return Result{}, nil
		}
		return Result{}, &agent.Error{Kind: agent.Remote, Op: "list images", Name: repository, Err: err}
	}
	logger.Debug("Listed images", zap.Int("count", len(images)))

	del, kept := Plan(images, keep)
	res := Result{Kept: len(kept)}

	digests := make([]string, 0, len(del))
	for _, img := range del {
		if !registry.ValidDigest(img.Digest) {
			res.Skipped++
			continue
		}
		digests = append(digests, img.Digest)
	}
	if len(digests) == 0 {
		logger.Info("Nothing to delete", zap.Int("kept", res.Kept), zap.Int("skipped", res.Skipped))
		return res, nil
	}

	size := p.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	for start := 0; start < len(digests); start += size {
		end := start + size
		if end > len(digests) {
			end = len(digests)
		}
		batch := digests[start:end]
		failures, err := p.Registry.BatchDeleteImages(ctx, repository, batch)
		if err != nil {
			return res, &agent.Error{Kind: agent.Remote, Op: "delete images", Name: repository, Err: err}
		}
		for _, f := range failures {
			logger.Warn(
				"Image not deleted",
				zap.String("digest", f.Digest),
				zap.String("code", f.Code),
				zap.String("reason", f.Reason),
			)
		}
		res.Failures = append(res.Failures, failures...)
		res.Deleted += len(batch) - len(failures)
	}

	logger.Info(
		"Pruned",
		zap.Int("deleted", res.Deleted),
		zap.Int("kept", res.Kept),
		zap.Int("failed", len(res.Failures)),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// A Summary is the outcome of pruning multiple repositories.
type Summary struct {
	// Results by repository. Repositories that failed are not included.
	Results map[string]Result

	// Err is the combined error of all failed repositories.
	Err error
}

// Deleted returns the total number of deleted images.
func (s Summary) Deleted() int {
	n := 0
	for _, r := range s.Results {
		n += r.Deleted
	}
	return n
}

// PruneAll prunes each repository in order. A failure in one repository does
// not stop the others.
func (p *Pruner) PruneAll(ctx context.Context, repositories []string, keep int) Summary {
	sum := Summary{Results: make(map[string]Result, len(repositories))}
	for _, repo := range repositories {
		if err := ctx.Err(); err != nil {
			sum.Err = multierr.Append(sum.Err, errors.Wrap(err, repo))
			continue
		}
		res, err := p.Prune(ctx, repo, keep)
		if err != nil {
			p.logger().Error("Prune failed", zap.String("repository", repo), zap.Error(err))
			sum.Err = multierr.Append(sum.Err, err)
			continue
		}
		sum.Results[repo] = res
	}
	return sum
}
