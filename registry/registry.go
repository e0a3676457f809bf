// Package registry describes container image registries that back agent
// runtimes.
package registry

import (
	"context"
	_ "crypto/sha256" // Registers sha256 for digest validation.
	"time"

	digest "github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

// ErrRepositoryNotFound is returned when a repository does not exist.
var ErrRepositoryNotFound = errors.New("repository not found")

// An Image is an image pushed to a repository. Images are immutable.
type Image struct {
	// Digest is the content identifier, unique within a repository.
	Digest string

	// PushedAt is the time the image was pushed. The zero value means the
	// registry did not report it.
	PushedAt time.Time
}

// ValidDigest returns true if s is a sha256 content digest:
//
//   sha256:<64 lower case hex characters>
func ValidDigest(s string) bool {
	d, err := digest.Parse(s)
	return err == nil && d.Algorithm() == digest.SHA256
}

// A Failure describes an image that could not be deleted.
type Failure struct {
	Digest string
	Code   string
	Reason string
}

// Registry manages images in repositories.
type Registry interface {
	// DescribeRepository returns ErrRepositoryNotFound if the repository
	// does not exist.
	DescribeRepository(ctx context.Context, repository string) error

	// ListImages returns all images in a repository.
	ListImages(ctx context.Context, repository string) ([]Image, error)

	// BatchDeleteImages deletes images by digest in a single call. Images
	// that could not be deleted are returned as failures; the returned error
	// is only set if the call itself failed.
	BatchDeleteImages(ctx context.Context, repository string, digests []string) ([]Failure, error)
}
