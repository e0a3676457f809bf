// Package registrytest provides an in-memory registry for tests.
package registrytest

import (
	"context"
	"sync"

	"github.com/func/agentcore/registry"
)

// A Call is a recorded call to the fake registry.
type Call struct {
	Method     string
	Repository string
	Digests    []string
}

// Registry is an in-memory registry.Registry.
type Registry struct {
	// Repositories maps repository names to images. Repositories not in
	// the map do not exist.
	Repositories map[string][]registry.Image

	// Errors to return for a repository, by method name.
	Errors map[string]map[string]error

	// Failures returned from BatchDeleteImages by digest. Failed images are
	// not deleted.
	Failures map[string]registry.Failure

	mu    sync.Mutex
	Calls []Call
}

func (r *Registry) err(method, repo string) error {
	return r.Errors[method][repo]
}

// DescribeRepository returns registry.ErrRepositoryNotFound for unknown
// repositories.
func (r *Registry) DescribeRepository(ctx context.Context, repository string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{Method: "DescribeRepository", Repository: repository})
	if err := r.err("DescribeRepository", repository); err != nil {
		return err
	}
	if _, ok := r.Repositories[repository]; !ok {
		return registry.ErrRepositoryNotFound
	}
	return nil
}

// ListImages returns a copy of the images in a repository.
func (r *Registry) ListImages(ctx context.Context, repository string) ([]registry.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{Method: "ListImages", Repository: repository})
	if err := r.err("ListImages", repository); err != nil {
		return nil, err
	}
	images, ok := r.Repositories[repository]
	if !ok {
		return nil, registry.ErrRepositoryNotFound
	}
	return append([]registry.Image(nil), images...), nil
}

// BatchDeleteImages removes images by digest.
func (r *Registry) BatchDeleteImages(ctx context.Context, repository string, digests []string) ([]registry.Failure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{
		Method:     "BatchDeleteImages",
		Repository: repository,
		Digests:    append([]string(nil), digests...),
	})
	if err := r.err("BatchDeleteImages", repository); err != nil {
		return nil, err
	}
	del := make(map[string]bool, len(digests))
	var failures []registry.Failure
	for _, d := range digests {
		if f, ok := r.Failures[d]; ok {
			failures = append(failures, f)
			continue
		}
		del[d] = true
	}
	var keep []registry.Image
	for _, img := range r.Repositories[repository] {
		if !del[img.Digest] {
			keep = append(keep, img)
		}
	}
	r.Repositories[repository] = keep
	return failures, nil
}

// CallsTo returns the recorded calls to a method.
func (r *Registry) CallsTo(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
