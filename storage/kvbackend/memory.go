package kvbackend

import (
	"context"
	"sync"

	"github.com/func/agentcore/storage"
)

// Memory keeps key-value pairs in memory, grouped by bucket. Values are
// copied in and out, so callers may reuse their buffers.
//
// Nothing is persisted; Memory is meant for tests.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// Put creates or replaces a value.
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	b, k, err := splitKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets == nil {
		m.buckets = make(map[string]map[string][]byte)
	}
	bucket := m.buckets[string(b)]
	if bucket == nil {
		bucket = make(map[string][]byte)
		m.buckets[string(b)] = bucket
	}
	bucket[string(k)] = append([]byte(nil), value...)
	return nil
}

// Get returns a single value.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	b, k, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.buckets[string(b)][string(k)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Scan returns all values in a bucket, keyed by bucket/key.
func (m *Memory) Scan(ctx context.Context, bucket string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.buckets[bucket]))
	for k, v := range m.buckets[bucket] {
		out[bucket+"/"+k] = append([]byte(nil), v...)
	}
	return out, nil
}
