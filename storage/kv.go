package storage

import (
	"context"
	"strings"

	"github.com/func/agentcore/record"
	"github.com/pkg/errors"
)

// The KVBackend is used for persisting key-value data.
//
// Keys are of the form <bucket>/<key>.
type KVBackend interface {
	// Put creates or replaces a key in a single transaction.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the given key. Returns ErrNotFound if the given key does not
	// exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Scan returns a key-value map of all keys in the given bucket.
	Scan(ctx context.Context, bucket string) (map[string][]byte, error)
}

const recordBucket = "records"

// KV stores records in a key-value backend, keyed by runtime name.
type KV struct {
	Backend KVBackend
}

func recordKey(name string) (string, error) {
	if name == "" {
		return "", errors.New("runtime name not set")
	}
	if strings.Contains(name, "/") {
		return "", errors.Errorf("runtime name %q contains a slash", name)
	}
	return recordBucket + "/" + name, nil
}

// PutRecord replaces the record for a runtime.
func (kv *KV) PutRecord(ctx context.Context, name string, rec *record.Record) error {
	k, err := recordKey(name)
	if err != nil {
		return err
	}
	data, err := rec.MarshalText()
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	if err := kv.Backend.Put(ctx, k, data); err != nil {
		return errors.Wrap(err, "store")
	}
	return nil
}

// GetRecord returns the record for a runtime.
func (kv *KV) GetRecord(ctx context.Context, name string) (*record.Record, error) {
	k, err := recordKey(name)
	if err != nil {
		return nil, err
	}
	data, err := kv.Backend.Get(ctx, k)
	if err != nil {
		return nil, err
	}
	rec := &record.Record{}
	if err := rec.UnmarshalText(data); err != nil {
		return nil, errors.Wrapf(err, "decode record %s", name)
	}
	return rec, nil
}

// ListRecords returns all stored records by runtime name.
func (kv *KV) ListRecords(ctx context.Context) (map[string]*record.Record, error) {
	values, err := kv.Backend.Scan(ctx, recordBucket)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	out := make(map[string]*record.Record, len(values))
	for k, v := range values {
		name := strings.TrimPrefix(k, recordBucket+"/")
		rec := &record.Record{}
		if err := rec.UnmarshalText(v); err != nil {
			return nil, errors.Wrapf(err, "decode record %s", name)
		}
		out[name] = rec
	}
	return out, nil
}
