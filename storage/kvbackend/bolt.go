// Package kvbackend contains key-value backends for storage.KV.
package kvbackend

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/func/agentcore/storage"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Bolt stores key-value pairs in bolt db. Each write is a single bolt
// transaction.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates a new BoltDB instance with the default location
// (~/.agentcore/state.db). The directory is created if it does not exist.
func NewBolt() (*Bolt, error) {
	u, err := user.Current()
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return NewBoltWithFile(filepath.Join(u.HomeDir, ".agentcore", "state.db"))
}

// NewBoltWithFile creates and opens a database at the given path. If the file
// or directory do not exist, they are created.
//
// Opening blocks for up to three seconds if another process holds the
// database.
func NewBoltWithFile(file string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, errors.Wrapf(err, "ensure dir exists: %s", filepath.Dir(file))
	}
	db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open bolt db")
	}
	return &Bolt{db: db}, nil
}

// Close closes the Bolt DB store and releases all resources.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Put creates or replaces a value.
func (b *Bolt) Put(ctx context.Context, key string, value []byte) error {
	buc, k, err := splitKey(key)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(buc)
		if err != nil {
			return errors.Wrap(err, "ensure bucket exists")
		}
		return bucket.Put(k, value)
	})
}

// Get returns a single value.
func (b *Bolt) Get(ctx context.Context, key string) ([]byte, error) {
	buc, k, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	var ret []byte
	err = b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(buc)
		if bucket == nil {
			return storage.ErrNotFound
		}
		data := bucket.Get(k)
		if data == nil {
			return storage.ErrNotFound
		}
		// Data is only valid for the lifetime of the transaction.
		ret = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Scan returns all values in a bucket. A missing bucket is empty.
func (b *Bolt) Scan(ctx context.Context, bucket string) (map[string][]byte, error) {
	if bucket == "" || strings.Contains(bucket, "/") {
		return nil, errors.Errorf("invalid bucket %q", bucket)
	}
	ret := make(map[string][]byte)
	err := b.db.View(func(tx *bolt.Tx) error {
		buc := tx.Bucket([]byte(bucket))
		if buc == nil {
			return nil
		}
		return buc.ForEach(func(k, v []byte) error {
			ret[bucket+"/"+string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	return ret, err
}

// splitKey splits bucket/key. Both parts must be non-empty and the key may
// not contain further slashes.
//
//   records/calc
//   ->
//   bucket: records
//   key:    calc
func splitKey(input string) (bucket, key []byte, err error) {
	parts := strings.Split(input, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, errors.Errorf("key %q is not of the form bucket/key", input)
	}
	return []byte(parts[0]), []byte(parts[1]), nil
}
