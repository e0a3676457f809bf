// Package file stores a deployment record in a plain text file.
package file

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/func/agentcore/record"
	"github.com/func/agentcore/storage"
	"github.com/pkg/errors"
)

// DefaultPath is the record file used when no other store is configured.
const DefaultPath = "deployment_info.txt"

// Store keeps the record of a single runtime in a file, in the key=value form
// of record.Record. The runtime name is not part of the file; the most
// recent write wins regardless of name.
type Store struct {
	Path string
}

// PutRecord replaces the file atomically.
func (s *Store) PutRecord(ctx context.Context, name string, rec *record.Record) error {
	data, err := rec.MarshalText()
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	return WriteAtomic(s.Path, data, 0644)
}

// GetRecord reads the file. Returns storage.ErrNotFound if the file does not
// exist.
func (s *Store) GetRecord(ctx context.Context, name string) (*record.Record, error) {
	data, err := ioutil.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "read record")
	}
	rec := &record.Record{}
	if err := rec.UnmarshalText(data); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.Path)
	}
	return rec, nil
}

// WriteAtomic writes data to a temporary file in the same directory and
// renames it over path. Readers see either the old or the new content.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(name, perm); err != nil {
		cleanup()
		return errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}
