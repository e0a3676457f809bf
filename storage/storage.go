// Package storage persists deployment records.
//
// A record is always replaced as a whole. Every Store implementation writes
// atomically: a reader observes either the previous record or the new one,
// never a mix.
package storage

import (
	"context"

	"github.com/func/agentcore/record"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when no record exists for a runtime.
var ErrNotFound = errors.New("not found")

// A Store persists one record per runtime name.
type Store interface {
	// PutRecord creates or replaces the record for a runtime.
	PutRecord(ctx context.Context, name string, rec *record.Record) error

	// GetRecord returns the record for a runtime. Returns ErrNotFound if no
	// record has been stored.
	GetRecord(ctx context.Context, name string) (*record.Record, error)
}

// A Lister lists all stored records by runtime name. Stores that hold a
// single unnamed record do not implement it.
type Lister interface {
	ListRecords(ctx context.Context) (map[string]*record.Record, error)
}
