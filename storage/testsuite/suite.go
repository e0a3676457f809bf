// Package testsuite contains a conformance suite for storage.Store
// implementations.
package testsuite

import (
	"context"
	"runtime/debug"
	"testing"

	"github.com/func/agentcore/record"
	"github.com/func/agentcore/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// Config provides configuration options for the test suite.
type Config struct {
	// New is used to instantiate a new, empty store.
	//
	// The returned done function is called on test completion, allowing
	// cleanup to be performed.
	New func(t *testing.T) (store storage.Store, done func())

	// SingleRecord is set for stores that hold the record of one runtime
	// only, such as a single file. Tests that store records for multiple
	// names are skipped.
	SingleRecord bool
}

// Run executes the test suite for the given configuration.
func Run(t *testing.T, cfg Config) {
	run(t, "NotFound", cfg, notFound)
	run(t, "PutGet", cfg, putGet)
	run(t, "Overwrite", cfg, overwrite)
	run(t, "Incomplete", cfg, incomplete)
	if !cfg.SingleRecord {
		run(t, "Isolation", cfg, isolation)
		run(t, "List", cfg, list)
	}
}

func run(t *testing.T, name string, cfg Config, testFunc func(*testing.T, Config)) {
	t.Run(name, func(t *testing.T) {
		defer checkPanic(t)
		testFunc(t, cfg)
	})
}

func notFound(t *testing.T, cfg Config) {
	s, done := cfg.New(t)
	defer done()

	_, err := s.GetRecord(context.Background(), "calc")
	if errors.Cause(err) != storage.ErrNotFound {
		t.Errorf("GetRecord() err = %v, want = %v", err, storage.ErrNotFound)
	}
}

func putGet(t *testing.T, cfg Config) {
	ctx := context.Background()
	s, done := cfg.New(t)
	defer done()

	rec := &record.Record{ARN: "arn:1", ID: "calc-1", ArtifactRef: "repo:v1"}
	if err := s.PutRecord(ctx, "calc", rec); err != nil {
		t.Fatalf("PutRecord() err = %+v", err)
	}
	got, err := s.GetRecord(ctx, "calc")
	if err != nil {
		t.Fatalf("GetRecord() err = %+v", err)
	}
	if diff := cmp.Diff(got, rec); diff != "" {
		t.Errorf("GetRecord() (-got +want)\n%s", diff)
	}
}

func overwrite(t *testing.T, cfg Config) {
	ctx := context.Background()
	s, done := cfg.New(t)
	defer done()

	first := &record.Record{ARN: "arn:1", ID: "calc-1", ArtifactRef: "repo:v1"}
	second := &record.Record{ARN: "arn:1", ID: "calc-1", ArtifactRef: "repo:v2"}
	if err := s.PutRecord(ctx, "calc", first); err != nil {
		t.Fatalf("PutRecord(first) err = %+v", err)
	}
	if err := s.PutRecord(ctx, "calc", second); err != nil {
		t.Fatalf("PutRecord(second) err = %+v", err)
	}
	got, err := s.GetRecord(ctx, "calc")
	if err != nil {
		t.Fatalf("GetRecord() err = %+v", err)
	}
	if diff := cmp.Diff(got, second); diff != "" {
		t.Errorf("GetRecord() (-got +want)\n%s", diff)
	}
}

func incomplete(t *testing.T, cfg Config) {
	ctx := context.Background()
	s, done := cfg.New(t)
	defer done()

	valid := &record.Record{ARN: "arn:1", ID: "calc-1", ArtifactRef: "repo:v1"}
	if err := s.PutRecord(ctx, "calc", valid); err != nil {
		t.Fatalf("PutRecord() err = %+v", err)
	}
	if err := s.PutRecord(ctx, "calc", &record.Record{ARN: "arn:2"}); err == nil {
		t.Fatal("PutRecord(incomplete) want error")
	}

	// Previous record is intact.
	got, err := s.GetRecord(ctx, "calc")
	if err != nil {
		t.Fatalf("GetRecord() err = %+v", err)
	}
	if diff := cmp.Diff(got, valid); diff != "" {
		t.Errorf("GetRecord() (-got +want)\n%s", diff)
	}
}

func isolation(t *testing.T, cfg Config) {
	ctx := context.Background()
	s, done := cfg.New(t)
	defer done()

	a := &record.Record{ARN: "arn:a", ID: "a-1", ArtifactRef: "repo-a:v1"}
	b := &record.Record{ARN: "arn:b", ID: "b-1", ArtifactRef: "repo-b:v1"}
	if err := s.PutRecord(ctx, "a", a); err != nil {
		t.Fatalf("PutRecord(a) err = %+v", err)
	}
	if err := s.PutRecord(ctx, "b", b); err != nil {
		t.Fatalf("PutRecord(b) err = %+v", err)
	}
	got, err := s.GetRecord(ctx, "a")
	if err != nil {
		t.Fatalf("GetRecord(a) err = %+v", err)
	}
	if diff := cmp.Diff(got, a); diff != "" {
		t.Errorf("GetRecord(a) (-got +want)\n%s", diff)
	}
}

func list(t *testing.T, cfg Config) {
	ctx := context.Background()
	s, done := cfg.New(t)
	defer done()

	l, ok := s.(storage.Lister)
	if !ok {
		t.Skipf("%T does not list records", s)
	}
	got, err := l.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords(empty) err = %+v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListRecords(empty) = %v, want none", got)
	}

	want := map[string]*record.Record{
		"a": {ARN: "arn:a", ID: "a-1", ArtifactRef: "repo-a:v1"},
		"b": {ARN: "arn:b", ID: "b-1", ArtifactRef: "repo-b:v1"},
	}
	for name, rec := range want {
		if err := s.PutRecord(ctx, name, rec); err != nil {
			t.Fatalf("PutRecord(%s) err = %+v", name, err)
		}
	}
	got, err = l.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() err = %+v", err)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ListRecords() (-got +want)\n%s", diff)
	}
}

func checkPanic(t *testing.T) {
	if err := recover(); err != nil {
		t.Fatalf("Panic: %v\n%s", err, debug.Stack())
	}
}
