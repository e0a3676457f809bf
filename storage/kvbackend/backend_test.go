package kvbackend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/func/agentcore/storage"
	"github.com/func/agentcore/storage/testsuite"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

type backendFactory func(t *testing.T) (storage.KVBackend, func())

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"Memory": func(*testing.T) (storage.KVBackend, func()) {
			return &Memory{}, func() {}
		},
		"Bolt": func(t *testing.T) (storage.KVBackend, func()) {
			b, err := NewBoltWithFile(filepath.Join(t.TempDir(), "state.db"))
			if err != nil {
				t.Fatal(err)
			}
			return b, func() {
				if err := b.Close(); err != nil {
					t.Errorf("close db: %v", err)
				}
			}
		},
	}
}

func TestBackend_io(t *testing.T) {
	for name, create := range backends() {
		t.Run(name, func(t *testing.T) {
			be, done := create(t)
			defer done()

			ctx := context.Background()

			// Get non-existing
			_, err := be.Get(ctx, "records/calc")
			if errors.Cause(err) != storage.ErrNotFound {
				t.Fatalf("Get(missing) err = %v, want = %v", err, storage.ErrNotFound)
			}

			if err := be.Put(ctx, "records/calc", []byte("v1")); err != nil {
				t.Fatalf("Put() err = %v", err)
			}
			if err := be.Put(ctx, "records/weather", []byte("w1")); err != nil {
				t.Fatalf("Put() err = %v", err)
			}
			if err := be.Put(ctx, "other/calc", []byte("x")); err != nil {
				t.Fatalf("Put() err = %v", err)
			}

			got, err := be.Get(ctx, "records/calc")
			if err != nil {
				t.Fatalf("Get() err = %v", err)
			}
			if string(got) != "v1" {
				t.Errorf("Get() = %q, want = %q", got, "v1")
			}

			scan, err := be.Scan(ctx, "records")
			if err != nil {
				t.Fatalf("Scan() err = %v", err)
			}
			want := map[string][]byte{
				"records/calc":    []byte("v1"),
				"records/weather": []byte("w1"),
			}
			if diff := cmp.Diff(scan, want); diff != "" {
				t.Errorf("Scan() (-got +want)\n%s", diff)
			}

			empty, err := be.Scan(ctx, "missing")
			if err != nil {
				t.Fatalf("Scan(missing) err = %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("Scan(missing) = %v, want empty", empty)
			}
		})
	}
}

func TestKV(t *testing.T) {
	for name, create := range backends() {
		create := create
		t.Run(name, func(t *testing.T) {
			testsuite.Run(t, testsuite.Config{
				New: func(t *testing.T) (storage.Store, func()) {
					be, done := create(t)
					return &storage.KV{Backend: be}, done
				},
			})
		})
	}
}

func TestKV_ListRecords(t *testing.T) {
	ctx := context.Background()
	kv := &storage.KV{Backend: &Memory{}}

	if err := kv.Backend.Put(ctx, "records/calc", []byte("agent_arn=arn:1\nagent_id=calc-1\necr_uri=repo:v1\n")); err != nil {
		t.Fatal(err)
	}

	got, err := kv.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() err = %v", err)
	}
	if len(got) != 1 || got["calc"] == nil || got["calc"].ID != "calc-1" {
		t.Errorf("ListRecords() = %v", got)
	}
}

func TestKV_invalidName(t *testing.T) {
	kv := &storage.KV{Backend: &Memory{}}
	for _, name := range []string{"", "a/b"} {
		if _, err := kv.GetRecord(context.Background(), name); err == nil {
			t.Errorf("GetRecord(%q) want error", name)
		}
	}
}

func Test_splitKey(t *testing.T) {
	tests := []struct {
		input      string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{input: "", wantErr: true},
		{input: "/foo", wantErr: true},
		{input: "foo", wantErr: true},
		{input: "foo/", wantErr: true},
		{input: "foo/bar/baz", wantErr: true},
		{input: "foo/bar", wantBucket: "foo", wantKey: "bar"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			bucket, key, err := splitKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if string(bucket) != tt.wantBucket {
				t.Errorf("Bucket = %q, want = %q", string(bucket), tt.wantBucket)
			}
			if string(key) != tt.wantKey {
				t.Errorf("Key = %q, want = %q", string(key), tt.wantKey)
			}
		})
	}
}
