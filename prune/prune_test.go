package prune_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/func/agentcore/agent"
	"github.com/func/agentcore/prune"
	"github.com/func/agentcore/registry"
	"github.com/func/agentcore/registry/registrytest"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func digest(i int) string {
	return fmt.Sprintf("sha256:%064x", i)
}

// dated returns n images pushed an hour apart, oldest first.
func dated(n, offset int) []registry.Image {
	out := make([]registry.Image, n)
	for i := range out {
		out[i] = registry.Image{
			Digest:   digest(offset + i),
			PushedAt: epoch.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func undated(n, offset int) []registry.Image {
	out := make([]registry.Image, n)
	for i := range out {
		out[i] = registry.Image{Digest: digest(offset + i)}
	}
	return out
}

func digests(images []registry.Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.Digest
	}
	sort.Strings(out)
	return out
}

func TestPlan(t *testing.T) {
	a := registry.Image{Digest: "a", PushedAt: epoch.Add(3 * time.Hour)}
	b := registry.Image{Digest: "b", PushedAt: epoch.Add(2 * time.Hour)}
	c := registry.Image{Digest: "c", PushedAt: epoch.Add(1 * time.Hour)}
	x := registry.Image{Digest: "x"}
	y := registry.Image{Digest: "y"}
	tie1 := registry.Image{Digest: "tie1", PushedAt: epoch}
	tie2 := registry.Image{Digest: "tie2", PushedAt: epoch}

	tests := []struct {
		name     string
		images   []registry.Image
		keep     int
		wantDel  []registry.Image
		wantKept []registry.Image
	}{
		{
			name:     "Empty",
			keep:     3,
			wantKept: []registry.Image{},
		},
		{
			name:     "KeepAll",
			images:   []registry.Image{c, a, b},
			keep:     3,
			wantKept: []registry.Image{a, b, c},
		},
		{
			name:     "KeepMore",
			images:   []registry.Image{c, a},
			keep:     9,
			wantKept: []registry.Image{a, c},
		},
		{
			name:     "KeepZero",
			images:   []registry.Image{c, a, b},
			keep:     0,
			wantDel:  []registry.Image{a, b, c},
			wantKept: []registry.Image{},
		},
		{
			name:     "Negative",
			images:   []registry.Image{a, b},
			keep:     -1,
			wantDel:  []registry.Image{a, b},
			wantKept: []registry.Image{},
		},
		{
			name:     "UndatedOldest",
			images:   []registry.Image{x, c, y, a, b},
			keep:     3,
			wantDel:  []registry.Image{x, y},
			wantKept: []registry.Image{a, b, c},
		},
		{
			name:     "StableTies",
			images:   []registry.Image{tie2, a, tie1},
			keep:     2,
			wantDel:  []registry.Image{tie1},
			wantKept: []registry.Image{a, tie2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]registry.Image(nil), tt.images...)
			del, kept := prune.Plan(tt.images, tt.keep)
			if diff := cmp.Diff(del, tt.wantDel); diff != "" {
				t.Errorf("Plan() del (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(kept, tt.wantKept); diff != "" {
				t.Errorf("Plan() kept (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(tt.images, in); diff != "" {
				t.Errorf("Plan() modified input (-got +want)\n%s", diff)
			}
		})
	}
}

func TestPruner_Prune(t *testing.T) {
	tests := []struct {
		name        string
		images      []registry.Image
		keep        int
		want        prune.Result
		wantDeleted []string
		wantCalls   int // BatchDeleteImages calls
	}{
		{
			name:        "UndatedDeleted",
			images:      append(undated(3, 100), dated(9, 0)...),
			keep:        9,
			want:        prune.Result{Deleted: 3, Kept: 9},
			wantDeleted: digests(undated(3, 100)),
			wantCalls:   1,
		},
		{
			name:        "OldestDeleted",
			images:      dated(5, 0),
			keep:        2,
			want:        prune.Result{Deleted: 3, Kept: 2},
			wantDeleted: digests(dated(3, 0)),
			wantCalls:   1,
		},
		{
			name:   "KeepEqual",
			images: dated(9, 0),
			keep:   9,
			want:   prune.Result{Kept: 9},
		},
		{
			name:   "Empty",
			images: []registry.Image{},
			keep:   9,
			want:   prune.Result{},
		},
		{
			name:        "DeleteAll",
			images:      dated(4, 0),
			keep:        0,
			want:        prune.Result{Deleted: 4},
			wantDeleted: digests(dated(4, 0)),
			wantCalls:   1,
		},
		{
			name: "NoDigest",
			images: append([]registry.Image{
				{Digest: ""},
				{Digest: "sha256:short"},
			}, dated(3, 0)...),
			keep:        2,
			want:        prune.Result{Deleted: 1, Kept: 2, Skipped: 2},
			wantDeleted: digests(dated(1, 0)),
			wantCalls:   1,
		},
		{
			name:        "Exactly100",
			images:      dated(101, 0),
			keep:        1,
			want:        prune.Result{Deleted: 100, Kept: 1},
			wantDeleted: digests(dated(100, 0)),
			wantCalls:   1,
		},
		{
			name:        "Batches",
			images:      dated(251, 0),
			keep:        1,
			want:        prune.Result{Deleted: 250, Kept: 1},
			wantDeleted: digests(dated(250, 0)),
			wantCalls:   3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &registrytest.Registry{
				Repositories: map[string][]registry.Image{"calc": tt.images},
			}
			p := &prune.Pruner{Registry: reg, Logger: zaptest.NewLogger(t)}
			got, err := p.Prune(context.Background(), "calc", tt.keep)
			if err != nil {
				t.Fatalf("Prune() err = %+v", err)
			}
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("Prune() (-got +want)\n%s", diff)
			}
			calls := reg.CallsTo("BatchDeleteImages")
			if len(calls) != tt.wantCalls {
				t.Fatalf("BatchDeleteImages calls = %d, want = %d", len(calls), tt.wantCalls)
			}
			var deleted []string
			for _, c := range calls {
				if len(c.Digests) > prune.DefaultBatchSize {
					t.Errorf("Batch size = %d, max = %d", len(c.Digests), prune.DefaultBatchSize)
				}
				deleted = append(deleted, c.Digests...)
			}
			sort.Strings(deleted)
			if diff := cmp.Diff(deleted, tt.wantDeleted); diff != "" {
				t.Errorf("Deleted (-got +want)\n%s", diff)
			}
		})
	}
}

func TestPruner_Prune_failures(t *testing.T) {
	images := dated(5, 0)
	fail := registry.Failure{Digest: images[0].Digest, Code: "ImageReferencedByManifestList", Reason: "in use"}
	reg := &registrytest.Registry{
		Repositories: map[string][]registry.Image{"calc": images},
		Failures:     map[string]registry.Failure{fail.Digest: fail},
	}
	p := &prune.Pruner{Registry: reg, Logger: zaptest.NewLogger(t)}
	got, err := p.Prune(context.Background(), "calc", 2)
	if err != nil {
		t.Fatalf("Prune() err = %+v", err)
	}
	want := prune.Result{Deleted: 2, Kept: 2, Failures: []registry.Failure{fail}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Prune() (-got +want)\n%s", diff)
	}
	if n := len(reg.Repositories["calc"]); n != 3 {
		t.Errorf("Remaining images = %d, want = %d", n, 3)
	}
}

func TestPruner_Prune_missingRepository(t *testing.T) {
	reg := &registrytest.Registry{}
	p := &prune.Pruner{Registry: reg, Logger: zaptest.NewLogger(t)}
	got, err := p.Prune(context.Background(), "nope", 9)
	if err != nil {
		t.Fatalf("Prune() err = %+v", err)
	}
	if diff := cmp.Diff(got, prune.Result{}); diff != "" {
		t.Errorf("Prune() (-got +want)\n%s", diff)
	}
	if calls := reg.CallsTo("ListImages"); len(calls) != 0 {
		t.Errorf("ListImages called %d times", len(calls))
	}
}

func TestPruner_Prune_negativeKeep(t *testing.T) {
	reg := &registrytest.Registry{
		Repositories: map[string][]registry.Image{"calc": dated(3, 0)},
	}
	p := &prune.Pruner{Registry: reg}
	_, err := p.Prune(context.Background(), "calc", -1)
	if agent.KindOf(err) != agent.Precondition {
		t.Fatalf("Prune() err = %v, want kind %v", err, agent.Precondition)
	}
	if len(reg.Calls) != 0 {
		t.Errorf("Registry calls = %v, want none", reg.Calls)
	}
}

func TestPruner_Prune_remoteError(t *testing.T) {
	listErr := errors.New("throttled")
	reg := &registrytest.Registry{
		Repositories: map[string][]registry.Image{"calc": dated(3, 0)},
		Errors:       map[string]map[string]error{"ListImages": {"calc": listErr}},
	}
	p := &prune.Pruner{Registry: reg}
	_, err := p.Prune(context.Background(), "calc", 1)
	if agent.KindOf(err) != agent.Remote {
		t.Fatalf("Prune() err = %v, want kind %v", err, agent.Remote)
	}
	if errors.Cause(err) != listErr {
		t.Errorf("Cause() = %v, want = %v", errors.Cause(err), listErr)
	}
}

func TestPruner_PruneAll(t *testing.T) {
	deleteErr := errors.New("access denied")
	reg := &registrytest.Registry{
		Repositories: map[string][]registry.Image{
			"a": dated(4, 0),
			"b": dated(4, 10),
			"c": dated(4, 20),
		},
		Errors: map[string]map[string]error{"BatchDeleteImages": {"b": deleteErr}},
	}
	p := &prune.Pruner{Registry: reg, Logger: zaptest.NewLogger(t)}
	sum := p.PruneAll(context.Background(), []string{"a", "b", "c", "missing"}, 1)

	want := map[string]prune.Result{
		"a":       {Deleted: 3, Kept: 1},
		"c":       {Deleted: 3, Kept: 1},
		"missing": {},
	}
	if diff := cmp.Diff(sum.Results, want); diff != "" {
		t.Errorf("Results (-got +want)\n%s", diff)
	}
	if !errors.Is(sum.Err, deleteErr) {
		t.Errorf("Err = %v, want %v", sum.Err, deleteErr)
	}
	if got := sum.Deleted(); got != 6 {
		t.Errorf("Deleted() = %d, want = %d", got, 6)
	}
}
