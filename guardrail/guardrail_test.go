package guardrail_test

import (
	"context"
	"testing"

	"github.com/func/agentcore/guardrail"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
)

type fakeAPI struct {
	existing   []guardrail.Summary
	listErr    error
	createErr  error
	versionErr error

	created  []guardrail.Definition
	versions []string
}

func (f *fakeAPI) ListGuardrails(ctx context.Context) ([]guardrail.Summary, error) {
	return f.existing, f.listErr
}

func (f *fakeAPI) CreateGuardrail(ctx context.Context, def guardrail.Definition) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, def)
	return "gr-new", nil
}

func (f *fakeAPI) CreateGuardrailVersion(ctx context.Context, id, description string) (string, error) {
	f.versions = append(f.versions, id)
	if f.versionErr != nil {
		return "", f.versionErr
	}
	return "1", nil
}

func TestManager_Ensure(t *testing.T) {
	def := guardrail.Minimal(guardrail.DefaultName)

	tests := []struct {
		name         string
		api          *fakeAPI
		wantID       string
		wantCreated  bool
		wantErr      bool
		wantVersions []string
	}{
		{
			name: "Exists",
			api: &fakeAPI{existing: []guardrail.Summary{
				{ID: "gr-other", Name: "Other"},
				{ID: "gr-1", Name: guardrail.DefaultName},
			}},
			wantID: "gr-1",
		},
		{
			name:         "Create",
			api:          &fakeAPI{existing: []guardrail.Summary{{ID: "gr-other", Name: "Other"}}},
			wantID:       "gr-new",
			wantCreated:  true,
			wantVersions: []string{"gr-new"},
		},
		{
			name:         "VersionFails",
			api:          &fakeAPI{versionErr: errors.New("ValidationException")},
			wantID:       "gr-new",
			wantCreated:  true,
			wantVersions: []string{"gr-new"},
		},
		{
			name:    "ListFails",
			api:     &fakeAPI{listErr: errors.New("AccessDenied")},
			wantErr: true,
		},
		{
			name:    "CreateFails",
			api:     &fakeAPI{createErr: errors.New("ServiceQuotaExceeded")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &guardrail.Manager{API: tt.api, Logger: zaptest.NewLogger(t)}
			id, created, err := m.Ensure(context.Background(), def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ensure() err = %v, wantErr = %t", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("ID = %q, want = %q", id, tt.wantID)
			}
			if created != tt.wantCreated {
				t.Errorf("Created = %t, want = %t", created, tt.wantCreated)
			}
			if diff := cmp.Diff(tt.api.versions, tt.wantVersions); diff != "" {
				t.Errorf("Versions (-got +want)\n%s", diff)
			}
			if tt.wantCreated {
				if diff := cmp.Diff(tt.api.created, []guardrail.Definition{def}); diff != "" {
					t.Errorf("Created (-got +want)\n%s", diff)
				}
			}
		})
	}
}

func TestMinimal(t *testing.T) {
	def := guardrail.Minimal("g")
	if len(def.Filters) != 3 {
		t.Fatalf("Filters = %d, want 3", len(def.Filters))
	}
	for _, f := range def.Filters {
		if f.InputStrength != guardrail.StrengthHigh || f.OutputStrength != guardrail.StrengthHigh {
			t.Errorf("Filter %s strength = %s/%s", f.Type, f.InputStrength, f.OutputStrength)
		}
	}
}
