package config_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/func/agentcore/config"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	src := `
region    = "eu-west-1"
role_file = "role.txt"

runtime "calc" {
  image       = "123456789012.dkr.ecr.eu-west-1.amazonaws.com/calc:v3"
  auto_update = false
}

runtime "chat" {
  image = "123456789012.dkr.ecr.eu-west-1.amazonaws.com/chat:v1"
}

retention {
  repositories = ["calc", "chat"]
  keep         = 5
}

validation {
  qualifier = "PROD"
  timeout   = "90s"
  prompts   = ["ping"]
}
`
	l := &config.Loader{}
	got, diags := l.Load(writeFile(t, "agentcore.hcl", src))
	if diags.HasErrors() {
		t.Fatalf("Load() diags = %v", diags)
	}

	no := false
	keep := 5
	want := &config.Project{
		Region:   "eu-west-1",
		RoleFile: "role.txt",
		Runtimes: []config.Runtime{
			{Name: "calc", Image: "123456789012.dkr.ecr.eu-west-1.amazonaws.com/calc:v3", AutoUpdate: &no},
			{Name: "chat", Image: "123456789012.dkr.ecr.eu-west-1.amazonaws.com/chat:v1"},
		},
		Retention: &config.Retention{
			Repositories: []string{"calc", "chat"},
			Keep:         &keep,
		},
		Validation: &config.Validation{
			Qualifier: "PROD",
			Timeout:   "90s",
			Prompts:   []string{"ping"},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Load() (-got +want)\n%s", diff)
	}

	if rt := got.Runtime("chat"); rt == nil || rt.Name != "chat" {
		t.Errorf("Runtime(chat) = %v", rt)
	}
	if rt := got.Runtime("nope"); rt != nil {
		t.Errorf("Runtime(nope) = %v, want nil", rt)
	}
	d, err := got.Validation.CaseTimeout()
	if err != nil || d != 90*time.Second {
		t.Errorf("CaseTimeout() = %v, %v", d, err)
	}
}

func TestLoader_Load_empty(t *testing.T) {
	l := &config.Loader{}
	got, diags := l.Load(writeFile(t, "agentcore.hcl", ""))
	if diags.HasErrors() {
		t.Fatalf("Load() diags = %v", diags)
	}
	if diff := cmp.Diff(got, &config.Project{}); diff != "" {
		t.Errorf("Load() (-got +want)\n%s", diff)
	}
}

func TestLoader_Load_errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		summary string
	}{
		{"Syntax", `runtime "calc" {`, ""},
		{"Unknown", `foo = "bar"`, "Unsupported argument"},
		{"MissingImage", `runtime "calc" {}`, "Missing required argument"},
		{"NegativeKeep", "retention {\n keep = -1\n}", "Invalid value"},
		{"EmptyRepository", "retention {\n repositories = [\"\"]\n}", "Invalid value"},
		{"Duplicate", "runtime \"a\" {\n image = \"x\"\n}\nruntime \"a\" {\n image = \"y\"\n}", "Duplicate runtime"},
		{"Timeout", "validation {\n timeout = \"soon\"\n}", "Invalid timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &config.Loader{}
			got, diags := l.Load(writeFile(t, "agentcore.hcl", tt.src))
			if !diags.HasErrors() {
				t.Fatalf("Load() want error diagnostics")
			}
			if got != nil {
				t.Errorf("Load() = %v, want nil", got)
			}
			if tt.summary != "" && diags[0].Summary != tt.summary {
				t.Errorf("Summary = %q, want = %q", diags[0].Summary, tt.summary)
			}

			var buf bytes.Buffer
			l.WriteDiagnostics(&buf, diags)
			if !strings.Contains(buf.String(), "Error") {
				t.Errorf("WriteDiagnostics() = %q", buf.String())
			}
		})
	}
}

func TestLoader_Load_missingFile(t *testing.T) {
	l := &config.Loader{}
	_, diags := l.Load(filepath.Join(t.TempDir(), "nope.hcl"))
	if !diags.HasErrors() {
		t.Fatal("Load() want error diagnostics")
	}
}
