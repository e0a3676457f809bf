package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/hcl2/gohcl"
	"github.com/hashicorp/hcl2/hcl"
	"github.com/hashicorp/hcl2/hclparse"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/go-playground/validator.v9"
)

// DefaultFile is the project file loaded when it exists.
const DefaultFile = "agentcore.hcl"

// A Project is the contents of a project file.
type Project struct {
	Region   string `hcl:"region,optional"`
	RoleFile string `hcl:"role_file,optional"`
	Record   string `hcl:"record,optional"`

	Runtimes   []Runtime   `hcl:"runtime,block" validate:"dive"`
	Retention  *Retention  `hcl:"retention,block"`
	Validation *Validation `hcl:"validation,block"`
}

// Runtime returns the runtime with the given name, or nil if it is not
// configured.
func (p *Project) Runtime(name string) *Runtime {
	for i := range p.Runtimes {
		if p.Runtimes[i].Name == name {
			return &p.Runtimes[i]
		}
	}
	return nil
}

// A Runtime is the desired state of a runtime.
type Runtime struct {
	Name       string `hcl:"name,label" validate:"required,max=48"`
	Image      string `hcl:"image" validate:"required"`
	AutoUpdate *bool  `hcl:"auto_update,optional"`
}

// Retention configures image pruning.
type Retention struct {
	Repositories []string `hcl:"repositories,optional" validate:"dive,required"`
	Keep         *int     `hcl:"keep,optional" validate:"omitempty,gte=0"`
}

// Validation configures the validation harness.
type Validation struct {
	Qualifier string   `hcl:"qualifier,optional"`
	Timeout   string   `hcl:"timeout,optional"`
	Prompts   []string `hcl:"prompts,optional" validate:"dive,required"`
}

// CaseTimeout returns the parsed timeout. Returns zero if not set.
func (v *Validation) CaseTimeout() (time.Duration, error) {
	if v == nil || v.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

var check = validator.New()

// A Loader loads project files. The zero value is ready to use.
type Loader struct {
	parser *hclparse.Parser
}

// Load loads a project file.
func (l *Loader) Load(filename string) (*Project, hcl.Diagnostics) {
	if l.parser == nil {
		l.parser = hclparse.NewParser()
	}
	f, diags := l.parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, diags
	}

	p := &Project{}
	diags = gohcl.DecodeBody(f.Body, nil, p)
	if diags.HasErrors() {
		return nil, diags
	}

	if err := check.Struct(p); err != nil {
		rng := f.Body.MissingItemRange()
		for _, fe := range err.(validator.ValidationErrors) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid value",
				Detail:   fmt.Sprintf("%s failed validation: %s", fieldPath(fe.Namespace()), fe.Tag()),
				Subject:  &rng,
			})
		}
		return nil, diags
	}

	seen := make(map[string]bool, len(p.Runtimes))
	for _, rt := range p.Runtimes {
		if seen[rt.Name] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate runtime",
				Detail:   fmt.Sprintf("Runtime %q is declared more than once.", rt.Name),
			})
		}
		seen[rt.Name] = true
	}
	if _, err := p.Validation.CaseTimeout(); err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid timeout",
			Detail:   fmt.Sprintf("validation.timeout: %v", err),
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return p, diags
}

// fieldPath converts a validator namespace to a lower case path without the
// root struct name.
//
//   Project.Retention.Keep -> retention.keep
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// WriteDiagnostics writes diagnostics as a human readable string to w. It
// should only be used for diagnostics that originate from files loaded by
// the Loader.
//
// If a TTY is attached, the output will be colorized and wrap at the terminal
// width. Otherwise, wrap will occur at 78 characters and output won't contain
// ANSI escape characters.
func (l *Loader) WriteDiagnostics(w io.Writer, diags hcl.Diagnostics) {
	var files map[string]*hcl.File
	if l.parser != nil {
		files = l.parser.Files()
	}
	cols, _, err := terminal.GetSize(0)
	if err != nil {
		cols = 78
	}
	color := terminal.IsTerminal(0)
	wr := hcl.NewDiagnosticTextWriter(w, files, uint(cols), color)
	if err := wr.WriteDiagnostics(diags); err != nil {
		fmt.Fprintln(w, err)
	}
}
