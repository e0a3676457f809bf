// Package record contains the deployment record written after a successful
// reconcile.
//
// The text form is a flat key=value layout, one pair per line:
//
//   agent_arn=arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/calc-x1
//   agent_id=calc-x1
//   ecr_uri=123456789012.dkr.ecr.us-east-1.amazonaws.com/calc:v3
//
// A record is always written and read as a whole. A record missing any key
// is rejected, so a partial record is never observable.
package record

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Keys used in the text form.
const (
	KeyARN         = "agent_arn"
	KeyID          = "agent_id"
	KeyArtifactRef = "ecr_uri"
)

// A Record is a snapshot of a deployed runtime.
type Record struct {
	ARN         string
	ID          string
	ArtifactRef string
}

// Validate returns an error if any field is empty.
func (r *Record) Validate() error {
	var missing []string
	if r.ARN == "" {
		missing = append(missing, KeyARN)
	}
	if r.ID == "" {
		missing = append(missing, KeyID)
	}
	if r.ArtifactRef == "" {
		missing = append(missing, KeyArtifactRef)
	}
	if len(missing) > 0 {
		return errors.Errorf("incomplete record, missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// MarshalText encodes the record to its key=value form.
func (r *Record) MarshalText() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%s\n", KeyARN, r.ARN)
	fmt.Fprintf(&buf, "%s=%s\n", KeyID, r.ID)
	fmt.Fprintf(&buf, "%s=%s\n", KeyArtifactRef, r.ArtifactRef)
	return buf.Bytes(), nil
}

// UnmarshalText decodes the key=value form. Blank lines and lines starting
// with # are ignored, as are unknown keys. All known keys must be present.
func (r *Record) UnmarshalText(data []byte) error {
	var rec Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		eq := strings.IndexByte(text, '=')
		if eq <= 0 {
			return errors.Errorf("line %d: expected key=value", line)
		}
		key, value := strings.TrimSpace(text[:eq]), strings.TrimSpace(text[eq+1:])
		switch key {
		case KeyARN:
			rec.ARN = value
		case KeyID:
			rec.ID = value
		case KeyArtifactRef:
			rec.ArtifactRef = value
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "scan record")
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	*r = rec
	return nil
}
