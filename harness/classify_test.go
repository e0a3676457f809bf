package harness

import (
	"encoding/base64"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

func stream(body string) *agent.StreamResponse {
	return &agent.StreamResponse{Body: ioutil.NopCloser(strings.NewReader(body))}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		resp        agent.Response
		wantSummary string
		wantState   State
		wantErr     bool
	}{
		{"Content", stream(`{"content": "4", "message": "no"}`), "4", ParsedOK, false},
		{"Message", stream(`{"message": "hello", "text": "no"}`), "hello", ParsedOK, false},
		{"Text", stream(`{"text": "hi"}`), "hi", ParsedOK, false},
		{"NonStringField", stream(`{"content": [{"text": "4"}]}`), `[{"text":"4"}]`, ParsedOK, false},
		{"OtherObject", stream(`{"result": 4}`), `{"result":4}`, ParsedOK, false},
		{"Scalar", stream(`42`), "42", ParsedOK, false},
		{"JSONString", stream(`"four"`), "four", ParsedOK, false},
		{"PlainText", stream("The answer is 4"), "The answer is 4", ParsedFallback, false},
		{"InvalidUTF8", stream("\xff\xfe"), "", Failed, true},
		{"ReadError", &agent.StreamResponse{Body: ioutil.NopCloser(io.Reader(errReader{}))}, "", Failed, true},
		{"NoBody", &agent.StreamResponse{}, "", Failed, true},
		{"NilStream", (*agent.StreamResponse)(nil), "", Failed, true},
		{"Inline", &agent.InlineResponse{Payload: []byte("4")}, "4", ParsedOK, false},
		{
			"InlineBase64",
			&agent.InlineResponse{Payload: []byte(base64.StdEncoding.EncodeToString([]byte("4"))), Encoding: "base64"},
			"4", ParsedOK, false,
		},
		{"InlineBadBase64", &agent.InlineResponse{Payload: []byte("!!"), Encoding: "base64"}, "", Failed, true},
		{"InlineInvalidUTF8", &agent.InlineResponse{Payload: []byte("\xff\xfe")}, "", Failed, true},
		{
			"InlineBase64InvalidUTF8",
			&agent.InlineResponse{Payload: []byte(base64.StdEncoding.EncodeToString([]byte("\xff"))), Encoding: "base64"},
			"", Failed, true,
		},
		{"NilInline", (*agent.InlineResponse)(nil), "", Failed, true},
		{"NilStatus", (*agent.StatusResponse)(nil), "", Failed, true},
		{"InlineUnknownEncoding", &agent.InlineResponse{Payload: []byte("4"), Encoding: "gzip"}, "", Failed, true},
		{"Status", &agent.StatusResponse{StatusCode: 200}, "HTTP 200", ParsedOK, false},
		{"StatusDefault", &agent.StatusResponse{SessionID: "abc"}, "HTTP 200, session abc", ParsedOK, false},
		{"Nil", nil, "", Failed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, state, err := classify(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("classify() err = %v, wantErr = %t", err, tt.wantErr)
			}
			if summary != tt.wantSummary {
				t.Errorf("Summary = %q, want = %q", summary, tt.wantSummary)
			}
			if state != tt.wantState {
				t.Errorf("State = %v, want = %v", state, tt.wantState)
			}
		})
	}
}
