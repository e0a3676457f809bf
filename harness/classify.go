package harness

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"unicode/utf8"

	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

// SummaryFields are the object fields that hold the response content, in
// priority order.
var SummaryFields = []string{"content", "message", "text"}

// classify extracts a summary from a response.
func classify(resp agent.Response) (string, State, error) {
	switch r := resp.(type) {
	case *agent.StreamResponse:
		if r == nil || r.Body == nil {
			return "", Failed, errors.New("response has no body")
		}
		defer r.Body.Close()
		data, err := ioutil.ReadAll(r.Body)
		if err != nil {
			return "", Failed, errors.Wrap(err, "read response")
		}
		if !utf8.Valid(data) {
			return "", Failed, errors.New("response is not valid utf-8")
		}
		if s, ok := summarize(data); ok {
			return s, ParsedOK, nil
		}
		return string(data), ParsedFallback, nil
	case *agent.InlineResponse:
		if r == nil {
			return "", Failed, errors.New("response has no payload")
		}
		data := r.Payload
		switch r.Encoding {
		case "":
		case "base64":
			dec, err := base64.StdEncoding.DecodeString(string(data))
			if err != nil {
				return "", Failed, errors.Wrap(err, "decode payload")
			}
			data = dec
		default:
			return "", Failed, errors.Errorf("unsupported payload encoding %q", r.Encoding)
		}
		if !utf8.Valid(data) {
			return "", Failed, errors.New("payload is not valid utf-8")
		}
		return string(data), ParsedOK, nil
	case *agent.StatusResponse:
		if r == nil {
			return "", Failed, errors.New("response has no status")
		}
		code := r.StatusCode
		if code == 0 {
			code = 200
		}
		s := fmt.Sprintf("HTTP %d", code)
		if r.SessionID != "" {
			s += ", session " + r.SessionID
		}
		return s, ParsedOK, nil
	default:
		return "", Failed, errors.Errorf("unexpected response %T", resp)
	}
}

// summarize decodes data as JSON. If data is an object with one of the
// SummaryFields, the field is returned. Otherwise the whole value is.
func summarize(data []byte) (string, bool) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return "", false
	}
	if obj, ok := v.(map[string]interface{}); ok {
		for _, f := range SummaryFields {
			if x, ok := obj[f]; ok {
				return display(x), true
			}
		}
	}
	return display(v), true
}

func display(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
