package agent

import "io"

// A Response is the result of invoking a runtime. It is one of
// *StreamResponse, *InlineResponse or *StatusResponse.
type Response interface {
	response()
}

// StreamResponse carries the result as a streamed body. The receiver must
// close Body.
type StreamResponse struct {
	Body      io.ReadCloser
	SessionID string
}

// InlineResponse carries the result in memory.
type InlineResponse struct {
	Payload []byte

	// Encoding is the transport encoding of Payload. Empty for raw bytes,
	// "base64" for base64 encoded text.
	Encoding string
}

// StatusResponse is returned when the runtime acknowledged the request
// without returning content.
type StatusResponse struct {
	StatusCode int
	SessionID  string
}

func (*StreamResponse) response() {}
func (*InlineResponse) response() {}
func (*StatusResponse) response() {}
