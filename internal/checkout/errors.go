package checkout

import (
	"encoding/json"
	"strings"
)

const MessageMissingFields = "Missing required fields"

// ValidationError is a client error in a checkout request.
type ValidationError struct {
	Message  string
	Fields   []string
	Received json.RawMessage
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// UpstreamError wraps a failure of the payment processor.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return e.Err }
