package medical

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure for callers that report it upstream.
type ErrorKind string

const (
	KindTransport         ErrorKind = "transport"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindNoMatch           ErrorKind = "no_match"
	KindRemoteRejection   ErrorKind = "remote_rejection"
	KindInvalidInput      ErrorKind = "invalid_input"
)

// Error is returned by every Client operation.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// APIError is the error object the API returns with non-2xx responses.
type APIError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (status %d, %s): %s", e.Status, e.Code, e.Message)
}

// decodeAPIError builds an APIError from a response body, falling back to
// the raw body when it is not an API error object.
func decodeAPIError(status int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Object != "error" {
		return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	if apiErr.Status == 0 {
		apiErr.Status = status
	}
	return &apiErr
}
