package modeladapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies why a request failed. Every kind is terminal for one
// invocation; nothing in this module retries.
type ErrorKind string

const (
	// KindConfig means the request could not be built from its configuration
	// (missing API key or model, unknown provider).
	KindConfig ErrorKind = "config_error"
	// KindNetwork means the HTTP exchange itself failed (DNS, TLS, timeout,
	// refused connection, cancellation).
	KindNetwork ErrorKind = "network_error"
	// KindAPI means the provider answered with a non-200 status.
	KindAPI ErrorKind = "api_error"
	// KindParse means the provider answered 200 with an unexpected shape.
	KindParse ErrorKind = "parse_error"
)

// Error is the failure half of a chat result.
type Error struct {
	Kind       ErrorKind
	Status     int           // HTTP status for KindAPI, zero otherwise.
	Detail     string        // Human readable message, safe to show an admin.
	RetryAfter time.Duration // Parsed Retry-After on 429 responses.
	Err        error         // Underlying cause, if any.
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// unknownAPIError is used when a failed response carries no readable message.
const unknownAPIError = "unknown API error"

// errorEnvelope covers the two error shapes providers use:
// {"error":{"message":...}} and {"message":...}.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// APIErrorMessage extracts the provider's own error text from a response
// body, preferring error.message over a top-level message.
func APIErrorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return unknownAPIError
	}
	if env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if env.Message != "" {
		return env.Message
	}
	return unknownAPIError
}

// NewAPIError builds the KindAPI error for a non-200 response.
func NewAPIError(status int, body []byte) *Error {
	return &Error{
		Kind:   KindAPI,
		Status: status,
		Detail: fmt.Sprintf("API error (%d): %s", status, APIErrorMessage(body)),
	}
}

// ParseRetryAfter parses the Retry-After header value as either seconds (integer)
// or an HTTP-date (RFC 7231). Returns zero if unparseable or if the date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
		return 0
	}
	return 0
}
