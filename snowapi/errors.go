package snowapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidBatch is returned when a multi-statement batch is misused.
var ErrInvalidBatch = errors.New("snowapi: invalid multi-statement batch")

// TransportError means the request could not be sent or its response not read.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a response body did not have the expected JSON shape.
type DecodeError struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnknownStatusError carries an HTTP status the client does not classify.
type UnknownStatusError struct {
	Op         string
	StatusCode int
	Body       []byte
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("%s: unknown error with status code: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

// RateLimitedError is returned by status polls answered with 429, 503 or 504.
// The statement is still pending; poll again later.
type RateLimitedError struct {
	StatusCode int
	Handle     StatementHandle
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests for statement %s with status code: %d, try again shortly", e.Handle, e.StatusCode)
}

// QueryFailureStatus is the terminal failure payload of a statement (422).
type QueryFailureStatus struct {
	Code               string          `json:"code"`
	SQLState           string          `json:"sqlState"`
	Message            string          `json:"message"`
	StatementHandle    StatementHandle `json:"statementHandle"`
	CreatedOn          *int64          `json:"createdOn,omitempty"`
	StatementStatusURL *string         `json:"statementStatusUrl,omitempty"`
}

func (e *QueryFailureStatus) Error() string {
	return fmt.Sprintf("Error for statement %s: %s (code %s, sql state %s)", e.StatementHandle, e.Message, e.Code, e.SQLState)
}

// IsRetryable reports whether err only means "poll again later".
func IsRetryable(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

func isRateLimited(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
