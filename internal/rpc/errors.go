package rpc

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FatalRPCError marks a non-retryable node response, i.e. a 4xx HTTP
// status other than 429 or a JSON-RPC error that will not resolve on retry.
type FatalRPCError struct {
	Method     string
	StatusCode int
	Cause      error
}

func (e *FatalRPCError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fatal rpc error on %s (status %d): %v", e.Method, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("fatal rpc error on %s: %v", e.Method, e.Cause)
}

func (e *FatalRPCError) Unwrap() error {
	return e.Cause
}

// UnavailableError is returned when a call exhausted its retry budget.
// It carries the last underlying cause.
type UnavailableError struct {
	Method   string
	Attempts int
	Elapsed  time.Duration
	Cause    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("rpc unavailable (%s): all %d attempts failed after %v (last error: %v)",
		e.Method, e.Attempts, e.Elapsed, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// jsonRPCError is the error object of a JSON-RPC response.
type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonRPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRateLimited reports whether the error indicates node-side rate limiting.
// Rate-limited calls double the next backoff wait.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "rate limit")
}

// IsFatal reports whether the error is a non-retryable node response.
func IsFatal(err error) bool {
	var fatal *FatalRPCError
	return errors.As(err, &fatal)
}
