package chat

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRequestInFlight = errors.New("a request is already in flight")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrStaleRequest    = errors.New("request is not the one in flight")
)

// NetworkError means no response was obtained from the backend.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "network error"
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError means the backend answered but reported a failure.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error (%d)", e.StatusCode)
}

// describeFailure returns the user-facing text for a failed request.
func describeFailure(err error) string {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		if backendErr.Message != "" {
			return "The assistant returned an error: " + backendErr.Message
		}
		if backendErr.StatusCode > 0 {
			return fmt.Sprintf("The assistant returned an error (%d %s). Please try again.",
				backendErr.StatusCode, http.StatusText(backendErr.StatusCode))
		}
		return "The assistant returned an error. Please try again."
	}
	// Anything else never produced a response.
	return "Could not reach the assistant. Check your connection and try again."
}
