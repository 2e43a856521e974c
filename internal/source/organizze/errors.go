package organizze

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("organizze: email and token are required")
	ErrUnauthorized  = errors.New("organizze: invalid credentials")
)

// APIError is a non-2xx answer from the Organizze API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("organizze API error: %s (status=%d, endpoint=%s)", e.Message, e.StatusCode, e.Endpoint)
}

// Is makes errors.Is(err, ErrUnauthorized) hold for 401 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == 401
}

// IsRetryable returns true if the error might succeed on retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
