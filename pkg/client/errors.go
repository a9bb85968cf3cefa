package client

import (
	"errors"
	"fmt"
	"time"
)

// APIError is returned when the agent service responds with a non-2xx
// status. It is raised before any response parsing begins.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent service: unexpected status %d: %s", e.Status, e.Body)
}

// TimeoutError is returned when a call's configured budget fires. The
// in-flight exchange is aborted and the whole call terminates.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent service: call timed out after %s", e.After)
}

// IsTimeout reports whether err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
