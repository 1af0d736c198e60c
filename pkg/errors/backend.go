package errors

import (
	"fmt"
	"net/http"
)

// BackendError is a structured error for portal REST failures. It carries the
// calling method and whatever the portal reported, so callers can log one
// line and decide whether a retry makes sense.
type BackendError struct {
	Method      string // REST method, e.g. "tasks.task.add"
	Status      int    // HTTP status, 0 when the request never completed
	Code        string // portal error code, e.g. "ERROR_TASK_NOT_FOUND"
	Description string // portal error_description, if any
	Cause       error
}

func (e *BackendError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: %s", e.Method, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Method, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s: http %d", e.Method, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Method, e.Cause)
	}
	return fmt.Sprintf("%s: backend error", e.Method)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Is makes every BackendError satisfy errors.Is(err, ErrBackend).
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// Retryable reports whether the failure is transient. Rate limiting and
// server-side errors are worth a retry; everything else is not.
func (e *BackendError) Retryable() bool {
	if e.Status == http.StatusTooManyRequests || e.Status >= 500 {
		return true
	}
	return e.Code == "QUERY_LIMIT_EXCEEDED" || e.Code == "OPERATION_TIME_LIMIT"
}
