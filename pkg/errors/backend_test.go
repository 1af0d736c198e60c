package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBackendErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *BackendError
		want string
	}{
		{
			"code and description",
			&BackendError{Method: "tasks.task.add", Code: "ERROR_CORE", Description: "access denied"},
			"tasks.task.add: ERROR_CORE: access denied",
		},
		{
			"code only",
			&BackendError{Method: "tasks.task.delete", Code: "ERROR_TASK_NOT_FOUND"},
			"tasks.task.delete: ERROR_TASK_NOT_FOUND",
		},
		{
			"http status only",
			&BackendError{Method: "user.get", Status: 502},
			"user.get: http 502",
		},
		{
			"transport cause",
			&BackendError{Method: "sonet_group.get", Cause: errors.New("dial tcp: timeout")},
			"sonet_group.get: dial tcp: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackendErrorIsBackend(t *testing.T) {
	err := fmt.Errorf("create task: %w", &BackendError{Method: "tasks.task.add", Status: 500})
	if !IsBackend(err) {
		t.Error("wrapped BackendError not detected by IsBackend")
	}
	if !errors.Is(err, ErrBackend) {
		t.Error("errors.Is(err, ErrBackend) = false")
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &BackendError{Method: "user.search", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestBackendErrorRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *BackendError
		want bool
	}{
		{"server error", &BackendError{Status: 500}, true},
		{"rate limited", &BackendError{Status: 429}, true},
		{"query limit code", &BackendError{Status: 200, Code: "QUERY_LIMIT_EXCEEDED"}, true},
		{"not found", &BackendError{Status: 400, Code: "ERROR_TASK_NOT_FOUND"}, false},
		{"transport failure", &BackendError{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	wrapped := fmt.Errorf("listing tasks: %w", &BackendError{Method: "tasks.task.list", Status: 502})
	if !IsRetryable(wrapped) {
		t.Error("wrapped 502 should be retryable")
	}
	if IsRetryable(&BackendError{Status: 400, Code: "ERROR_ARGUMENT"}) {
		t.Error("client error should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("non-backend error should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
}
