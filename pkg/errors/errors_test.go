package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNoMatch(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrNoMatch, true},
		{"wrapped once", fmt.Errorf("resolve project: %w", ErrNoMatch), true},
		{"wrapped twice", fmt.Errorf("handler: %w", fmt.Errorf("resolve: %w", ErrNoMatch)), true},
		{"different error", ErrMissingField, false},
		{"nil error", nil, false},
		{"unrelated error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNoMatch(tt.err); got != tt.want {
				t.Errorf("IsNoMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCredentialNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrCredentialNotFound, true},
		{"wrapped", fmt.Errorf("lookup %q: %w", "Иванов", ErrCredentialNotFound), true},
		{"different error", ErrNoMatch, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCredentialNotFound(tt.err); got != tt.want {
				t.Errorf("IsCredentialNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMissingField(t *testing.T) {
	if !IsMissingField(fmt.Errorf("%w: title", ErrMissingField)) {
		t.Error("wrapped ErrMissingField not detected")
	}
	if IsMissingField(ErrUnparseableDeadline) {
		t.Error("ErrUnparseableDeadline misdetected as missing field")
	}
}

func TestIsUnparseableDeadline(t *testing.T) {
	if !IsUnparseableDeadline(fmt.Errorf("parse %q: %w", "не дата", ErrUnparseableDeadline)) {
		t.Error("wrapped ErrUnparseableDeadline not detected")
	}
	if IsUnparseableDeadline(nil) {
		t.Error("nil misdetected")
	}
}
