// Package errors provides common domain error types for the b24bot application.
//
// This package defines sentinel errors for common domain conditions like "no
// match" or "credential not found" that can be used across all packages. Using
// typed errors enables consistent error handling patterns with errors.Is()
// checks.
//
// Usage:
//
//	import boterrors "github.com/taskbotics/b24bot/pkg/errors"
//
//	// Return a domain error
//	return 0, boterrors.ErrNoMatch
//
//	// Check for domain errors
//	if boterrors.IsNoMatch(err) {
//	    // handle the miss
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrCredentialNotFound indicates no webhook row exists for the user name.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrMissingField indicates a required function argument is absent or empty.
	ErrMissingField = errors.New("missing required field")

	// ErrNoMatch indicates fuzzy name resolution found no candidate.
	ErrNoMatch = errors.New("no match")

	// ErrUnparseableDeadline indicates a deadline expression was not understood.
	ErrUnparseableDeadline = errors.New("unparseable deadline")

	// ErrBackend indicates the portal REST backend rejected or failed a call.
	ErrBackend = errors.New("backend error")
)

// IsCredentialNotFound reports whether any error in err's chain is ErrCredentialNotFound.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound)
}

// IsMissingField reports whether any error in err's chain is ErrMissingField.
func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField)
}

// IsNoMatch reports whether any error in err's chain is ErrNoMatch.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}

// IsUnparseableDeadline reports whether any error in err's chain is ErrUnparseableDeadline.
func IsUnparseableDeadline(err error) bool {
	return errors.Is(err, ErrUnparseableDeadline)
}

// IsBackend reports whether any error in err's chain is ErrBackend.
func IsBackend(err error) bool {
	return errors.Is(err, ErrBackend)
}

// IsRetryable reports whether err is a transient backend failure. The client
// never reissues a request itself, so this is advice for whoever reads the
// failure, not a trigger for automatic retries.
func IsRetryable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Retryable()
}
