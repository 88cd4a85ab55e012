package pgload

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	result, err := importer.Run(ctx, files, rules, conn)
//	if errors.Is(err, pgload.ErrInvalidConfig) {
//	    // Handle malformed project configuration
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported auth method")

	// ErrUnsupportedEncoding indicates the spec names a text codec the loader
	// cannot resolve.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrHeaderRead indicates the header row could not be decoded; without it
	// the target columns are unknown, so the file cannot be loaded.
	ErrHeaderRead = errors.New("cannot read header row")

	// ErrRowErrorRateExceeded indicates too many malformed data rows;
	// the file is failed rather than silently thinned out.
	ErrRowErrorRateExceeded = errors.New("row error rate exceeded")

	// ErrLoadFailed indicates the bulk append into staging failed.
	ErrLoadFailed = errors.New("load failed")

	// ErrMergeFailed indicates the staging-to-target merge failed.
	ErrMergeFailed = errors.New("merge failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedEncoding):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrLoadFailed), errors.Is(err, ErrMergeFailed):
		return ExitImportFailed
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
