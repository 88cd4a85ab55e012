package pgload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Import completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitImportFailed    = 12 // Every file in the batch failed
)

const (
	// DefaultChunkSize is the number of rows buffered per bulk append.
	DefaultChunkSize = 10000

	// DefaultMaxRowErrorRate is the fraction of malformed rows tolerated
	// before the whole file is failed.
	DefaultMaxRowErrorRate = 0.05

	// DefaultRowErrorMinRows is the number of rows read before the
	// row-error rate is enforced.
	DefaultRowErrorMinRows = 100

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// MaxRowErrorSamples caps the number of malformed-row messages retained
	// per file; beyond that only the count grows.
	MaxRowErrorSamples = 10
)
