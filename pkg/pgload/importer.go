package pgload

import "context"

// ImportRequest describes one batch: which files to import, how file names
// map to tables, and where to load them.
type ImportRequest struct {
	// Files are paths to the input files. Resolution uses the base name only.
	Files []string

	// Rules map file names to table specifications.
	Rules *ResolutionRules

	// Connection is the target database.
	Connection *ConnectionConfig

	// Options tune concurrency, chunking, and error tolerance.
	Options ImportOptions
}

// Importer is the main interface for executing batch imports.
// Implementations handle the full per-file workflow: resolution, target and
// staging DDL, streaming load, and the set-based merge.
type Importer interface {
	// Run executes a batch import. The returned BatchResult is always
	// populated, one outcome per requested file, even when err is non-nil.
	// A single failing file does not fail the batch; err reports conditions
	// that prevented the batch itself from running (bad configuration,
	// no database connection).
	Run(ctx context.Context, req *ImportRequest) (*BatchResult, error)
}
