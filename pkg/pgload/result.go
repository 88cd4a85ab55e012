package pgload

import "time"

// FileStatus tracks a file through the per-file state machine:
//
//	Pending → Resolving → Loading → Merging → Done
//	Pending → Resolving → Skipped          (no configuration match)
//	        → Failed                        (from Resolving, Loading, or Merging)
//
// Failed is a normal terminal state recorded in data, not an error unwound
// through the orchestrator.
type FileStatus string

const (
	StatusPending   FileStatus = "pending"
	StatusResolving FileStatus = "resolving"
	StatusLoading   FileStatus = "loading"
	StatusMerging   FileStatus = "merging"
	StatusDone      FileStatus = "done"
	StatusSkipped   FileStatus = "skipped"
	StatusFailed    FileStatus = "failed"
)

// Terminal returns true for states no further transition leaves.
func (s FileStatus) Terminal() bool {
	return s == StatusDone || s == StatusSkipped || s == StatusFailed
}

// FileOutcome is the immutable record of one file's fate within a batch.
// JSON tags exist so callers (webhook/notification layers) can serialize
// results without re-mapping fields.
type FileOutcome struct {
	Filename      string     `json:"filename"`
	ResolvedTable string     `json:"resolved_table,omitempty"`
	Schema        string     `json:"schema,omitempty"`
	Inserted      int64      `json:"inserted"`
	Updated       int64      `json:"updated"`
	SkippedRows   int64      `json:"skipped_rows"` // rows with existing keys and no changed columns
	RowErrors     int64      `json:"row_errors"`   // malformed rows dropped during loading
	Checksum      string     `json:"checksum,omitempty"`
	Status        FileStatus `json:"status"`
	Error         string     `json:"error,omitempty"`
}

// Succeeded reports whether the file reached the Done state.
func (o *FileOutcome) Succeeded() bool {
	return o.Status == StatusDone
}

// BatchStatus summarizes a whole batch.
type BatchStatus string

const (
	BatchCompleted BatchStatus = "completed" // every non-skipped file succeeded
	BatchPartial   BatchStatus = "partial"   // mixed outcomes
	BatchFailed    BatchStatus = "failed"    // no file succeeded
)

// BatchResult aggregates the per-file outcomes of one engine invocation.
// The engine constructs it once per Run call and holds no state across calls.
type BatchResult struct {
	JobID       string        `json:"job_id"`
	Status      BatchStatus   `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Outcomes    []FileOutcome `json:"file_results"`

	FilesProcessed   int   `json:"files_processed"`
	FilesFailed      int   `json:"files_failed"`
	FilesSkipped     int   `json:"files_skipped"`
	TotalInserted    int64 `json:"total_inserted"`
	TotalUpdated     int64 `json:"total_updated"`
	TotalSkippedRows int64 `json:"total_skipped_rows"`
}

// Duration returns the wall-clock time the batch took.
func (r *BatchResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Finalize computes the aggregate counters and status from the outcomes.
// Skipped files contribute to no counter except FilesSkipped.
func (r *BatchResult) Finalize() {
	r.FilesProcessed = 0
	r.FilesFailed = 0
	r.FilesSkipped = 0
	r.TotalInserted = 0
	r.TotalUpdated = 0
	r.TotalSkippedRows = 0

	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		switch o.Status {
		case StatusDone:
			r.FilesProcessed++
			r.TotalInserted += o.Inserted
			r.TotalUpdated += o.Updated
			r.TotalSkippedRows += o.SkippedRows
		case StatusSkipped:
			r.FilesSkipped++
		default:
			r.FilesFailed++
		}
	}

	switch {
	case r.FilesProcessed > 0 && r.FilesFailed == 0:
		r.Status = BatchCompleted
	case r.FilesProcessed > 0:
		r.Status = BatchPartial
	default:
		r.Status = BatchFailed
	}
}
