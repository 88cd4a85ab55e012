// Package services wires resolution, DDL, loading, and merging into the
// batch import workflow.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/internal/loader"
	"github.com/vvka-141/pgload/internal/merge"
	"github.com/vvka-141/pgload/internal/resolve"
	"github.com/vvka-141/pgload/internal/schema"
	"github.com/vvka-141/pgload/pkg/pgload"
)

type connFunc func(ctx context.Context, cfg *pgload.ConnectionConfig) (pgload.DBConnection, func(), error)

// ImportService implements the Importer interface.
//
// Thread-Safety: safe for concurrent Run() calls; all per-batch state lives
// on the stack of Run.
type ImportService struct {
	connectorFactory func(*pgload.ConnectionConfig) (pgload.Connector, error)
	logger           pgload.Logger
	connect          connFunc
}

// NewImportService creates an ImportService with all dependencies injected.
//
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup, not surface as nil dereferences mid-batch. Runtime
// conditions (bad config, unreachable database, unreadable files) are
// returned as errors or recorded per file.
func NewImportService(
	connectorFactory func(*pgload.ConnectionConfig) (pgload.Connector, error),
	logger pgload.Logger,
) *ImportService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	svc := &ImportService{
		connectorFactory: connectorFactory,
		logger:           logger,
	}
	svc.connect = svc.defaultConnect
	return svc
}

// defaultConnect dials the target database and wraps the pool as a
// DBConnection. Tests substitute their own connFunc.
func (s *ImportService) defaultConnect(ctx context.Context, cfg *pgload.ConnectionConfig) (pgload.DBConnection, func(), error) {
	connector, err := s.connectorFactory(cfg)
	if err != nil {
		return nil, nil, err
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return db.NewPoolAdapter(pool), pool.Close, nil
}

// Run executes a batch import.
//
// Every file gets its own outcome; a failing file is recorded and the batch
// moves on. Files destined for the same target table are serialized, files
// for different tables run concurrently up to Options.Workers.
func (s *ImportService) Run(ctx context.Context, req *pgload.ImportRequest) (*pgload.BatchResult, error) {
	result := &pgload.BatchResult{
		JobID:     uuid.New().String(),
		StartedAt: time.Now(),
		Outcomes:  make([]pgload.FileOutcome, len(req.Files)),
	}
	for i, path := range req.Files {
		result.Outcomes[i] = pgload.FileOutcome{
			Filename: filepath.Base(path),
			Status:   pgload.StatusPending,
		}
	}

	if err := validateRequest(req); err != nil {
		result.CompletedAt = time.Now()
		result.Finalize()
		return result, err
	}

	conn, closeConn, err := s.connect(ctx, req.Connection)
	if err != nil {
		result.CompletedAt = time.Now()
		result.Finalize()
		return result, err
	}
	defer closeConn()
	pipeline := &filePipeline{
		schemaMgr: schema.NewManager(conn, s.logger),
		loader:    loader.NewStreamingLoader(conn, s.logger, req.Options),
		upserter:  merge.NewUpserter(conn, s.logger),
		logger:    s.logger,
		rules:     req.Rules,
		timeout:   req.Options.FileTimeout,
		locks:     newTableLocks(),
	}

	s.logger.Info("Starting import job %s: %d file(s), %d worker(s)",
		result.JobID, len(req.Files), req.Options.EffectiveWorkers())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Options.EffectiveWorkers())

	for i, path := range req.Files {
		g.Go(func() error {
			pipeline.processFile(gctx, path, &result.Outcomes[i])
			return nil
		})
	}

	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()

	result.CompletedAt = time.Now()
	result.Finalize()

	s.logger.Info("Import job %s %s: %d processed, %d failed, %d skipped, %d inserted, %d updated",
		result.JobID, result.Status,
		result.FilesProcessed, result.FilesFailed, result.FilesSkipped,
		result.TotalInserted, result.TotalUpdated)

	return result, ctx.Err()
}

func validateRequest(req *pgload.ImportRequest) error {
	if req.Rules == nil {
		return fmt.Errorf("resolution rules are required: %w", pgload.ErrInvalidConfig)
	}
	var errs []error
	for i := range req.Rules.Explicit {
		if err := req.Rules.Explicit[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tables[%d] (%s): %w", i, req.Rules.Explicit[i].FilePattern, err))
		}
	}
	if req.Rules.Defaults != nil && len(req.Rules.Defaults.PrimaryKey) == 0 {
		errs = append(errs, fmt.Errorf("defaults: primary_key is required: %w", pgload.ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// filePipeline carries the per-batch collaborators through the per-file
// state machine.
type filePipeline struct {
	schemaMgr *schema.Manager
	loader    *loader.StreamingLoader
	upserter  *merge.Upserter
	logger    pgload.Logger
	rules     *pgload.ResolutionRules
	timeout   time.Duration
	locks     *tableLocks
}

// processFile drives one file from Pending to a terminal state. All
// failures end in StatusFailed on the outcome; nothing escapes as an error.
func (p *filePipeline) processFile(ctx context.Context, path string, outcome *pgload.FileOutcome) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	outcome.Status = pgload.StatusResolving

	spec, err := resolve.Resolve(outcome.Filename, p.rules)
	if err != nil {
		p.fail(outcome, err)
		return
	}
	if spec == nil {
		outcome.Status = pgload.StatusSkipped
		p.logger.Verbose("Skipping %s: no matching table configuration", outcome.Filename)
		return
	}

	outcome.ResolvedTable = spec.TargetTable
	outcome.Schema = spec.SchemaName()

	columns, err := p.peekHeader(path, spec)
	if err != nil {
		p.fail(outcome, err)
		return
	}

	// One file per target table at a time. Concurrent imports into the same
	// table would race on creation, truncation, and the merge itself.
	unlock := p.locks.lock(spec.SchemaName(), spec.TargetTable)
	defer unlock()

	if _, err := p.schemaMgr.EnsureTarget(ctx, spec, columns); err != nil {
		p.fail(outcome, err)
		return
	}

	if spec.Rebuild {
		if err := p.schemaMgr.Truncate(ctx, spec); err != nil {
			p.fail(outcome, err)
			return
		}
	}

	staging, err := p.schemaMgr.CreateStaging(ctx, spec)
	if err != nil {
		p.fail(outcome, err)
		return
	}
	defer func() {
		// Cleanup must run even when the file context is cancelled or timed
		// out; a leaked staging table survives until someone drops it.
		dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := p.schemaMgr.DropStaging(dropCtx, staging); err != nil {
			p.logger.Warn("Failed to drop staging table %s.%s: %v", staging.Schema, staging.Table, err)
		}
	}()

	outcome.Status = pgload.StatusLoading

	file, err := os.Open(path)
	if err != nil {
		p.fail(outcome, fmt.Errorf("cannot open input file: %w", err))
		return
	}
	loadResult, err := p.loader.Load(ctx, file, staging, spec)
	file.Close()
	if err != nil {
		p.fail(outcome, err)
		return
	}

	outcome.RowErrors = int64(loadResult.RowErrors)
	outcome.Checksum = loadResult.Checksum

	outcome.Status = pgload.StatusMerging

	mergeResult, err := p.upserter.Merge(ctx, staging, spec, loadResult.Columns, loadResult.RowsLoaded)
	if err != nil {
		p.fail(outcome, err)
		return
	}

	outcome.Inserted = mergeResult.Inserted
	outcome.Updated = mergeResult.Updated
	outcome.SkippedRows = mergeResult.Skipped
	outcome.Status = pgload.StatusDone

	p.logger.Info("Imported %s into %s.%s: %d inserted, %d updated, %d unchanged",
		outcome.Filename, outcome.Schema, outcome.ResolvedTable,
		outcome.Inserted, outcome.Updated, outcome.SkippedRows)
}

// peekHeader opens the file just long enough to read the mapped header.
// Target DDL needs the column list before the streaming load can start.
func (p *filePipeline) peekHeader(path string, spec *pgload.TableSpec) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open input file: %w", err)
	}
	defer file.Close()
	return loader.ReadHeader(file, spec)
}

func (p *filePipeline) fail(outcome *pgload.FileOutcome, err error) {
	outcome.Status = pgload.StatusFailed
	outcome.Error = err.Error()
	p.logger.Error("File %s failed: %v", outcome.Filename, err)
}

// tableLocks hands out one mutex per schema-qualified table name.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[string]*sync.Mutex)}
}

func (t *tableLocks) lock(schemaName, table string) (unlock func()) {
	key := schemaName + "." + table

	t.mu.Lock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
