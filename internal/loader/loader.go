// Package loader streams CSV files into staging tables.
//
// Files are read once, front to back: bytes are checksummed, decoded to
// UTF-8, parsed as CSV, and appended to the staging table in fixed-size
// chunks over the store's bulk path. Peak memory is one chunk regardless of
// file size.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/vvka-141/pgload/internal/checksum"
	"github.com/vvka-141/pgload/internal/schema"
	"github.com/vvka-141/pgload/pkg/pgload"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RowError describes one malformed row that was skipped.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// LoadResult summarizes a completed staging load.
type LoadResult struct {
	// Columns is the header after column mapping, in file order. These are
	// the columns the staging table was populated with and the merge uses.
	Columns []string

	// RowsLoaded is the number of data rows appended to staging.
	RowsLoaded int64

	// RowErrors is the number of malformed rows skipped.
	RowErrors int

	// ErrorSamples holds the first few row errors for diagnostics.
	ErrorSamples []RowError

	// Checksum is the hex SHA-256 of the raw file bytes.
	Checksum string
}

// StreamingLoader appends CSV data to staging tables.
type StreamingLoader struct {
	conn   pgload.DBConnection
	logger pgload.Logger
	opts   pgload.ImportOptions
}

// NewStreamingLoader creates a loader.
// Panics if conn or logger is nil, as these are required dependencies.
func NewStreamingLoader(conn pgload.DBConnection, logger pgload.Logger, opts pgload.ImportOptions) *StreamingLoader {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StreamingLoader{conn: conn, logger: logger, opts: opts}
}

// ReadHeader reads just the mapped header columns from r. The orchestrator
// uses this cheap first pass to create the target table before any staging
// work; the subsequent Load call streams the file from the top again.
func ReadHeader(r io.Reader, spec *pgload.TableSpec) ([]string, error) {
	decoded, err := decodeReader(r, spec.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(decoded)
	cr.Comma = spec.DelimiterRune()
	cr.FieldsPerRecord = -1

	for i := 0; i < spec.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip %d leading row(s): %w: %w", spec.SkipRows, err, pgload.ErrHeaderRead)
		}
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w: %w", err, pgload.ErrHeaderRead)
	}

	return mapColumns(header, spec.ColumnMapping), nil
}

// Load streams r into the staging table described by staging.
//
// The header is read after spec.SkipRows raw records and mapped through
// spec.ColumnMapping. Data rows with the wrong field count are skipped and
// counted; once the error fraction exceeds the configured rate (after a
// minimum number of rows) the load fails with ErrRowErrorRateExceeded.
// A header that cannot be read fails immediately.
func (l *StreamingLoader) Load(ctx context.Context, r io.Reader, staging *schema.Staging, spec *pgload.TableSpec) (*LoadResult, error) {
	sum := checksum.NewReader(r)

	decoded, err := decodeReader(sum, spec.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(decoded)
	cr.Comma = spec.DelimiterRune()
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for i := 0; i < spec.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip %d leading row(s): %w: %w", spec.SkipRows, err, pgload.ErrHeaderRead)
		}
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w: %w", err, pgload.ErrHeaderRead)
	}

	columns := mapColumns(header, spec.ColumnMapping)

	// Lock the field count to the header width so ragged rows surface as
	// csv.ErrFieldCount from here on.
	cr.FieldsPerRecord = len(columns)

	result := &LoadResult{Columns: columns}

	chunkSize := l.opts.EffectiveChunkSize()
	chunk := make([][]any, 0, chunkSize)
	line := spec.SkipRows + 1 // header line number, 1-based

	// Good rows seen so far, including rows still buffered in the current
	// chunk. RowsLoaded only advances on flush, so it cannot serve as the
	// error-rate denominator.
	var rowsRead int64

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		n, err := l.conn.CopyFrom(ctx, staging.Schema, staging.Table, columns, chunk)
		if err != nil {
			return fmt.Errorf("bulk append to %s.%s failed: %w: %w", staging.Schema, staging.Table, err, pgload.ErrLoadFailed)
		}
		result.RowsLoaded += n
		chunk = chunk[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed reading row %d: %w: %w", line, err, pgload.ErrLoadFailed)
			}

			result.RowErrors++
			if len(result.ErrorSamples) < pgload.MaxRowErrorSamples {
				result.ErrorSamples = append(result.ErrorSamples, RowError{Line: line, Message: parseErr.Err.Error()})
			}
			if err := l.checkErrorRate(rowsRead, result); err != nil {
				return nil, err
			}
			continue
		}

		rowsRead++
		chunk = append(chunk, recordToRow(record))
		if len(chunk) == chunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	result.Checksum = sum.Sum()

	if result.RowErrors > 0 {
		l.logger.Warn("Skipped %d malformed row(s) while loading into %s.%s",
			result.RowErrors, staging.Schema, staging.Table)
	}

	return result, nil
}

// checkErrorRate enforces the malformed-row budget. It only fires once
// enough rows have been seen for the fraction to be meaningful. rowsRead is
// the count of good rows parsed so far, whether or not they have been
// flushed to staging yet.
func (l *StreamingLoader) checkErrorRate(rowsRead int64, result *LoadResult) error {
	total := rowsRead + int64(result.RowErrors)
	if total < int64(l.opts.EffectiveRowErrorMinRows()) {
		return nil
	}
	rate := float64(result.RowErrors) / float64(total)
	if rate > l.opts.EffectiveMaxRowErrorRate() {
		return fmt.Errorf("%d of %d rows malformed (%.1f%%, limit %.1f%%): %w",
			result.RowErrors, total, rate*100, l.opts.EffectiveMaxRowErrorRate()*100,
			pgload.ErrRowErrorRateExceeded)
	}
	return nil
}

// mapColumns renames header columns through the mapping; unmapped columns
// keep their file name.
func mapColumns(header []string, mapping map[string]string) []string {
	columns := make([]string, len(header))
	for i, col := range header {
		if mapped, ok := mapping[col]; ok {
			columns[i] = mapped
		} else {
			columns[i] = col
		}
	}
	return columns
}

// recordToRow converts CSV fields into bulk-append values. Empty fields
// become NULL, matching what COPY ... WITH CSV does for unquoted empties;
// this keeps IS DISTINCT FROM comparisons in the merge honest.
func recordToRow(record []string) []any {
	row := make([]any, len(record))
	for i, field := range record {
		if field == "" {
			row[i] = nil
		} else {
			row[i] = field
		}
	}
	return row
}

// decodeReader wraps r so the CSV parser always sees UTF-8. A leading UTF-8
// BOM is dropped either way. Encoding names are resolved through the IANA
// registry, so "windows-1252", "latin1" and friends all work.
func decodeReader(r io.Reader, encodingName string) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(encodingName))
	if name == "" || name == "utf-8" || name == "utf8" {
		return skipBOM(bufio.NewReader(r))
	}

	enc, err := ianaindex.IANA.Encoding(encodingName)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("encoding %q: %w", encodingName, pgload.ErrUnsupportedEncoding)
	}
	if enc == encoding.Nop {
		return skipBOM(bufio.NewReader(r))
	}

	return skipBOM(bufio.NewReader(transform.NewReader(r, enc.NewDecoder())))
}

func skipBOM(br *bufio.Reader) (io.Reader, error) {
	lead, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(lead, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}
	return br, nil
}
