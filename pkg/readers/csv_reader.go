package readers

import (
	"bufio"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TFMV/tablediff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// CSVSource opens cursors over a CSV file through the Arrow CSV reader.
// Every column is decoded as a string: the engine compares cells for exact
// byte equality, so no type inference is wanted.
type CSVSource struct {
	path      string
	batchSize int64
}

// NewCSVSource creates a new CSV source.
func NewCSVSource(config core.SourceConfig) (core.TableSource, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV source")
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 10000 // Default chunk size
	}

	return &CSVSource{
		path:      config.Path,
		batchSize: batchSize,
	}, nil
}

// Name returns the file path of the source.
func (s *CSVSource) Name() string {
	return s.path
}

// Open creates a fresh cursor positioned at the first data row.
func (s *CSVSource) Open(ctx context.Context) (core.TableReader, error) {
	header, err := readCSVHeader(s.path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, &core.MalformedInputError{Path: s.path, Reason: "cannot open file", Err: err}
	}

	// All columns are strings, so the Arrow reader performs no parsing
	// beyond field splitting and the raw cell bytes survive intact.
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
	}
	schema := arrow.NewSchema(fields, nil)

	reader := csv.NewReader(
		file,
		schema,
		csv.WithHeader(true),
		csv.WithChunk(int(s.batchSize)),
		csv.WithComma(','),
		csv.WithAllocator(memory.NewGoAllocator()),
	)

	return &csvCursor{
		path:   s.path,
		header: header,
		file:   file,
		reader: reader,
	}, nil
}

// readCSVHeader parses the first line of the file into column names.
// The record format's quoting dialects are out of scope, so the header is
// split on plain commas.
func readCSVHeader(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &core.MalformedInputError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer file.Close()

	line, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, &core.MalformedInputError{Path: path, Line: 1, Reason: "cannot read header", Err: err}
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, &core.MalformedInputError{Path: path, Line: 1, Reason: "missing header"}
	}

	return strings.Split(line, ","), nil
}

// csvCursor is a forward-only row cursor over one CSV file.
type csvCursor struct {
	path   string
	header []string
	file   *os.File
	reader *csv.Reader

	batch    arrow.Record
	cols     []*array.String
	rowIdx   int
	batchLen int
	line     int // data rows consumed, for error context
}

// Header returns the ordered column names parsed from the first row.
func (c *csvCursor) Header() []string {
	return c.header
}

// Next returns the cells of the next row. Returns io.EOF when the file is
// exhausted.
func (c *csvCursor) Next(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for c.rowIdx >= c.batchLen {
		if err := c.advanceBatch(); err != nil {
			return nil, err
		}
	}

	row := make([]string, len(c.cols))
	for j, col := range c.cols {
		row[j] = col.Value(c.rowIdx)
	}
	c.rowIdx++
	c.line++
	return row, nil
}

// advanceBatch decodes the next record batch from the underlying reader.
func (c *csvCursor) advanceBatch() error {
	c.releaseBatch()

	if !c.reader.Next() {
		if err := c.reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			reason := "cannot decode row"
			if errors.Is(err, stdcsv.ErrFieldCount) {
				reason = fmt.Sprintf("row does not match header shape (%d columns)", len(c.header))
			}
			return &core.MalformedInputError{
				Path:   c.path,
				Line:   c.line + 2, // +1 for the header, +1 for the failing row
				Reason: reason,
				Err:    err,
			}
		}
		return io.EOF
	}

	batch := c.reader.Record()
	batch.Retain()
	c.batch = batch
	c.batchLen = int(batch.NumRows())
	c.rowIdx = 0

	c.cols = make([]*array.String, batch.NumCols())
	for j := range c.cols {
		c.cols[j] = batch.Column(j).(*array.String)
	}
	return nil
}

func (c *csvCursor) releaseBatch() {
	if c.batch != nil {
		c.batch.Release()
		c.batch = nil
	}
	c.cols = nil
	c.batchLen = 0
	c.rowIdx = 0
}

// Close closes the cursor and releases resources.
func (c *csvCursor) Close() error {
	c.releaseBatch()

	if c.reader != nil {
		c.reader.Release()
		c.reader = nil
	}

	if c.file != nil {
		err := c.file.Close()
		c.file = nil
		return err
	}
	return nil
}
