package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/tablediff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// ArrowSource opens cursors over an Arrow IPC file. Cell values are
// rendered to strings, so arrow inputs compare under the same byte-equality
// rule as CSV inputs. Null cells render as the empty string, matching an
// empty CSV cell.
type ArrowSource struct {
	path string
}

// NewArrowSource creates a new Arrow IPC source.
func NewArrowSource(config core.SourceConfig) (core.TableSource, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow source")
	}
	return &ArrowSource{path: config.Path}, nil
}

// Name returns the file path of the source.
func (s *ArrowSource) Name() string {
	return s.path
}

// Open creates a fresh cursor positioned at the first data row.
func (s *ArrowSource) Open(ctx context.Context) (core.TableReader, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, &core.MalformedInputError{Path: s.path, Reason: "cannot open file", Err: err}
	}

	reader, err := ipc.NewFileReader(file)
	if err != nil {
		file.Close()
		return nil, &core.MalformedInputError{Path: s.path, Reason: "cannot read Arrow file", Err: err}
	}

	schema := reader.Schema()
	if schema.NumFields() == 0 {
		reader.Close()
		file.Close()
		return nil, &core.MalformedInputError{Path: s.path, Reason: "missing header"}
	}

	header := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}

	return &arrowCursor{
		path:   s.path,
		header: header,
		file:   file,
		reader: reader,
	}, nil
}

// arrowCursor is a forward-only row cursor over one Arrow IPC file.
type arrowCursor struct {
	path   string
	header []string
	file   *os.File
	reader *ipc.FileReader

	batch    arrow.Record
	batchIdx int
	rowIdx   int
}

// Header returns the column names from the file schema.
func (c *arrowCursor) Header() []string {
	return c.header
}

// Next returns the cells of the next row. Returns io.EOF when the file is
// exhausted.
func (c *arrowCursor) Next(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for c.batch == nil || c.rowIdx >= int(c.batch.NumRows()) {
		if err := c.advanceBatch(); err != nil {
			return nil, err
		}
	}

	row := make([]string, len(c.header))
	for j := range c.header {
		row[j] = formatCell(c.batch.Column(j), c.rowIdx)
	}
	c.rowIdx++
	return row, nil
}

// advanceBatch loads the next record batch from the file.
func (c *arrowCursor) advanceBatch() error {
	c.releaseBatch()

	if c.batchIdx >= c.reader.NumRecords() {
		return io.EOF
	}

	batch, err := c.reader.Record(c.batchIdx)
	if err != nil {
		return fmt.Errorf("failed to read record batch %d of %s: %w", c.batchIdx, c.path, err)
	}
	batch.Retain()
	c.batch = batch
	c.batchIdx++
	c.rowIdx = 0
	return nil
}

func (c *arrowCursor) releaseBatch() {
	if c.batch != nil {
		c.batch.Release()
		c.batch = nil
	}
	c.rowIdx = 0
}

// Close closes the cursor and releases resources.
func (c *arrowCursor) Close() error {
	c.releaseBatch()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
		c.reader = nil
	}

	if c.file != nil {
		if closeErr := c.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		c.file = nil
	}
	return err
}

// formatCell renders one array value as a string.
func formatCell(col arrow.Array, idx int) string {
	if col.IsNull(idx) {
		return ""
	}

	if s, ok := col.(*array.String); ok {
		return s.Value(idx)
	}

	val := col.GetOneForMarshal(idx)
	if val == nil {
		return ""
	}
	return fmt.Sprintf("%v", val)
}
