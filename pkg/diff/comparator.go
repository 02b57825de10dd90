// Package diff compares two sorted row streams and emits their
// discrepancies as a lazy stream.
package diff

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/tablediff/logger"
	"github.com/TFMV/tablediff/metrics"
	"github.com/TFMV/tablediff/pkg/core"
	"github.com/TFMV/tablediff/pkg/extsort"
	"github.com/TFMV/tablediff/pkg/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Differ compares two table sources chunk by chunk. For each column chunk
// both inputs are re-read, projected to the identifier plus the chunk's
// columns, externally sorted by identifier, and merge-joined. More chunks
// mean more sort passes but smaller rows per pass; that trade-off is the
// caller's via CompareOptions.ColumnGroupWidth.
type Differ struct {
	opts   core.CompareOptions
	sorter *extsort.Sorter
	log    *zap.Logger
}

// NewDiffer creates a new Differ. Configuration errors surface here,
// before any input is read.
func NewDiffer(opts core.CompareOptions) (*Differ, error) {
	if opts.ColumnGroupWidth < 0 {
		return nil, &core.ConfigError{Field: "column group width", Reason: "must not be negative"}
	}

	sorter, err := extsort.NewSorter(extsort.Options{
		BudgetRows: opts.SortBudgetRows,
		ScratchDir: opts.ScratchDir,
	})
	if err != nil {
		return nil, err
	}

	return &Differ{
		opts:   opts,
		sorter: sorter,
		log:    logger.GetLogger(),
	}, nil
}

// Compare reconciles the two schemas and returns the lazy diff stream.
// No rows are sorted until the stream is first pulled, and a consumer that
// stops early only pays for the chunks it reached.
func (d *Differ) Compare(ctx context.Context, a, b core.TableSource) (*Stream, error) {
	headerA, err := readHeader(ctx, a)
	if err != nil {
		return nil, err
	}
	headerB, err := readHeader(ctx, b)
	if err != nil {
		return nil, err
	}

	mapping, err := schema.Reconcile(headerA, headerB, d.opts.StrictColumnOrder)
	if err != nil {
		return nil, err
	}

	chunks, err := schema.Partition(mapping, d.opts.ColumnGroupWidth)
	if err != nil {
		return nil, err
	}

	d.log.Info("comparison configured",
		zap.String("file_a", a.Name()),
		zap.String("file_b", b.Name()),
		zap.Bool("strict_column_order", d.opts.StrictColumnOrder),
		zap.Int("columns", len(mapping.Columns)),
		zap.Int("chunks", len(chunks)),
	)

	summary := metrics.NewCompareSummary(a.Name(), b.Name())
	summary.Chunks = len(chunks)

	return &Stream{
		differ:  d,
		a:       a,
		b:       b,
		chunks:  chunks,
		summary: summary,
	}, nil
}

func readHeader(ctx context.Context, src core.TableSource) ([]string, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return append([]string(nil), r.Header()...), nil
}

// Stream is the lazy diff sequence over all column chunks and implements
// core.DiffReader. Chunk pipelines are built on demand: the next chunk's
// sort passes start only after the previous chunk is drained.
type Stream struct {
	differ  *Differ
	a, b    core.TableSource
	chunks  []schema.Chunk
	summary *metrics.CompareSummary

	chunkIdx int
	chunk    schema.Chunk
	curA     *extsort.Cursor
	curB     *extsort.Cursor
	headA    []string
	headB    []string

	pending []core.Diff
	done    bool
	closed  bool
}

// Next returns the next discrepancy in chunk order, identifier order
// within a chunk. Returns io.EOF once both inputs are fully compared.
func (s *Stream) Next(ctx context.Context) (core.Diff, error) {
	if s.closed {
		return core.Diff{}, fmt.Errorf("diff stream: %w", os.ErrClosed)
	}

	for {
		if len(s.pending) > 0 {
			d := s.pending[0]
			s.pending = s.pending[1:]
			s.summary.Record(d)
			return d, nil
		}
		if s.done {
			return core.Diff{}, io.EOF
		}

		if s.curA == nil {
			if s.chunkIdx >= len(s.chunks) {
				s.done = true
				s.summary.Finish()
				continue
			}
			if err := s.startChunk(ctx); err != nil {
				s.Close()
				return core.Diff{}, err
			}
		}

		if err := s.step(ctx); err != nil {
			s.Close()
			return core.Diff{}, err
		}
	}
}

// startChunk sorts both sides for the next chunk and primes the merge
// heads. The two sorts share no state and run concurrently.
func (s *Stream) startChunk(ctx context.Context) error {
	chunk := s.chunks[s.chunkIdx]
	if s.differ.opts.Progress != nil {
		s.differ.opts.Progress(chunk.Index, len(s.chunks))
	}
	s.differ.log.Debug("starting chunk pass",
		zap.Int("chunk", chunk.Index),
		zap.Int("columns", len(chunk.Columns)),
	)

	colsA := make([]int, 0, len(chunk.Columns)+1)
	colsB := make([]int, 0, len(chunk.Columns)+1)
	colsA = append(colsA, 0)
	colsB = append(colsB, 0)
	for _, c := range chunk.Columns {
		colsA = append(colsA, c.PosA)
		colsB = append(colsB, c.PosB)
	}

	var curA, curB *extsort.Cursor
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := s.sortSide(gctx, s.a, colsA)
		curA = cur
		return err
	})
	g.Go(func() error {
		cur, err := s.sortSide(gctx, s.b, colsB)
		curB = cur
		return err
	})
	if err := g.Wait(); err != nil {
		if curA != nil {
			curA.Close()
		}
		if curB != nil {
			curB.Close()
		}
		return err
	}

	s.curA, s.curB = curA, curB
	s.chunk = chunk
	s.chunkIdx++

	if chunk.Index == 0 {
		s.summary.RowsA = curA.RowCount()
		s.summary.RowsB = curB.RowCount()
	}
	s.summary.RunsSpilled += curA.Spills() + curB.Spills()

	var err error
	if s.headA, err = nextOrNil(ctx, curA); err != nil {
		return err
	}
	if s.headB, err = nextOrNil(ctx, curB); err != nil {
		return err
	}
	return nil
}

// sortSide opens a fresh reader over one source, projects it to the
// chunk's columns, and runs the external sort. The reader is closed once
// the sort has consumed it; the returned cursor reads only from the sort's
// own runs.
func (s *Stream) sortSide(ctx context.Context, src core.TableSource, cols []int) (*extsort.Cursor, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return s.differ.sorter.Sort(ctx, &projection{r: r, cols: cols})
}

// step advances the merge by one comparison. Repeated identifiers pair up
// positionally: the Nth occurrence in A meets the Nth occurrence in B,
// because both cursors order ties deterministically. Rows missing from one
// side are reported during the first chunk pass only; later passes revisit
// the same identifiers and would duplicate the finding.
func (s *Stream) step(ctx context.Context) error {
	a, b := s.headA, s.headB
	reportMissing := s.chunk.Index == 0

	switch {
	case a == nil && b == nil:
		s.finishChunk()
		return nil

	case b == nil || (a != nil && a[0] < b[0]):
		if reportMissing {
			s.pending = append(s.pending, core.Diff{Kind: core.MissingInB, Key: a[0]})
		}
		return s.advanceA(ctx)

	case a == nil || b[0] < a[0]:
		if reportMissing {
			s.pending = append(s.pending, core.Diff{Kind: core.MissingInA, Key: b[0]})
		}
		return s.advanceB(ctx)

	default:
		for i := 1; i < len(a); i++ {
			if a[i] != b[i] {
				s.pending = append(s.pending, core.Diff{
					Kind:   core.ValueMismatch,
					Key:    a[0],
					Column: s.chunk.Columns[i-1].Name,
					ValueA: a[i],
					ValueB: b[i],
				})
			}
		}
		if err := s.advanceA(ctx); err != nil {
			return err
		}
		return s.advanceB(ctx)
	}
}

func (s *Stream) advanceA(ctx context.Context) error {
	row, err := nextOrNil(ctx, s.curA)
	if err != nil {
		return err
	}
	s.headA = row
	return nil
}

func (s *Stream) advanceB(ctx context.Context) error {
	row, err := nextOrNil(ctx, s.curB)
	if err != nil {
		return err
	}
	s.headB = row
	return nil
}

func nextOrNil(ctx context.Context, cur *extsort.Cursor) ([]string, error) {
	row, err := cur.Next(ctx)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Stream) finishChunk() {
	s.curA.Close()
	s.curB.Close()
	s.curA, s.curB = nil, nil
	s.headA, s.headB = nil, nil
}

// Summary returns the run statistics collected so far. Counts are final
// once Next has returned io.EOF.
func (s *Stream) Summary() *metrics.CompareSummary {
	return s.summary
}

// Close aborts the comparison and removes any remaining scratch files.
// Safe to call more than once. A stream abandoned before io.EOF is marked
// truncated in its summary.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if !s.done {
		s.summary.Truncated = true
		s.summary.Finish()
	}

	var first error
	if s.curA != nil {
		if err := s.curA.Close(); err != nil {
			first = err
		}
		s.curA = nil
	}
	if s.curB != nil {
		if err := s.curB.Close(); err != nil && first == nil {
			first = err
		}
		s.curB = nil
	}
	s.pending = nil
	return first
}

// projection restricts a table reader to the identifier column plus one
// chunk's columns, in chunk order.
type projection struct {
	r    core.TableReader
	cols []int
}

func (p *projection) Next(ctx context.Context) ([]string, error) {
	row, err := p.r.Next(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(p.cols))
	for i, c := range p.cols {
		out[i] = row[c]
	}
	return out, nil
}
