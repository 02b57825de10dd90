// Package extsort sorts row streams that may not fit in memory. Rows are
// buffered up to a configured budget, sorted, and spilled to disk as runs;
// a k-way merge across the runs yields the fully sorted cursor. Spill
// files are private to the sort that created them and are removed as soon
// as they are consumed, or on Close, whichever comes first.
package extsort

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/TFMV/tablediff/pkg/core"
)

// DefaultBudgetRows is the in-memory buffer size applied when no budget is
// configured.
const DefaultBudgetRows = 100000

// Input is the stream of rows to sort. Next returns io.EOF when the stream
// is exhausted. The first cell of every row is the sort key.
type Input interface {
	Next(ctx context.Context) ([]string, error)
}

// Options provides configuration for a Sorter.
type Options struct {
	// BudgetRows is the number of rows held in memory before a run is
	// spilled. If 0, DefaultBudgetRows is applied.
	BudgetRows int

	// ScratchDir is the directory for spill files. Empty means the
	// system temp directory. Created if it does not exist.
	ScratchDir string
}

// Sorter produces sorted cursors over row streams within a fixed memory
// budget.
type Sorter struct {
	budget int
	dir    string
}

// NewSorter creates a new Sorter. A budget below one row is rejected
// before any input is read.
func NewSorter(opts Options) (*Sorter, error) {
	budget := opts.BudgetRows
	if budget == 0 {
		budget = DefaultBudgetRows
	}
	if budget < 1 {
		return nil, &core.ConfigError{Field: "sort budget", Reason: "must hold at least one row"}
	}

	if opts.ScratchDir != "" {
		if err := os.MkdirAll(opts.ScratchDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
	}

	return &Sorter{budget: budget, dir: opts.ScratchDir}, nil
}

// Compare orders two rows by key, then by the remaining cells so rows with
// repeated keys still have a deterministic total order.
func Compare(a, b []string) int {
	if c := strings.Compare(a[0], b[0]); c != 0 {
		return c
	}
	for i := 1; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Sort consumes the input and returns a cursor over the same rows in key
// order. On error all spill files created so far are removed.
func (s *Sorter) Sort(ctx context.Context, in Input) (cur *Cursor, err error) {
	var runs []run
	defer func() {
		if err != nil {
			closeRuns(runs)
		}
	}()

	buf := make([][]string, 0, s.budget)
	var rows int64
	spills := 0

	for {
		row, rerr := in.Next(ctx)
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
		rows++
		buf = append(buf, row)

		if len(buf) >= s.budget {
			sortRows(buf)
			r, serr := spill(s.dir, buf)
			if serr != nil {
				return nil, serr
			}
			runs = append(runs, r)
			spills++
			buf = buf[:0]
		}
	}

	// The final partial buffer stays in memory: when everything fit, this
	// is the only run and no disk is touched.
	if len(buf) > 0 || len(runs) == 0 {
		sortRows(buf)
		runs = append(runs, &memRun{rows: buf})
	}

	cur, err = newCursor(runs)
	if err != nil {
		return nil, err
	}
	cur.rows = rows
	cur.spills = spills
	return cur, nil
}

func sortRows(rows [][]string) {
	sort.Slice(rows, func(i, j int) bool {
		return Compare(rows[i], rows[j]) < 0
	})
}

// Cursor is the merged, fully sorted row stream. It owns the underlying
// runs and deletes each spill file once that run is drained.
type Cursor struct {
	runs   []run
	h      runHeap
	rows   int64
	spills int
}

func newCursor(runs []run) (*Cursor, error) {
	c := &Cursor{runs: runs}
	for i, r := range runs {
		row, err := r.next()
		if err == io.EOF {
			r.close()
			continue
		}
		if err != nil {
			c.Close()
			return nil, err
		}
		c.h = append(c.h, heapItem{row: row, src: i})
	}
	heap.Init(&c.h)
	return c, nil
}

// Next returns the next row in sort order. Returns io.EOF when all runs
// are drained.
func (c *Cursor) Next(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(c.h) == 0 {
		return nil, io.EOF
	}

	top := c.h[0]
	row, err := c.runs[top.src].next()
	switch {
	case err == io.EOF:
		if cerr := c.runs[top.src].close(); cerr != nil {
			return nil, cerr
		}
		heap.Pop(&c.h)
	case err != nil:
		return nil, err
	default:
		c.h[0].row = row
		heap.Fix(&c.h, 0)
	}
	return top.row, nil
}

// RowCount reports how many rows the sort consumed from its input.
func (c *Cursor) RowCount() int64 {
	return c.rows
}

// Spills reports how many runs were written to disk.
func (c *Cursor) Spills() int {
	return c.spills
}

// Close releases all remaining runs and removes their spill files. Safe to
// call more than once.
func (c *Cursor) Close() error {
	err := closeRuns(c.runs)
	c.h = nil
	return err
}

func closeRuns(runs []run) error {
	var first error
	for _, r := range runs {
		if err := r.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// heapItem is the current head row of one run.
type heapItem struct {
	row []string
	src int
}

type runHeap []heapItem

func (h runHeap) Len() int { return len(h) }

func (h runHeap) Less(i, j int) bool {
	if c := Compare(h[i].row, h[j].row); c != 0 {
		return c < 0
	}
	return h[i].src < h[j].src
}

func (h runHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *runHeap) Push(x any) { *h = append(*h, x.(heapItem)) }

func (h *runHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
