package extsort

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const runBufferSize = 256 << 10

// run is one sorted batch of rows, consumed exactly once during the merge.
type run interface {
	// next returns the run's next row, or io.EOF when drained.
	next() ([]string, error)

	// close releases the run. Disk-backed runs remove their spill file.
	// Safe to call more than once.
	close() error
}

// memRun is the final sort buffer when it never had to spill.
type memRun struct {
	rows [][]string
	idx  int
}

func (r *memRun) next() ([]string, error) {
	if r.idx >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.idx]
	r.idx++
	return row, nil
}

func (r *memRun) close() error {
	r.rows = nil
	return nil
}

// diskRun is a spilled sorted batch, framed as varint-prefixed cells.
type diskRun struct {
	file *os.File
	path string
	br   *bufio.Reader
	done bool
}

func (r *diskRun) next() ([]string, error) {
	if r.done {
		return nil, io.EOF
	}

	cells, err := binary.ReadUvarint(r.br)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sort run %s: %w", r.path, err)
	}

	row := make([]string, cells)
	for i := range row {
		n, err := binary.ReadUvarint(r.br)
		if err != nil {
			return nil, fmt.Errorf("failed to read sort run %s: %w", r.path, err)
		}
		cell := make([]byte, n)
		if _, err := io.ReadFull(r.br, cell); err != nil {
			return nil, fmt.Errorf("failed to read sort run %s: %w", r.path, err)
		}
		row[i] = string(cell)
	}
	return row, nil
}

func (r *diskRun) close() error {
	if r.done {
		return nil
	}
	r.done = true
	r.br = nil

	err := r.file.Close()
	if rmErr := os.Remove(r.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// spill writes one sorted buffer to a scratch file and returns the run
// positioned at its first row. The file is removed if the write fails.
func spill(dir string, rows [][]string) (run, error) {
	file, err := os.CreateTemp(dir, "tablediff-sort-*.run")
	if err != nil {
		return nil, fmt.Errorf("failed to create sort run: %w", err)
	}

	w := bufio.NewWriterSize(file, runBufferSize)
	for _, row := range rows {
		if err := writeRow(w, row); err != nil {
			return nil, discardRun(file, err)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, discardRun(file, err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, discardRun(file, err)
	}

	return &diskRun{
		file: file,
		path: file.Name(),
		br:   bufio.NewReaderSize(file, runBufferSize),
	}, nil
}

func writeRow(w *bufio.Writer, row []string) error {
	var scratch [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(scratch[:], uint64(len(row)))
	if _, err := w.Write(scratch[:n]); err != nil {
		return err
	}
	for _, cell := range row {
		n = binary.PutUvarint(scratch[:], uint64(len(cell)))
		if _, err := w.Write(scratch[:n]); err != nil {
			return err
		}
		if _, err := w.WriteString(cell); err != nil {
			return err
		}
	}
	return nil
}

func discardRun(file *os.File, err error) error {
	file.Close()
	os.Remove(file.Name())
	return fmt.Errorf("failed to spill sort run: %w", err)
}
