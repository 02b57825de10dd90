package schema

import (
	"github.com/TFMV/tablediff/pkg/core"
)

// Chunk is one bounded group of corresponding columns, compared together in
// a single sort/merge pass. The identifier column is not listed; it rides
// along with every chunk as the join key.
type Chunk struct {
	Index   int
	Columns []Correspondence
}

// Partition splits the mapping's columns into chunks of at most width
// entries, in file A's column order. A width of 0 means unbounded: all
// columns in one chunk. A negative width is a configuration error.
//
// A mapping with no non-identifier columns still yields one empty chunk,
// so the key-only merge pass runs and missing rows are detected.
func Partition(m *Mapping, width int) ([]Chunk, error) {
	if width < 0 {
		return nil, &core.ConfigError{Field: "column group width", Reason: "must not be negative"}
	}
	if width == 0 || width > len(m.Columns) {
		width = len(m.Columns)
	}

	if len(m.Columns) == 0 {
		return []Chunk{{Index: 0}}, nil
	}

	chunks := make([]Chunk, 0, (len(m.Columns)+width-1)/width)
	for start := 0; start < len(m.Columns); start += width {
		end := start + width
		if end > len(m.Columns) {
			end = len(m.Columns)
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Columns: m.Columns[start:end],
		})
	}
	return chunks, nil
}
