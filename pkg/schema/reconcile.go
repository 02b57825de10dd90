// Package schema reconciles the column sets of the two inputs and
// partitions the reconciled columns into bounded groups for comparison.
package schema

import (
	"github.com/TFMV/tablediff/pkg/core"
)

// Correspondence pairs one column of file A with its counterpart in file B.
// Name is the canonical identity used in reports: the column name under
// by-name matching, file A's name under strict positional matching.
type Correspondence struct {
	Name string
	PosA int
	PosB int
}

// Mapping is the resolved correspondence between the two headers. Key is
// the identifier column, always position 0 on both sides regardless of
// mode. Columns lists the remaining correspondences in file A's column
// order; the identifier is excluded because every comparison pass carries
// it implicitly as the join key.
type Mapping struct {
	Key     Correspondence
	Columns []Correspondence
}

// Reconcile computes the correspondence between the columns of the two
// headers. Under strict mode both headers must list the same names at the
// same positions. Under by-name mode (the default) the non-identifier
// name sets must be equal, duplicates are rejected, and reordering is
// tolerated. The first column on each side is the identifier and matches
// positionally even when its names differ.
func Reconcile(headerA, headerB []string, strictColumnOrder bool) (*Mapping, error) {
	if len(headerA) == 0 || len(headerB) == 0 {
		return nil, &core.SchemaError{LengthA: len(headerA), LengthB: len(headerB), Position: -1}
	}

	if strictColumnOrder {
		return reconcileStrict(headerA, headerB)
	}
	return reconcileByName(headerA, headerB)
}

func reconcileStrict(headerA, headerB []string) (*Mapping, error) {
	if len(headerA) != len(headerB) {
		return nil, &core.SchemaError{LengthA: len(headerA), LengthB: len(headerB), Position: -1}
	}

	for i := range headerA {
		if headerA[i] != headerB[i] {
			return nil, &core.SchemaError{Position: i, NameA: headerA[i], NameB: headerB[i]}
		}
	}

	m := &Mapping{
		Key:     Correspondence{Name: headerA[0], PosA: 0, PosB: 0},
		Columns: make([]Correspondence, 0, len(headerA)-1),
	}
	for i := 1; i < len(headerA); i++ {
		m.Columns = append(m.Columns, Correspondence{Name: headerA[i], PosA: i, PosB: i})
	}
	return m, nil
}

func reconcileByName(headerA, headerB []string) (*Mapping, error) {
	posA, dupA := positionsByName(headerA)
	posB, dupB := positionsByName(headerB)
	if len(dupA) > 0 || len(dupB) > 0 {
		return nil, &core.SchemaError{DuplicatesA: dupA, DuplicatesB: dupB, Position: -1}
	}

	// Position 0 is the identifier on both sides by definition, so it is
	// removed from the name sets before they are compared.
	delete(posA, headerA[0])
	delete(posB, headerB[0])

	var onlyInA, onlyInB []string
	for _, name := range headerA[1:] {
		if _, ok := posB[name]; !ok {
			onlyInA = append(onlyInA, name)
		}
	}
	for _, name := range headerB[1:] {
		if _, ok := posA[name]; !ok {
			onlyInB = append(onlyInB, name)
		}
	}
	if len(onlyInA) > 0 || len(onlyInB) > 0 {
		return nil, &core.SchemaError{OnlyInA: onlyInA, OnlyInB: onlyInB, Position: -1}
	}

	m := &Mapping{
		Key:     Correspondence{Name: headerA[0], PosA: 0, PosB: 0},
		Columns: make([]Correspondence, 0, len(headerA)-1),
	}
	for i := 1; i < len(headerA); i++ {
		name := headerA[i]
		m.Columns = append(m.Columns, Correspondence{Name: name, PosA: i, PosB: posB[name]})
	}
	return m, nil
}

// positionsByName maps each name to its position and collects names that
// appear more than once.
func positionsByName(header []string) (map[string]int, []string) {
	positions := make(map[string]int, len(header))
	seen := make(map[string]bool, len(header))
	var duplicates []string

	for i, name := range header {
		if _, ok := positions[name]; ok {
			if !seen[name] {
				duplicates = append(duplicates, name)
				seen[name] = true
			}
			continue
		}
		positions[name] = i
	}
	return positions, duplicates
}
