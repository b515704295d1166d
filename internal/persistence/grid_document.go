package persistence

import (
	"fmt"
	"strconv"
	"strings"
)

const gridRowPrefix = "row_"

// GridDocument is the keyed document encoding of a timetable grid: one
// "row_<n>" entry per class period holding that period's weekday flags.
type GridDocument map[string][]bool

// GridRowKey returns the document key for row n.
func GridRowKey(n int) string {
	return gridRowPrefix + strconv.Itoa(n)
}

// EncodeGridDocument converts a grid into its keyed document form.
func EncodeGridDocument(grid [GridRows][GridColumns]bool) GridDocument {
	doc := make(GridDocument, GridRows)
	for i := range grid {
		row := make([]bool, GridColumns)
		copy(row, grid[i][:])
		doc[GridRowKey(i)] = row
	}
	return doc
}

// DecodeGridDocument rebuilds a grid from its keyed document form. Rows are
// placed by their numeric index, so "row_10" style keys never sort ahead of
// "row_2". Missing rows, unknown keys and rows of the wrong width are rejected.
func DecodeGridDocument(doc GridDocument) ([GridRows][GridColumns]bool, error) {
	var grid [GridRows][GridColumns]bool
	if len(doc) != GridRows {
		return grid, fmt.Errorf("%w: grid document has %d rows, want %d", ErrConstraintViolation, len(doc), GridRows)
	}
	seen := make([]bool, GridRows)
	for key, row := range doc {
		idx, err := parseGridRowKey(key)
		if err != nil {
			return [GridRows][GridColumns]bool{}, err
		}
		if len(row) != GridColumns {
			return [GridRows][GridColumns]bool{}, fmt.Errorf("%w: %s has %d columns, want %d", ErrConstraintViolation, key, len(row), GridColumns)
		}
		if seen[idx] {
			return [GridRows][GridColumns]bool{}, fmt.Errorf("%w: duplicate %s", ErrConstraintViolation, key)
		}
		seen[idx] = true
		copy(grid[idx][:], row)
	}
	return grid, nil
}

func parseGridRowKey(key string) (int, error) {
	suffix, ok := strings.CutPrefix(key, gridRowPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected grid key %q", ErrConstraintViolation, key)
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 || idx >= GridRows || strconv.Itoa(idx) != suffix {
		return 0, fmt.Errorf("%w: unexpected grid key %q", ErrConstraintViolation, key)
	}
	return idx, nil
}
