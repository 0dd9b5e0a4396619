package packing

import (
	"sort"

	"github.com/JonMunkholm/packlist/internal/sheet"
)

// DefaultHeaderSearchRows is how many leading rows are scanned for the header.
const DefaultHeaderSearchRows = 20

const (
	// minHeaderCells skips title and address rows before the header.
	minHeaderCells = 3

	// headerThreshold is the number of distinct fields a header must name.
	headerThreshold = 3
)

// HeaderMap maps each recognized field to its zero-based column index.
type HeaderMap map[Field]int

// MaxIndex returns the right-most mapped column, or -1 for an empty map.
func (m HeaderMap) MaxIndex() int {
	max := -1
	for _, idx := range m {
		if idx > max {
			max = idx
		}
	}
	return max
}

// Has reports whether field was mapped.
func (m HeaderMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Fields returns the mapped fields ordered by column.
func (m HeaderMap) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return m[out[i]] < m[out[j]] })
	return out
}

// DetectHeader returns the index of the first row within maxRows that names
// at least three distinct fields. Rows with fewer than three filled cells are
// never considered.
func DetectHeader(ws sheet.Worksheet, maxRows int) (int, error) {
	if maxRows <= 0 {
		maxRows = DefaultHeaderSearchRows
	}
	if len(ws) < maxRows {
		maxRows = len(ws)
	}

	for i := 0; i < maxRows; i++ {
		row := ws[i]
		if sheet.NonBlank(row) < minHeaderCells {
			continue
		}

		if countFields(row) >= headerThreshold {
			return i, nil
		}
	}

	return -1, &ParseError{Err: ErrHeaderNotFound, HeaderRow: -1}
}

// countFields counts distinct fields named by row; each cell counts for at
// most one field and each field is counted once.
func countFields(row []string) int {
	seen := make(map[Field]bool, len(fieldRules))
	for _, cell := range row {
		if f, ok := ClassifyHeader(cell); ok {
			seen[f] = true
		}
	}
	return len(seen)
}

// MapColumns assigns each header cell to the first field whose keywords it
// contains. When two columns name the same field the right-most wins.
// Description and quantity are mandatory.
func MapColumns(header []string) (HeaderMap, error) {
	m := make(HeaderMap)
	for i, cell := range header {
		if f, ok := ClassifyHeader(cell); ok {
			m[f] = i
		}
	}

	var missing []Field
	for _, f := range RequiredFields {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Err: ErrRequiredColumnsMissing, Missing: missing}
	}

	return m, nil
}
