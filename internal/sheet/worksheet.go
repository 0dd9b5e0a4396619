// Package sheet decodes uploaded spreadsheets into a plain grid of cells.
//
// Every supported format is reduced to a Worksheet: an ordered sequence of
// rows, each an ordered sequence of cell strings. Blank cells are "", numeric
// cells are rendered in their shortest decimal form. Rows are not padded, so
// two rows of the same sheet may differ in length.
package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Worksheet is a decoded sheet. Callers treat it as read-only.
type Worksheet [][]string

// Cell returns the trimmed value at (row, col), or "" when out of range.
func (w Worksheet) Cell(row, col int) string {
	if row < 0 || row >= len(w) {
		return ""
	}
	r := w[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// NonBlank counts cells in row that hold anything other than whitespace.
func NonBlank(row []string) int {
	n := 0
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// FromValues builds a Worksheet from loosely typed values, the shape a caller
// gets from JSON or from building fixtures by hand. nil becomes a blank cell.
func FromValues(rows [][]any) Worksheet {
	ws := make(Worksheet, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		ws[i] = cells
	}
	return ws
}

// FormatValue renders a single untyped cell value as a cell string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
