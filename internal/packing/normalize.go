// Package packing turns a raw packing list worksheet into normalized items.
//
// Supplier sheets put the header anywhere in the first rows, name columns
// inconsistently and mix blank, subtotal and note rows with data. Normalize
// finds the header, maps columns by keyword and extracts the rows that carry
// a description and a positive quantity.
package packing

import (
	"github.com/JonMunkholm/packlist/internal/sheet"
)

// Options tunes normalization.
type Options struct {
	// HeaderSearchRows bounds the header search. Zero means
	// DefaultHeaderSearchRows.
	HeaderSearchRows int
}

// Result is a successful normalization. Items may be empty.
type Result struct {
	HeaderRow int       `json:"headerRow" yaml:"headerRow"`
	Columns   HeaderMap `json:"columns" yaml:"columns"`
	Items     []Item    `json:"items" yaml:"items"`
	Stats     Stats     `json:"stats" yaml:"stats"`
}

// Empty reports whether no rows survived extraction.
func (r *Result) Empty() bool {
	return len(r.Items) == 0
}

// Normalize detects the header, maps columns and extracts items. Failures
// are *ParseError; no partial result is returned with them.
func Normalize(ws sheet.Worksheet, opts Options) (*Result, error) {
	headerRow, err := DetectHeader(ws, opts.HeaderSearchRows)
	if err != nil {
		return nil, err
	}

	cols, err := MapColumns(ws[headerRow])
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.HeaderRow = headerRow
		}
		return nil, err
	}

	items, stats := ExtractItems(ws, headerRow, cols)
	if items == nil {
		items = []Item{}
	}

	return &Result{
		HeaderRow: headerRow,
		Columns:   cols,
		Items:     items,
		Stats:     stats,
	}, nil
}

// NormalizeFile decodes a spreadsheet upload and normalizes its first sheet.
func NormalizeFile(fileName string, data []byte, opts Options) (*Result, error) {
	ws, err := sheet.Decode(fileName, data)
	if err != nil {
		return nil, err
	}
	return Normalize(ws, opts)
}
