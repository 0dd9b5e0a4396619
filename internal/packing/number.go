package packing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// leadingNumberRegex captures a number followed by a unit, as in "150 KGS".
var leadingNumberRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseNumber converts a cell to a float64. It handles currency symbols,
// thousands separators, accounting negatives and trailing units. ok is false
// for blank or unparsable cells.
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Handle accounting format: (1,234.56) means negative
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		s = leadingNumberRegex.FindString(s)
		if s == "" {
			return 0, false
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// optionalAmount reads a non-negative optional measure. Blank cells are
// absent (nil); filled cells that do not parse as a non-negative number
// become an explicit zero.
func optionalAmount(cell string) *float64 {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	v, ok := ParseNumber(cell)
	if !ok || v < 0 {
		v = 0
	}
	return &v
}
