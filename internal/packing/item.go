package packing

import (
	"strconv"
	"strings"
)

// Item is one normalized packing list line.
type Item struct {
	ID          string   `json:"id" yaml:"id"`
	SKU         string   `json:"sku" yaml:"sku"`
	Description string   `json:"description" yaml:"description"`
	HSCode      string   `json:"hsCode" yaml:"hsCode"`
	Quantity    float64  `json:"quantity" yaml:"quantity"`
	Cartons     *float64 `json:"cartons,omitempty" yaml:"cartons,omitempty"`
	GrossWeight *float64 `json:"grossWeight,omitempty" yaml:"grossWeight,omitempty"`
	NetWeight   *float64 `json:"netWeight,omitempty" yaml:"netWeight,omitempty"`
	CBM         *float64 `json:"cbm,omitempty" yaml:"cbm,omitempty"`
	Weight      float64  `json:"weight" yaml:"weight"`
}

// ItemID formats the identifier of the n-th retained item (1-based).
func ItemID(n int) string {
	return "item-" + strconv.Itoa(n)
}

// TrimFloatSuffix drops the ".0" a spreadsheet leaves on integers that were
// stored as floats, e.g. "9401610000.0".
func TrimFloatSuffix(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".0")
}

// NormalizeHSCode reduces a tariff code to its digits so that
// "9401.61.0000", "9401-61-0000" and "9401610000.0" compare equal.
func NormalizeHSCode(s string) string {
	s = TrimFloatSuffix(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', ' ', '\t':
			return -1
		}
		return r
	}, s)
}

// resolveWeight prefers gross weight, then net, then zero. Presence decides,
// so an explicit gross of 0 is kept over a non-zero net.
func resolveWeight(gross, net *float64) float64 {
	switch {
	case gross != nil:
		return *gross
	case net != nil:
		return *net
	default:
		return 0
	}
}
