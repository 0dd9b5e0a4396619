package packing

import (
	"github.com/JonMunkholm/packlist/internal/sheet"
)

// DropReason says why a data row produced no item.
type DropReason string

const (
	DropShortRow      DropReason = "short_row"
	DropBlank         DropReason = "blank"
	DropNoDescription DropReason = "no_description"
	DropNoQuantity    DropReason = "no_quantity"
)

// Stats summarizes one extraction pass.
type Stats struct {
	Rows     int                `json:"rows" yaml:"rows"`
	Retained int                `json:"retained" yaml:"retained"`
	Dropped  map[DropReason]int `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// DroppedTotal sums the dropped rows across reasons.
func (s Stats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// ExtractItems reads every row below headerRow through the column map.
// Rows too short to reach the right-most mapped column, rows with neither
// sku nor description, rows without a description and rows whose quantity
// is not a positive number are dropped. Retained items are numbered
// item-1, item-2, ... in row order.
func ExtractItems(ws sheet.Worksheet, headerRow int, cols HeaderMap) ([]Item, Stats) {
	stats := Stats{Dropped: make(map[DropReason]int)}
	maxIdx := cols.MaxIndex()

	var items []Item
	for r := headerRow + 1; r < len(ws); r++ {
		stats.Rows++
		row := ws[r]

		if len(row) <= maxIdx {
			stats.Dropped[DropShortRow]++
			continue
		}

		item, reason := extractRow(ws, r, cols)
		if reason != "" {
			stats.Dropped[reason]++
			continue
		}

		item.ID = ItemID(len(items) + 1)
		items = append(items, item)
	}

	stats.Retained = len(items)
	if len(stats.Dropped) == 0 {
		stats.Dropped = nil
	}
	return items, stats
}

func extractRow(ws sheet.Worksheet, r int, cols HeaderMap) (Item, DropReason) {
	cell := func(f Field) string {
		idx, ok := cols[f]
		if !ok {
			return ""
		}
		return ws.Cell(r, idx)
	}

	item := Item{
		SKU:         cell(FieldSKU),
		Description: cell(FieldDescription),
		HSCode:      TrimFloatSuffix(cell(FieldHSCode)),
	}

	if item.SKU == "" && item.Description == "" {
		return Item{}, DropBlank
	}
	if item.Description == "" {
		return Item{}, DropNoDescription
	}

	qty, ok := ParseNumber(cell(FieldQuantity))
	if !ok || qty <= 0 {
		return Item{}, DropNoQuantity
	}
	item.Quantity = qty

	item.Cartons = optionalAmount(cell(FieldCartons))
	item.GrossWeight = optionalAmount(cell(FieldGrossWeight))
	item.NetWeight = optionalAmount(cell(FieldNetWeight))
	item.CBM = optionalAmount(cell(FieldCBM))
	item.Weight = resolveWeight(item.GrossWeight, item.NetWeight)

	return item, ""
}
