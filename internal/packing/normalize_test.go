package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/packlist/internal/sheet"
)

func ptr(v float64) *float64 { return &v }

func TestNormalize_Basic(t *testing.T) {
	ws := sheet.FromValues([][]any{
		{"ITEM", "DESCRIPTION", "QTY", "G.W"},
		{"A1", "Sofa", 5, 150},
		{"A2", "Lamp", 0, 80},
	})

	res, err := Normalize(ws, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.HeaderRow)
	require.Len(t, res.Items, 1)

	got := res.Items[0]
	assert.Equal(t, "item-1", got.ID)
	assert.Equal(t, "A1", got.SKU)
	assert.Equal(t, "Sofa", got.Description)
	assert.Equal(t, 5.0, got.Quantity)
	assert.Equal(t, 150.0, got.Weight)
	assert.Equal(t, 1, res.Stats.Dropped[DropNoQuantity])
}

func TestNormalize_RequiredColumnsMissing(t *testing.T) {
	tests := []struct {
		name string
		ws   sheet.Worksheet
	}{
		{
			name: "no description column",
			ws: sheet.Worksheet{
				{"ITEM", "HS CODE", "QTY", "G.W"},
				{"A1", "9401", "5", "150"},
			},
		},
		{
			name: "no quantity column",
			ws: sheet.Worksheet{
				{"ITEM", "DESCRIPTION", "HS CODE", "G.W"},
				{"A1", "Sofa", "9401", "150"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.ws, Options{})
			assert.Nil(t, res)
			require.ErrorIs(t, err, ErrRequiredColumnsMissing)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 0, pe.HeaderRow)
		})
	}
}

func TestNormalize_HeaderNotFound(t *testing.T) {
	ws := sheet.Worksheet{{"hello", "world"}, {"1", "2"}}
	_, err := Normalize(ws, Options{})
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestNormalize_HeaderOnlyIsEmptyNotError(t *testing.T) {
	ws := sheet.Worksheet{{"ITEM", "DESCRIPTION", "QTY"}}
	res, err := Normalize(ws, Options{})
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.NotNil(t, res.Items, "Items should be an empty slice")
}

func TestExtractItems_DropRules(t *testing.T) {
	ws := sheet.Worksheet{
		{"ITEM", "DESCRIPTION", "HS CODE", "QTY", "CARTONS", "N.W"},
		{"A1", "Sofa", "9401.61.0000.0", "5", "1", "40"},
		{"", "", "", "", "", ""},
		{"A2", "", "9401", "3", "1", "10"},
		{"A3", "Table", "9403", "abc", "1", "10"},
		{"A4", "Chair", "9401", "-2", "1", "10"},
		{"A5", "Stool"},
		{"TOTAL", "", "", "8", "2", "50"},
		{"A6", "Shelf", "9403.20", "1,200 PCS", "", "n/a"},
	}
	cols, err := MapColumns(ws[0])
	require.NoError(t, err)

	items, stats := ExtractItems(ws, 0, cols)

	require.Len(t, items, 2)
	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, "item-2", items[1].ID)
	assert.Equal(t, "9401.61.0000", items[0].HSCode)
	assert.Equal(t, 40.0, items[0].Weight, "net weight is the fallback")
	assert.Equal(t, 1200.0, items[1].Quantity)
	require.NotNil(t, items[1].NetWeight)
	assert.Equal(t, 0.0, *items[1].NetWeight, "unparsable amount is an explicit zero")
	assert.Nil(t, items[1].Cartons)

	assert.Equal(t, map[DropReason]int{
		DropBlank:         1,
		DropNoDescription: 2,
		DropNoQuantity:    2,
		DropShortRow:      1,
	}, stats.Dropped)
	assert.Equal(t, 8, stats.Rows)
	assert.Equal(t, stats.Rows, stats.DroppedTotal()+stats.Retained)
}

func TestResolveWeight(t *testing.T) {
	tests := []struct {
		name       string
		gross, net *float64
		want       float64
	}{
		{"gross wins", ptr(12), ptr(10), 12},
		{"net fallback", nil, ptr(10), 10},
		{"explicit zero gross kept", ptr(0), ptr(10), 0},
		{"neither", nil, nil, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveWeight(tt.gross, tt.net), tt.name)
	}
}

func TestNormalizeHSCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"9401.61.0000.0", "9401610000"},
		{"9401610000", "9401610000"},
		{"9401610000.0", "9401610000"},
		{"9401-61-0000", "9401610000"},
		{" 9401 61 ", "940161"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHSCode(tt.in), "NormalizeHSCode(%q)", tt.in)
	}

	assert.Equal(t, NormalizeHSCode("9401610000"), NormalizeHSCode("9401.61.0000.0"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"5", 5, true},
		{"150.5", 150.5, true},
		{"1,234.50", 1234.5, true},
		{"$12", 12, true},
		{"(3.5)", -3.5, true},
		{"1e3", 1000, true},
		{"80 KGS", 80, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.want, got, "ParseNumber(%q)", tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseNumber(%q) ok", tt.in)
	}
}
