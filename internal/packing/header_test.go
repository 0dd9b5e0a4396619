package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/packlist/internal/sheet"
)

func TestClassifyHeader(t *testing.T) {
	tests := []struct {
		cell   string
		want   Field
		wantOK bool
	}{
		{"ITEM", FieldSKU, true},
		{"Item No.", FieldSKU, true},
		{"sku", FieldSKU, true},
		{"PRODUCT DESCRIPTION", FieldSKU, true},
		{"Description of Goods", FieldDescription, true},
		{"HS CODE", FieldHSCode, true},
		{"Tariff No", FieldHSCode, true},
		{"QTY", FieldQuantity, true},
		{"Quantity (PCS)", FieldQuantity, true},
		{"CARTON QTY", FieldCartons, true},
		{"CTNS / BOX", FieldCartons, true},
		{"G.W (KG)", FieldGrossWeight, true},
		{"Gross Weight", FieldGrossWeight, true},
		{"N.W", FieldNetWeight, true},
		{"NET WT", FieldNetWeight, true},
		{"CBM", FieldCBM, true},
		{"Volume", FieldCBM, true},
		{"Remarks", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ClassifyHeader(tt.cell)
		assert.Equal(t, tt.want, got, "ClassifyHeader(%q)", tt.cell)
		assert.Equal(t, tt.wantOK, ok, "ClassifyHeader(%q) ok", tt.cell)
	}
}

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		name    string
		ws      sheet.Worksheet
		maxRows int
		want    int
		wantErr bool
	}{
		{
			name: "header on first row",
			ws: sheet.Worksheet{
				{"ITEM", "DESCRIPTION", "QTY", "G.W"},
				{"A1", "Sofa", "5", "150"},
			},
			want: 0,
		},
		{
			name: "title rows above header",
			ws: sheet.Worksheet{
				{"PACKING LIST"},
				{"Shipper:", "ACME"},
				{"", "", ""},
				{"No.", "Description", "HS Code", "Qty", "CTNS"},
				{"1", "Chair", "9401", "4", "1"},
			},
			want: 3,
		},
		{
			name: "two matching fields is not enough",
			ws: sheet.Worksheet{
				{"DESCRIPTION", "QTY", "REMARKS"},
				{"Sofa", "5", ""},
			},
			wantErr: true,
		},
		{
			name: "row with fewer than three cells skipped",
			ws: sheet.Worksheet{
				{"ITEM DESCRIPTION QTY", "G.W"},
				{"SKU", "DESCRIPTION", "QTY"},
			},
			want: 1,
		},
		{
			name: "header beyond search window",
			ws: sheet.Worksheet{
				{"x"},
				{"y"},
				{"ITEM", "DESCRIPTION", "QTY"},
			},
			maxRows: 2,
			wantErr: true,
		},
		{
			name:    "empty worksheet",
			ws:      sheet.Worksheet{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHeader(tt.ws, tt.maxRows)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrHeaderNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name        string
		header      []string
		want        HeaderMap
		wantMissing []Field
	}{
		{
			name:   "basic header",
			header: []string{"ITEM", "DESCRIPTION", "QTY", "G.W"},
			want: HeaderMap{
				FieldSKU:         0,
				FieldDescription: 1,
				FieldQuantity:    2,
				FieldGrossWeight: 3,
			},
		},
		{
			name:   "rightmost duplicate wins",
			header: []string{"DESCRIPTION", "QTY", "GOODS", "PCS"},
			want: HeaderMap{
				FieldDescription: 2,
				FieldQuantity:    3,
			},
		},
		{
			name:   "carton quantity does not claim quantity",
			header: []string{"DESCRIPTION", "CARTON QTY", "QUANTITY"},
			want: HeaderMap{
				FieldDescription: 0,
				FieldCartons:     1,
				FieldQuantity:    2,
			},
		},
		{
			name:        "missing description",
			header:      []string{"ITEM", "HS CODE", "QTY"},
			wantMissing: []Field{FieldDescription},
		},
		{
			name:        "missing both required",
			header:      []string{"ITEM", "HS CODE", "CBM"},
			wantMissing: []Field{FieldDescription, FieldQuantity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapColumns(tt.header)
			if tt.wantMissing != nil {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.ErrorIs(t, err, ErrRequiredColumnsMissing)
				assert.Equal(t, tt.wantMissing, pe.Missing)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderMapFields(t *testing.T) {
	m := HeaderMap{FieldQuantity: 2, FieldSKU: 0, FieldDescription: 1}

	assert.Equal(t, []Field{FieldSKU, FieldDescription, FieldQuantity}, m.Fields())
	assert.Equal(t, 2, m.MaxIndex())
	assert.Equal(t, -1, HeaderMap{}.MaxIndex())
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Err: ErrRequiredColumnsMissing, Missing: []Field{FieldDescription, FieldQuantity}}
	assert.EqualError(t, err, "parse error: required columns missing (description, quantity)")
}
