package packing

import "strings"

// Field is a semantic packing list column.
type Field string

const (
	FieldSKU         Field = "sku"
	FieldDescription Field = "description"
	FieldHSCode      Field = "hsCode"
	FieldQuantity    Field = "quantity"
	FieldCartons     Field = "cartons"
	FieldGrossWeight Field = "grossWeight"
	FieldNetWeight   Field = "netWeight"
	FieldCBM         Field = "cbm"
)

// RequiredFields must be present in every header.
var RequiredFields = []Field{FieldDescription, FieldQuantity}

// fieldRule ties a field to the header keywords that name it. Exclude, when
// set, vetoes a keyword hit for cells that name something else.
type fieldRule struct {
	Field    Field
	Keywords []string
	Exclude  func(upper string) bool
}

// fieldRules is evaluated top to bottom and the first hit claims the cell,
// so "PRODUCT DESCRIPTION" reads as sku and "CARTON QTY" as cartons.
var fieldRules = []fieldRule{
	{Field: FieldSKU, Keywords: []string{"ITEM", "SKU", "ITEM #", "PRODUCT"}},
	{Field: FieldDescription, Keywords: []string{"DESCRIPTION", "GOODS", "PRODUCT"}},
	{Field: FieldHSCode, Keywords: []string{"HS", "CODE", "HARMONIZED", "TARIFF"}},
	{
		Field:    FieldQuantity,
		Keywords: []string{"QTY", "QUANTITY", "PCS", "PIECES"},
		Exclude:  func(upper string) bool { return strings.Contains(upper, "CARTON") },
	},
	{Field: FieldCartons, Keywords: []string{"CARTON", "BOX", "PACK"}},
	{Field: FieldGrossWeight, Keywords: []string{"GROSS", "G.W"}},
	{Field: FieldNetWeight, Keywords: []string{"NET", "N.W"}},
	{Field: FieldCBM, Keywords: []string{"CBM", "VOLUME", "M3"}},
}

// Fields lists every field in rule priority order.
func Fields() []Field {
	out := make([]Field, len(fieldRules))
	for i, r := range fieldRules {
		out[i] = r.Field
	}
	return out
}

// ClassifyHeader returns the field a header cell names, if any.
func ClassifyHeader(cell string) (Field, bool) {
	upper := strings.ToUpper(strings.TrimSpace(cell))
	if upper == "" {
		return "", false
	}

	for _, rule := range fieldRules {
		if !containsAny(upper, rule.Keywords) {
			continue
		}
		if rule.Exclude != nil && rule.Exclude(upper) {
			continue
		}
		return rule.Field, true
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
