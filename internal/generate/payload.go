package generate

import (
	"encoding/json"
	"strconv"

	"github.com/JonMunkholm/packlist/internal/config"
	"github.com/JonMunkholm/packlist/internal/packing"
)

// PayloadItem is one entry of the generator's input file. Field names and
// order are the generator's input contract.
type PayloadItem struct {
	ID              string `json:"id"`
	HTSNumber       string `json:"hts_number"`
	CountryOfOrigin string `json:"country_of_origin"`
	Description     string `json:"description"`
	Value           string `json:"value"`
	BasicDutyRate   string `json:"basic_duty_rate"`
	Section301Rate  string `json:"section_301_rate"`
	OtherRate       string `json:"other_rate"`
	GrossWeight     string `json:"gross_weight"`
	ManifestQty     string `json:"manifest_qty"`
	NetQuantity     string `json:"net_quantity"`
}

// PayloadDefaults fills payload fields the packing list does not carry.
type PayloadDefaults struct {
	CountryOfOrigin string
	BasicDutyRate   string
	Section301Rate  string
	OtherRate       string
}

// DefaultPayloadDefaults matches the generator's own fallbacks.
var DefaultPayloadDefaults = PayloadDefaults{
	CountryOfOrigin: "CN",
	BasicDutyRate:   "0",
	Section301Rate:  "20",
	OtherRate:       "145",
}

const (
	defaultValue       = "1000.00"
	defaultGrossWeight = "10.00"
	defaultQuantity    = "100"

	// valuePerKilogram estimates declared value from weight.
	valuePerKilogram = 10
)

// DefaultsFromConfig reads the payload defaults from configuration.
func DefaultsFromConfig(cfg *config.Config) PayloadDefaults {
	return PayloadDefaults{
		CountryOfOrigin: cfg.Payload.CountryOfOrigin,
		BasicDutyRate:   cfg.Payload.BasicDutyRate,
		Section301Rate:  cfg.Payload.Section301Rate,
		OtherRate:       cfg.Payload.OtherRate,
	}
}

// BuildPayload converts items to generator entries, preserving order.
// Items without an ID get item-<n> by position.
func BuildPayload(items []packing.Item, d PayloadDefaults) []PayloadItem {
	d = d.withFallbacks()

	out := make([]PayloadItem, len(items))
	for i, it := range items {
		id := it.ID
		if id == "" {
			id = packing.ItemID(i + 1)
		}

		p := PayloadItem{
			ID:              id,
			HTSNumber:       it.HSCode,
			CountryOfOrigin: d.CountryOfOrigin,
			Description:     it.Description,
			Value:           defaultValue,
			BasicDutyRate:   d.BasicDutyRate,
			Section301Rate:  d.Section301Rate,
			OtherRate:       d.OtherRate,
			GrossWeight:     defaultGrossWeight,
			ManifestQty:     defaultQuantity,
			NetQuantity:     defaultQuantity,
		}
		if it.Weight > 0 {
			p.Value = formatNumber(it.Weight * valuePerKilogram)
			p.GrossWeight = formatNumber(it.Weight)
		}
		if it.Quantity > 0 {
			p.ManifestQty = formatNumber(it.Quantity)
			p.NetQuantity = p.ManifestQty
		}
		out[i] = p
	}
	return out
}

// MarshalPayload renders the payload file contents.
func MarshalPayload(items []PayloadItem) ([]byte, error) {
	return json.MarshalIndent(items, "", "  ")
}

func (d PayloadDefaults) withFallbacks() PayloadDefaults {
	if d.CountryOfOrigin == "" {
		d.CountryOfOrigin = DefaultPayloadDefaults.CountryOfOrigin
	}
	if d.BasicDutyRate == "" {
		d.BasicDutyRate = DefaultPayloadDefaults.BasicDutyRate
	}
	if d.Section301Rate == "" {
		d.Section301Rate = DefaultPayloadDefaults.Section301Rate
	}
	if d.OtherRate == "" {
		d.OtherRate = DefaultPayloadDefaults.OtherRate
	}
	return d
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
