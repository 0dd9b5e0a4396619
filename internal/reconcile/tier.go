package reconcile

import (
	"encoding/json"
	"fmt"
)

// Tier names the strategy that attributed an artifact to an item.
type Tier int

const (
	TierStdoutParsed Tier = iota + 1
	TierFilenameStrict
	TierFilenameRelaxed
	TierPositional
	TierSampleFallback
	TierUnmatched
)

// Cascade is the order strategies are tried in. Earlier tiers always win.
var Cascade = []Tier{
	TierStdoutParsed,
	TierFilenameStrict,
	TierFilenameRelaxed,
	TierPositional,
	TierSampleFallback,
	TierUnmatched,
}

var tierNames = map[Tier]string{
	TierStdoutParsed:    "STDOUT_PARSED",
	TierFilenameStrict:  "FILENAME_STRICT",
	TierFilenameRelaxed: "FILENAME_RELAXED",
	TierPositional:      "POSITIONAL",
	TierSampleFallback:  "SAMPLE_FALLBACK",
	TierUnmatched:       "UNMATCHED",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// ParseTier is the inverse of Tier.String.
func ParseTier(s string) (Tier, error) {
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown match tier %q", s)
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText lets tiers key JSON maps by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(data []byte) error {
	parsed, err := ParseTier(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML renders the tier by name.
func (t Tier) MarshalYAML() (any, error) {
	return t.String(), nil
}
