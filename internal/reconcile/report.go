package reconcile

import (
	"github.com/JonMunkholm/packlist/internal/packing"
)

// MatchResult is one item's outcome. Artifacts is empty for TierUnmatched.
type MatchResult struct {
	Item      packing.Item `json:"item" yaml:"item"`
	Artifacts []Artifact   `json:"artifacts" yaml:"artifacts"`
	Tier      Tier         `json:"tier" yaml:"tier"`
}

// Matched reports whether at least one artifact was attributed.
func (r MatchResult) Matched() bool {
	return len(r.Artifacts) > 0
}

// Report is the reconciliation of a batch against the output directory.
type Report struct {
	Results []MatchResult `json:"results" yaml:"results"`

	// Unattributed lists artifacts seen but claimed by no item.
	Unattributed []Artifact `json:"unattributed,omitempty" yaml:"unattributed,omitempty"`

	// Degraded is set when only the sample artifact could be offered.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Unusable is set when qualifying artifacts exist but none could be
	// attributed to any item, e.g. a directory of foreign PDFs.
	Unusable bool `json:"unusable,omitempty" yaml:"unusable,omitempty"`

	// Counts is the number of items per tier.
	Counts map[Tier]int `json:"counts" yaml:"counts"`

	// Scanned is the number of qualifying artifacts found.
	Scanned int `json:"scanned" yaml:"scanned"`

	// Audit has one entry per cascade step, in cascade order.
	Audit []AuditEntry `json:"audit" yaml:"audit"`
}

// SkipReason says why a cascade step did not run.
type SkipReason string

const (
	SkipNoStdoutListing  SkipReason = "no files listed in stdout"
	SkipAllMatched       SkipReason = "all items matched"
	SkipEarlierMatch     SkipReason = "an earlier tier matched"
	SkipNoEligible       SkipReason = "no eligible artifacts"
	SkipArtifactsPresent SkipReason = "artifacts present"
	SkipNoSample         SkipReason = "no sample available"
)

// AuditEntry records one cascade step. Considered counts the artifacts the
// step looked at; Attributed counts items it settled (for TierUnmatched, the
// items left over).
type AuditEntry struct {
	Tier       Tier       `json:"tier" yaml:"tier"`
	Considered int        `json:"considered" yaml:"considered"`
	Attributed int        `json:"attributed" yaml:"attributed"`
	Skipped    SkipReason `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Ran reports whether the step was attempted.
func (e AuditEntry) Ran() bool {
	return e.Skipped == ""
}

// Entry is the flat caller-facing view of a match.
type Entry struct {
	ItemID       string  `json:"itemId" yaml:"itemId"`
	ArtifactPath *string `json:"artifactPath" yaml:"artifactPath"`
	Tier         Tier    `json:"tier" yaml:"tier"`
}

// Entries flattens the report: one entry per attributed artifact, and a
// single entry with no path for unmatched items. Item order is preserved.
func (r *Report) Entries() []Entry {
	var out []Entry
	for _, res := range r.Results {
		if len(res.Artifacts) == 0 {
			out = append(out, Entry{ItemID: res.Item.ID, Tier: res.Tier})
			continue
		}
		for _, a := range res.Artifacts {
			path := a.Path
			out = append(out, Entry{ItemID: res.Item.ID, ArtifactPath: &path, Tier: res.Tier})
		}
	}
	return out
}

func (r *Report) tally() map[Tier]int {
	counts := make(map[Tier]int)
	for _, res := range r.Results {
		counts[res.Tier]++
	}
	return counts
}

// Unmatched returns the items no strategy could attribute.
func (r *Report) Unmatched() []packing.Item {
	var out []packing.Item
	for _, res := range r.Results {
		if res.Tier == TierUnmatched {
			out = append(out, res.Item)
		}
	}
	return out
}

// Complete reports whether every item received an artifact.
func (r *Report) Complete() bool {
	for _, res := range r.Results {
		if !res.Matched() {
			return false
		}
	}
	return true
}
