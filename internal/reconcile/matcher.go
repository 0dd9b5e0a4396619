// Package reconcile attributes generated artifacts to packing list items.
//
// The generator's naming is not a contract, so attribution runs through a
// fixed cascade of strategies, from the generator's own report down to a
// pre-built sample. Reconciliation only fails when nothing at all can be
// offered.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/packlist/internal/config"
	"github.com/JonMunkholm/packlist/internal/logging"
	"github.com/JonMunkholm/packlist/internal/packing"
)

// ErrNoArtifacts means the output directory held nothing usable and no
// sample was available. The accompanying report marks every item unmatched.
var ErrNoArtifacts = errors.New("no artifacts generated and no sample available")

// SampleItemID identifies the placeholder item a sample is attributed to
// when the batch had no items.
const SampleItemID = "sample"

// Matcher runs the attribution cascade against one output directory.
type Matcher struct {
	Scanner       Scanner
	SuccessPhrase string
	FallbackName  string
	SamplePath    string
	SampleName    string
}

// NewMatcher builds a Matcher from configuration.
func NewMatcher(cfg *config.Config) *Matcher {
	return &Matcher{
		Scanner:       Scanner{Dir: cfg.Output.Dir, Prefix: cfg.Generator.Prefix},
		SuccessPhrase: cfg.Generator.SuccessPhrase,
		FallbackName:  cfg.Output.FallbackName,
		SamplePath:    cfg.Output.SamplePath,
		SampleName:    cfg.Output.SampleName,
	}
}

// itemKeys are the strings an artifact name is tested against. Names are
// tested without the generator prefix, whose digits would otherwise match
// hs codes starting with them.
type itemKeys struct {
	hs string // normalized hs code
	id string
}

// strict matches the hs code or id as a whole token of name, so item-1
// does not claim item-10's file.
func (k itemKeys) strict(name string) bool {
	return containsToken(name, k.hs) || containsToken(name, k.id)
}

func (k itemKeys) relaxed(name string) bool {
	if k.hs == "" {
		return false
	}
	chapter := k.hs
	if len(chapter) > 4 {
		chapter = chapter[:4]
	}
	return strings.Contains(name, chapter)
}

// Match scans the output directory and attributes artifacts to items.
// stdout is the generator's standard output, possibly empty. The report is
// always returned; the error is non-nil only for a failed directory read or
// ErrNoArtifacts.
func (m *Matcher) Match(ctx context.Context, items []packing.Item, stdout string) (*Report, error) {
	log := logging.FromContext(ctx)

	scanned, err := m.Scanner.Scan()
	if err != nil {
		return nil, err
	}

	// The sample copy is ours, not the generator's. Skipping it keeps a
	// retry against a degraded directory degraded.
	var candidates []Artifact
	byName := make(map[string]Artifact, len(scanned))
	for _, a := range scanned {
		if m.SampleName != "" && a.Name == m.SampleName {
			continue
		}
		candidates = append(candidates, a)
		byName[a.Name] = a
	}

	report := &Report{
		Results: make([]MatchResult, len(items)),
		Scanned: len(candidates),
	}
	keys := make([]itemKeys, len(items))
	for i, it := range items {
		report.Results[i] = MatchResult{Item: it, Tier: TierUnmatched}
		keys[i] = itemKeys{hs: packing.NormalizeHSCode(it.HSCode), id: it.ID}
	}

	claimed := make(map[string]bool)
	attribute := func(i int, tier Tier, arts ...Artifact) {
		res := &report.Results[i]
		res.Artifacts = append(res.Artifacts, arts...)
		res.Tier = tier
		for _, a := range arts {
			claimed[a.Name] = true
		}
	}
	prefixed := m.filter(candidates, func(string) bool { return true })

	for _, tier := range Cascade {
		step := AuditEntry{Tier: tier}

		switch tier {
		case TierStdoutParsed:
			listed := ParseStdout(stdout, m.SuccessPhrase)
			step.Considered = len(listed)
			if len(listed) == 0 {
				step.Skipped = SkipNoStdoutListing
				break
			}
			for _, name := range listed {
				a, ok := byName[name]
				if !ok {
					log.Debug("listed artifact not found", "name", name)
					continue
				}
				subject := strings.TrimPrefix(name, m.Scanner.Prefix)
				for i := range items {
					if keys[i].strict(subject) {
						if !report.Results[i].Matched() {
							step.Attributed++
						}
						attribute(i, tier, a)
						break
					}
				}
			}

		case TierFilenameStrict, TierFilenameRelaxed:
			step.Considered = len(prefixed)
			if allMatched(report.Results) {
				step.Skipped = SkipAllMatched
				break
			}
			for i := range items {
				if report.Results[i].Matched() {
					continue
				}
				test := keys[i].strict
				if tier == TierFilenameRelaxed {
					test = keys[i].relaxed
				}
				if arts := m.filter(candidates, test); len(arts) > 0 {
					attribute(i, tier, arts...)
					step.Attributed++
				}
			}

		case TierPositional:
			if anyMatched(report.Results) {
				step.Skipped = SkipEarlierMatch
				break
			}
			eligible := prefixed
			if m.FallbackName != "" {
				if a, ok := byName[m.FallbackName]; ok && !strings.HasPrefix(a.Name, m.Scanner.Prefix) {
					eligible = insertInListingOrder(candidates, eligible, a)
				}
			}
			step.Considered = len(eligible)
			if len(eligible) == 0 {
				step.Skipped = SkipNoEligible
				break
			}
			for i := 0; i < len(items) && i < len(eligible); i++ {
				attribute(i, tier, eligible[i])
				step.Attributed++
			}

		case TierSampleFallback:
			if len(candidates) > 0 {
				step.Skipped = SkipArtifactsPresent
				break
			}
			sample, err := m.placeSample()
			if err != nil {
				step.Skipped = SkipNoSample
				report.Audit = append(report.Audit, step)
				report.Audit = append(report.Audit, AuditEntry{Tier: TierUnmatched, Attributed: len(items)})
				report.Counts = report.tally()
				log.Warn("no artifacts and no sample", "error", err)
				return report, err
			}
			report.Degraded = true
			step.Considered = 1
			step.Attributed = 1
			if len(items) == 0 {
				report.Results = append(report.Results, MatchResult{
					Item:      packing.Item{ID: SampleItemID},
					Artifacts: []Artifact{sample},
					Tier:      tier,
				})
			} else {
				attribute(0, tier, sample)
			}

		case TierUnmatched:
			for _, res := range report.Results {
				if !res.Matched() {
					step.Attributed++
				}
			}
		}

		report.Audit = append(report.Audit, step)
	}

	for _, a := range candidates {
		if !claimed[a.Name] {
			report.Unattributed = append(report.Unattributed, a)
		}
	}

	if len(items) > 0 && len(candidates) > 0 && !anyMatched(report.Results) {
		report.Unusable = true
		log.Warn("artifacts found but none attributable",
			"scanned", len(candidates),
			"prefixed", len(prefixed),
		)
	}

	args := []any{"items", len(items), "scanned", report.Scanned, "degraded", report.Degraded}
	report.Counts = report.tally()
	for _, t := range Cascade {
		if n := report.Counts[t]; n > 0 {
			args = append(args, strings.ToLower(t.String()), n)
		}
	}
	log.Info("artifacts reconciled", args...)

	return report, nil
}

// filter keeps prefixed candidates whose name, minus the prefix, passes
// test. Listing order is kept.
func (m *Matcher) filter(candidates []Artifact, test func(string) bool) []Artifact {
	var out []Artifact
	for _, a := range candidates {
		if !strings.HasPrefix(a.Name, m.Scanner.Prefix) {
			continue
		}
		if test(strings.TrimPrefix(a.Name, m.Scanner.Prefix)) {
			out = append(out, a)
		}
	}
	return out
}

// placeSample copies the configured sample into the output directory.
func (m *Matcher) placeSample() (Artifact, error) {
	if m.SamplePath == "" || m.SampleName == "" {
		return Artifact{}, ErrNoArtifacts
	}

	dst := filepath.Join(m.Scanner.Dir, m.SampleName)
	n, err := copyFile(m.SamplePath, dst)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrNoArtifacts, err)
	}
	return Artifact{Name: m.SampleName, Path: dst, Size: n}, nil
}

func allMatched(results []MatchResult) bool {
	for _, r := range results {
		if !r.Matched() {
			return false
		}
	}
	return true
}

func anyMatched(results []MatchResult) bool {
	for _, r := range results {
		if r.Matched() {
			return true
		}
	}
	return false
}

// containsToken reports whether key occurs in name with no letter or digit
// directly on either side.
func containsToken(name, key string) bool {
	if key == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(name[from:], key)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(key)
		if (i == 0 || !isAlnum(name[i-1])) && (end == len(name) || !isAlnum(name[end])) {
			return true
		}
		from = i + 1
	}
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// insertInListingOrder adds extra to eligible at the position it holds in
// the directory listing.
func insertInListingOrder(listing, eligible []Artifact, extra Artifact) []Artifact {
	in := make(map[string]bool, len(eligible)+1)
	for _, a := range eligible {
		in[a.Name] = true
	}
	in[extra.Name] = true

	out := make([]Artifact, 0, len(eligible)+1)
	for _, a := range listing {
		if in[a.Name] {
			out = append(out, a)
		}
	}
	return out
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
