package reconcile

import (
	"path/filepath"
	"regexp"
	"strings"
)

// listedFileRegex matches the "- path/to/file.pdf" lines the generator
// prints after its success phrase.
var listedFileRegex = regexp.MustCompile(`- (.+\.pdf)`)

// ParseStdout returns the base names of files the generator reports, in
// order and without duplicates. Output lacking the success phrase lists
// nothing.
func ParseStdout(stdout, successPhrase string) []string {
	if successPhrase == "" || !strings.Contains(stdout, successPhrase) {
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, m := range listedFileRegex.FindAllStringSubmatch(stdout, -1) {
		name := filepath.Base(strings.TrimSpace(m[1]))
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
