package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Artifact is a candidate file in the output directory.
type Artifact struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

// Scanner lists candidate artifacts.
type Scanner struct {
	Dir    string
	Prefix string
}

// Scan lists Dir in directory order, keeping regular files that have a .pdf
// extension or carry the generator prefix. A missing directory is empty.
// Nothing is cached; every call reads the directory again.
func (s Scanner) Scan() ([]Artifact, error) {
	d, err := os.Open(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open output dir: %w", err)
	}
	defer d.Close()

	// (*os.File).ReadDir keeps directory order; os.ReadDir would sort.
	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	var out []Artifact
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !s.qualifies(name) {
			continue
		}

		a := Artifact{Name: name, Path: filepath.Join(s.Dir, name)}
		if info, err := e.Info(); err == nil {
			a.Size = info.Size()
		}
		out = append(out, a)
	}
	return out, nil
}

func (s Scanner) qualifies(name string) bool {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return true
	}
	return s.Prefix != "" && strings.HasPrefix(name, s.Prefix)
}
