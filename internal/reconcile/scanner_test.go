package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "CBP_Form_7501_9401_item-1.pdf")
	touch(t, dir, "REPORT.PDF")
	touch(t, dir, "CBP_Form_7501_partial")
	touch(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "CBP_Form_7501_dir.pdf"), 0o755))

	arts, err := Scanner{Dir: dir, Prefix: prefix}.Scan()
	require.NoError(t, err)

	var names []string
	for _, a := range arts {
		names = append(names, a.Name)
		assert.Equal(t, filepath.Join(dir, a.Name), a.Path)
		assert.Positive(t, a.Size)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"CBP_Form_7501_9401_item-1.pdf", "CBP_Form_7501_partial", "REPORT.PDF"}, names)
}

func TestScanner_MissingDir(t *testing.T) {
	arts, err := Scanner{Dir: filepath.Join(t.TempDir(), "nope"), Prefix: prefix}.Scan()
	require.NoError(t, err)
	assert.Empty(t, arts)
}

func TestScanner_RelistsEveryCall(t *testing.T) {
	dir := t.TempDir()
	s := Scanner{Dir: dir, Prefix: prefix}

	arts, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, arts)

	touch(t, dir, "late.pdf")
	arts, err = s.Scan()
	require.NoError(t, err)
	assert.Len(t, arts, 1)
}

func TestParseStdout(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   []string
	}{
		{
			name:   "listed files",
			stdout: "Successfully generated 2 PDFs:\n- /srv/out/CBP_Form_7501_9401_item-1.pdf\n- out/CBP_Form_7501_9403_item-2.pdf\n",
			want:   []string{"CBP_Form_7501_9401_item-1.pdf", "CBP_Form_7501_9403_item-2.pdf"},
		},
		{
			name:   "duplicates collapsed",
			stdout: "Successfully generated 2 PDFs:\n- a.pdf\n- a.pdf\n",
			want:   []string{"a.pdf"},
		},
		{
			name:   "no success phrase",
			stdout: "Error: template missing\n- a.pdf\n",
			want:   nil,
		},
		{
			name:   "phrase without listing",
			stdout: "Successfully generated 0 PDFs:\n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStdout(tt.stdout, "Successfully generated"))
		})
	}
}

func TestTier_JSON(t *testing.T) {
	for _, tier := range Cascade {
		data, err := json.Marshal(tier)
		require.NoError(t, err)

		var back Tier
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, tier, back)
	}

	var bad Tier
	assert.Error(t, json.Unmarshal([]byte(`"BEST_GUESS"`), &bad))
}

func TestCascadeOrder(t *testing.T) {
	want := []string{
		"STDOUT_PARSED", "FILENAME_STRICT", "FILENAME_RELAXED",
		"POSITIONAL", "SAMPLE_FALLBACK", "UNMATCHED",
	}
	require.Len(t, Cascade, len(want))
	for i, tier := range Cascade {
		assert.Equal(t, want[i], tier.String())
	}
}
