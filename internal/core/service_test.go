package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/packlist/internal/config"
	"github.com/JonMunkholm/packlist/internal/generate"
	"github.com/JonMunkholm/packlist/internal/packing"
	"github.com/JonMunkholm/packlist/internal/reconcile"
)

// fakeGenerator writes the named files into the output directory.
type fakeGenerator struct {
	files  func(items []packing.Item) []string
	stdout string
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, req generate.Request) (generate.Outcome, error) {
	f.calls++
	if f.err != nil {
		return generate.Outcome{}, f.err
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return generate.Outcome{}, err
	}
	if f.files != nil {
		for _, name := range f.files(req.Items) {
			if err := os.WriteFile(filepath.Join(req.OutputDir, name), []byte("%PDF-1.4"), 0o644); err != nil {
				return generate.Outcome{}, err
			}
		}
	}
	return generate.Outcome{ExitOK: true, Stdout: f.stdout}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:      1 << 20,
			MaxConcurrent:    2,
			MaxWaitTime:      time.Second,
			HeaderSearchRows: 20,
		},
		Generator: config.GeneratorConfig{
			Prefix:        "CBP_Form_7501",
			SuccessPhrase: "Successfully generated",
		},
		Output: config.OutputConfig{
			Dir:          filepath.Join(root, "output"),
			SampleName:   "sample_completed_form.pdf",
			FallbackName: "completed_form.pdf",
		},
	}
}

func TestService_ParsePackingList(t *testing.T) {
	svc := NewService(testConfig(t), &fakeGenerator{}, nil)

	csv := "Shipper: ACME\n" +
		"Item,Description,HS Code,Qty,Gross Weight\n" +
		"A1,Sofa,9401.61.0000,2,40\n" +
		",,,,\n" +
		"A2,Chair,9401.71,5,\n"

	res, err := svc.ParsePackingList(context.Background(), "list.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, res.HeaderRow)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "item-1", res.Items[0].ID)
	assert.Equal(t, "item-2", res.Items[1].ID)
	assert.Equal(t, 40.0, res.Items[0].Weight)

	audit := svc.GetAuditLog(AuditLogFilter{Action: ActionParse})
	require.Len(t, audit, 1)
	assert.Equal(t, 2, audit[0].Items)
	assert.Equal(t, SeverityLow, audit[0].Severity)
}

func TestService_ParsePackingListErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 64
	svc := NewService(cfg, &fakeGenerator{}, nil)

	tests := []struct {
		name     string
		fileName string
		data     string
		wantErr  error
	}{
		{"too large", "big.csv", strings.Repeat("x", 65), ErrFileTooLarge},
		{"no header", "list.csv", "a,b\n1,2\n", packing.ErrHeaderNotFound},
		{"missing quantity", "list.csv", "Item,Description,HS Code\nA1,Sofa,9401\n", packing.ErrRequiredColumnsMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParsePackingList(context.Background(), tt.fileName, []byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Submit(t *testing.T) {
	gen := &fakeGenerator{
		files: func(items []packing.Item) []string {
			var names []string
			for _, it := range items {
				names = append(names, "CBP_Form_7501_"+packing.NormalizeHSCode(it.HSCode)+".pdf")
			}
			return names
		},
	}
	svc := NewService(testConfig(t), gen, nil)

	items := []packing.Item{
		{Description: "Sofa", HSCode: "9401.61.0000", Quantity: 2},
		{Description: "Lamp", HSCode: "9405.20", Quantity: 1},
	}
	sub, err := svc.Submit(context.Background(), items)
	require.NoError(t, err)

	require.NotEmpty(t, sub.ID)
	assert.Equal(t, StatusComplete, sub.Status)
	assert.Equal(t, "item-1", sub.Items[0].ID)
	assert.Equal(t, "item-2", sub.Items[1].ID)
	assert.Empty(t, items[0].ID, "Submit must not mutate the caller's items")
	for _, e := range sub.Entries {
		assert.NotNil(t, e.ArtifactPath)
		assert.Equal(t, reconcile.TierFilenameStrict, e.Tier)
	}
	assert.Equal(t, 1, sub.Attempts)

	got, err := svc.Get(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.Status, got.Status)
}

func TestService_SubmitNilItems(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(testConfig(t), gen, nil)

	_, err := svc.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoItems)
	assert.Zero(t, gen.calls, "generator should not run")
}

func TestService_SubmitTransportError(t *testing.T) {
	gen := &fakeGenerator{err: &generate.TransportError{Err: generate.ErrNoScript}}
	svc := NewService(testConfig(t), gen, nil)

	sub, err := svc.Submit(context.Background(), []packing.Item{{Description: "Sofa", Quantity: 1}})
	var te *generate.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusFailed, sub.Status)

	_, err = svc.Get(sub.ID)
	assert.NoError(t, err, "failed submission should be stored")
	assert.Zero(t, svc.Limiter().ActiveCount(), "limiter slot leaked")

	audit := svc.GetAuditLog(AuditLogFilter{SubmissionID: sub.ID})
	require.Len(t, audit, 1)
	assert.Equal(t, SeverityHigh, audit[0].Severity)
}

func TestService_SubmitNothingGenerated(t *testing.T) {
	svc := NewService(testConfig(t), &fakeGenerator{}, nil)

	sub, err := svc.Submit(context.Background(), []packing.Item{{Description: "Sofa", Quantity: 1}})
	require.ErrorIs(t, err, reconcile.ErrNoArtifacts)

	assert.Equal(t, StatusFailed, sub.Status)
	require.Len(t, sub.Entries, 1)
	assert.Nil(t, sub.Entries[0].ArtifactPath)
}

func TestService_SubmitDegradedToSample(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.SamplePath = filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(cfg.Output.SamplePath, []byte("%PDF-1.4 sample"), 0o644))
	svc := NewService(cfg, &fakeGenerator{}, nil)

	sub, err := svc.Submit(context.Background(), []packing.Item{{Description: "Sofa", Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, sub.Status)
	assert.Equal(t, reconcile.TierSampleFallback, sub.Entries[0].Tier)
}

func TestService_SubmitForeignPDFsOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.SamplePath = filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(cfg.Output.SamplePath, []byte("%PDF-1.4 sample"), 0o644))
	svc := NewService(cfg, &fakeGenerator{
		files: func([]packing.Item) []string { return []string{"invoice.pdf"} },
	}, nil)

	sub, err := svc.Submit(context.Background(), []packing.Item{{Description: "Sofa", HSCode: "9401.61", Quantity: 1}})
	require.NoError(t, err)

	assert.Equal(t, StatusUnusable, sub.Status)
	require.NotNil(t, sub.Report)
	assert.True(t, sub.Report.Unusable)

	audit := svc.GetAuditLog(AuditLogFilter{SubmissionID: sub.ID})
	require.Len(t, audit, 1)
	assert.Equal(t, SeverityHigh, audit[0].Severity)
}

func TestService_Reconcile(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, &fakeGenerator{}, nil)

	sub, err := svc.Submit(context.Background(), []packing.Item{{Description: "Sofa", HSCode: "9401.61", Quantity: 1}})
	require.ErrorIs(t, err, reconcile.ErrNoArtifacts)

	// The generator finished writing after the first scan.
	late := filepath.Join(cfg.Output.Dir, "CBP_Form_7501_940161.pdf")
	require.NoError(t, os.WriteFile(late, []byte("%PDF-1.4"), 0o644))

	got, err := svc.Reconcile(context.Background(), sub.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusComplete, got.Status)
	assert.Equal(t, 2, got.Attempts)
	assert.Empty(t, got.Error, "error should be cleared")
}

func TestService_ReconcileUnknown(t *testing.T) {
	svc := NewService(testConfig(t), &fakeGenerator{}, nil)

	_, err := svc.Reconcile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionStore_Evicts(t *testing.T) {
	st := newSubmissionStore(2)
	for _, id := range []string{"a", "b", "c"} {
		st.put(&Submission{ID: id})
	}

	_, ok := st.get("a")
	assert.False(t, ok, "oldest submission not evicted")

	list := st.list()
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestAssignIDs(t *testing.T) {
	got := AssignIDs([]packing.Item{{ID: "keep"}, {}, {ID: ""}})

	ids := make([]string, len(got))
	for i, it := range got {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"keep", "item-2", "item-3"}, ids)
}

func TestContextWithClient(t *testing.T) {
	ctx := ContextWithClient(context.Background(), "10.0.0.1", "curl/8")
	ip, ua := ClientFromContext(ctx)
	assert.Equal(t, "10.0.0.1", ip)
	assert.Equal(t, "curl/8", ua)

	ip, ua = ClientFromContext(context.Background())
	assert.Empty(t, ip)
	assert.Empty(t, ua)
}

func TestService_Sweep(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, &fakeGenerator{
		files: func([]packing.Item) []string { return []string{"CBP_Form_7501_old.pdf"} },
	}, nil)

	sub, err := svc.Submit(context.Background(), []packing.Item{{Description: "Sofa", Quantity: 1}})
	require.NoError(t, err)

	old := filepath.Join(cfg.Output.Dir, "CBP_Form_7501_old.pdf")
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	fresh := filepath.Join(cfg.Output.Dir, "CBP_Form_7501_new.pdf")
	require.NoError(t, os.WriteFile(fresh, []byte("%PDF-1.4"), 0o644))

	// Nothing is old enough yet for the submission.
	res, err := svc.Sweep(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Artifacts: 1}, res)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	res, err = svc.Sweep(time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Submissions)

	_, err = svc.Get(sub.ID)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}
