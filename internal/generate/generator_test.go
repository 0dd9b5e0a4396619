package generate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/packlist/internal/packing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func newTestExec(t *testing.T, runner Runner) (*Exec, string) {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "scripts", "writer_multi.py")
	writeFile(t, script)

	return &Exec{
		Interpreter:  "python3",
		Script:       script,
		LegacyScript: filepath.Join(dir, "scripts", "writer.py"),
		Template:     filepath.Join(dir, "scripts", "form.pdf"),
		WorkDir:      dir,
		FallbackName: "completed_form.pdf",
		Defaults:     DefaultPayloadDefaults,
		Runner:       runner,
	}, dir
}

var sampleItems = []packing.Item{
	{ID: "item-1", Description: "Sofa", HSCode: "9401.61.0000", Quantity: 5, Weight: 150},
}

func TestExec_Generate_MultiScript(t *testing.T) {
	var (
		gotCmd     Command
		gotPayload []PayloadItem
	)
	runner := RunnerFunc(func(ctx context.Context, cmd Command) (RunResult, error) {
		gotCmd = cmd
		path := argAfter(cmd.Args, "--json-data")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &gotPayload))

		outDir := argAfter(cmd.Args, "--output-dir")
		writeFile(t, filepath.Join(outDir, "CBP_Form_7501_9401610000_item-1.pdf"))
		return RunResult{Stdout: []byte("Successfully generated 1 PDFs:\n- out.pdf\n")}, nil
	})

	g, dir := newTestExec(t, runner)
	outDir := filepath.Join(dir, "output")

	out, err := g.Generate(context.Background(), Request{Items: sampleItems, OutputDir: outDir})
	require.NoError(t, err)

	assert.True(t, out.ExitOK)
	assert.False(t, out.Legacy)
	assert.Contains(t, out.Stdout, "Successfully generated")
	assert.Equal(t, "python3", gotCmd.Name)
	assert.Equal(t, g.Script, gotCmd.Args[0])
	assert.Equal(t, g.Template, argAfter(gotCmd.Args, "--input-pdf"))
	assert.Equal(t, outDir, argAfter(gotCmd.Args, "--output-dir"))

	require.Len(t, gotPayload, 1)
	assert.Equal(t, "9401.61.0000", gotPayload[0].HTSNumber)

	// Payload file is transient.
	_, err = os.Stat(argAfter(gotCmd.Args, "--json-data"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "payload file should be removed, stat err = %v", err)
}

func TestExec_Generate_LegacyFallback(t *testing.T) {
	var gotCmd Command
	runner := RunnerFunc(func(ctx context.Context, cmd Command) (RunResult, error) {
		gotCmd = cmd
		return RunResult{}, nil
	})

	g, dir := newTestExec(t, runner)
	require.NoError(t, os.Remove(g.Script))
	writeFile(t, g.LegacyScript)
	outDir := filepath.Join(dir, "output")

	out, err := g.Generate(context.Background(), Request{Items: sampleItems, OutputDir: outDir})
	require.NoError(t, err)

	assert.True(t, out.Legacy)
	assert.Equal(t, g.LegacyScript, gotCmd.Args[0])
	assert.Equal(t, filepath.Join(outDir, "completed_form.pdf"), argAfter(gotCmd.Args, "--output-pdf"))
	assert.Empty(t, argAfter(gotCmd.Args, "--output-dir"))
}

func TestExec_Generate_RequestTemplateOverrides(t *testing.T) {
	var gotCmd Command
	runner := RunnerFunc(func(ctx context.Context, cmd Command) (RunResult, error) {
		gotCmd = cmd
		return RunResult{}, nil
	})

	g, dir := newTestExec(t, runner)
	custom := filepath.Join(dir, "templates", "7501_rev.pdf")

	_, err := g.Generate(context.Background(), Request{
		Items:        sampleItems,
		TemplatePath: custom,
		OutputDir:    filepath.Join(dir, "out"),
	})
	require.NoError(t, err)
	assert.Equal(t, custom, argAfter(gotCmd.Args, "--input-pdf"))
}

func TestExec_Generate_NoScriptIsTransportError(t *testing.T) {
	called := false
	runner := RunnerFunc(func(ctx context.Context, cmd Command) (RunResult, error) {
		called = true
		return RunResult{}, nil
	})

	g, dir := newTestExec(t, runner)
	require.NoError(t, os.Remove(g.Script))

	_, err := g.Generate(context.Background(), Request{Items: sampleItems, OutputDir: filepath.Join(dir, "out")})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrNoScript)
	assert.False(t, called, "runner must not be invoked without a script")
}

func TestExec_Generate_StartFailure(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, cmd Command) (RunResult, error) {
		return RunResult{}, errors.New("exec: \"python3\": executable file not found in $PATH")
	})

	g, dir := newTestExec(t, runner)
	_, err := g.Generate(context.Background(), Request{Items: sampleItems, OutputDir: filepath.Join(dir, "out")})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Command, "python3")
}

func TestExec_Generate_NonZeroExitIsNotFatal(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, cmd Command) (RunResult, error) {
		return RunResult{Stderr: []byte("Traceback: boom\n"), ExitCode: 1}, nil
	})

	g, dir := newTestExec(t, runner)
	outDir := filepath.Join(dir, "out")

	out, err := g.Generate(context.Background(), Request{Items: sampleItems, OutputDir: outDir})
	require.NoError(t, err)

	assert.False(t, out.ExitOK)
	assert.Equal(t, 1, out.ExitCode)
	assert.Equal(t, "Traceback: boom\n", out.Combined())

	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "output dir should be created before the run")
}

func TestExec_Generate_Timeout(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, cmd Command) (RunResult, error) {
		<-ctx.Done()
		return RunResult{ExitCode: -1}, nil
	})

	g, dir := newTestExec(t, runner)
	g.Timeout = 10 * time.Millisecond

	out, err := g.Generate(context.Background(), Request{Items: sampleItems, OutputDir: filepath.Join(dir, "out")})
	require.NoError(t, err)
	assert.True(t, out.TimedOut)
	assert.False(t, out.ExitOK)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{Name: "packlist-no-such-binary-xyz"})

	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
