// Package generate hands normalized items to the external form generator.
//
// The generator is a best-effort collaborator: its exit status and stderr
// are recorded and logged but never decide the outcome. Callers verify the
// result by scanning the output directory afterwards.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/packlist/internal/config"
	"github.com/JonMunkholm/packlist/internal/logging"
	"github.com/JonMunkholm/packlist/internal/packing"
)

// maxLoggedOutput caps generator output copied into log records.
const maxLoggedOutput = 2048

// TransportError means the generator process could not be started at all.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Command == "" {
		return "generator could not be started: " + e.Err.Error()
	}
	return fmt.Sprintf("generator could not be started: %s: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrNoScript is wrapped by TransportError when neither script exists.
var ErrNoScript = errors.New("generator script not found")

// Request is one generation run. An empty TemplatePath uses Exec.Template.
type Request struct {
	Items        []packing.Item
	TemplatePath string
	OutputDir    string
}

// Outcome records how the generator run went. ExitOK false is a warning.
type Outcome struct {
	ExitOK   bool          `json:"exitOk"`
	ExitCode int           `json:"exitCode"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Legacy   bool          `json:"legacy,omitempty"`
	TimedOut bool          `json:"timedOut,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Combined returns stdout followed by stderr.
func (o Outcome) Combined() string {
	if o.Stderr == "" {
		return o.Stdout
	}
	return o.Stdout + o.Stderr
}

// Generator produces artifacts for a batch of items.
type Generator interface {
	Generate(ctx context.Context, req Request) (Outcome, error)
}

// Exec runs the generator script through an interpreter.
type Exec struct {
	Interpreter  string
	Script       string
	LegacyScript string
	Template     string
	WorkDir      string
	FallbackName string
	Timeout      time.Duration
	Defaults     PayloadDefaults
	Runner       Runner
}

// NewExec builds an Exec from configuration. A nil runner uses ExecRunner.
func NewExec(cfg *config.Config, runner Runner) *Exec {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Exec{
		Interpreter:  cfg.Generator.Interpreter,
		Script:       cfg.Generator.Script,
		LegacyScript: cfg.Generator.LegacyScript,
		Template:     cfg.Generator.Template,
		WorkDir:      cfg.Generator.WorkDir,
		FallbackName: cfg.Output.FallbackName,
		Timeout:      cfg.Generator.Timeout,
		Defaults:     DefaultsFromConfig(cfg),
		Runner:       runner,
	}
}

// Generate writes the payload to a transient file, runs the generator once
// and reports what happened. Only a process that cannot be started is an
// error (*TransportError).
func (g *Exec) Generate(ctx context.Context, req Request) (Outcome, error) {
	log := logging.FromContext(ctx)

	script, legacy, err := g.selectScript()
	if err != nil {
		return Outcome{}, err
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create output dir: %w", err)
	}

	payloadPath, cleanup, err := g.writePayload(req.Items)
	if err != nil {
		return Outcome{}, err
	}
	defer cleanup()

	template := req.TemplatePath
	if template == "" {
		template = g.Template
	}
	args := []string{script, "--input-pdf", template, "--json-data", payloadPath}
	if legacy {
		args = append(args, "--output-pdf", filepath.Join(req.OutputDir, g.fallbackName()))
	} else {
		args = append(args, "--output-dir", req.OutputDir)
	}
	cmd := Command{Name: g.Interpreter, Args: args}

	runCtx := ctx
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	log.Info("running generator",
		"items", len(req.Items),
		"script", script,
		"legacy", legacy,
		"output_dir", req.OutputDir,
	)

	start := time.Now()
	res, err := g.Runner.Run(runCtx, cmd)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return Outcome{}, err
		}
		return Outcome{}, &TransportError{Command: cmd.String(), Err: err}
	}

	out := Outcome{
		ExitOK:   res.ExitCode == 0,
		ExitCode: res.ExitCode,
		Stdout:   string(res.Stdout),
		Stderr:   string(res.Stderr),
		Legacy:   legacy,
		TimedOut: errors.Is(runCtx.Err(), context.DeadlineExceeded),
		Duration: time.Since(start),
	}

	switch {
	case out.TimedOut:
		log.Warn("generator timed out", "timeout", g.Timeout, "duration", out.Duration)
	case !out.ExitOK:
		log.Warn("generator exited non-zero",
			"exit_code", out.ExitCode,
			"stderr", truncate(out.Stderr, maxLoggedOutput),
		)
	case out.Stderr != "":
		log.Warn("generator wrote to stderr", "stderr", truncate(out.Stderr, maxLoggedOutput))
	default:
		log.Info("generator finished", "duration", out.Duration)
	}
	log.Debug("generator stdout", "stdout", truncate(out.Stdout, maxLoggedOutput))

	return out, nil
}

// selectScript prefers the multi-file script and falls back to the legacy
// single-file one when only that is installed.
func (g *Exec) selectScript() (script string, legacy bool, err error) {
	if fileExists(g.Script) {
		return g.Script, false, nil
	}
	if g.LegacyScript != "" && fileExists(g.LegacyScript) {
		return g.LegacyScript, true, nil
	}
	return "", false, &TransportError{
		Err: fmt.Errorf("%w: %s", ErrNoScript, g.Script),
	}
}

func (g *Exec) writePayload(items []packing.Item) (string, func(), error) {
	data, err := MarshalPayload(BuildPayload(items, g.Defaults))
	if err != nil {
		return "", nil, fmt.Errorf("encode payload: %w", err)
	}

	f, err := os.CreateTemp(g.WorkDir, "packlist-payload-*.json")
	if err != nil {
		return "", nil, fmt.Errorf("create payload file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write payload file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close payload file: %w", err)
	}

	return f.Name(), cleanup, nil
}

func (g *Exec) fallbackName() string {
	if g.FallbackName == "" {
		return "completed_form.pdf"
	}
	return g.FallbackName
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
