package docmerge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-docmerge/internal/fileutil"
	"github.com/alnah/go-docmerge/internal/process"
)

// CommandRunner abstracts command execution to enable testing without real
// subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec. The command runs in its
// own process group so a timeout kills the whole tree, not just the leader
// (office engines fork helper processes).
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	process.SetGroup(cmd)
	cmd.Cancel = func() error {
		process.KillGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// EngineProbe checks availability of the external conversion engine and
// caches the answer. It is an explicit collaborator handed to converters;
// call Invalidate to force a re-check (e.g., after installing the engine).
type EngineProbe struct {
	binary   string
	lookPath func(string) (string, error)

	mu        sync.Mutex
	checked   bool
	available bool
	path      string
}

// NewEngineProbe creates a probe for the given binary name or path.
func NewEngineProbe(binary string) *EngineProbe {
	return &EngineProbe{
		binary:   binary,
		lookPath: exec.LookPath,
	}
}

// Available reports whether the engine binary resolves on PATH.
// The first check is cached until Invalidate is called.
func (p *EngineProbe) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checked {
		path, err := p.lookPath(p.binary)
		p.checked = true
		p.available = err == nil
		p.path = path
	}
	return p.available
}

// Path returns the resolved binary path, or "" when unavailable.
func (p *EngineProbe) Path() string {
	if !p.Available() {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// Invalidate discards the cached availability so the next call re-checks.
func (p *EngineProbe) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checked = false
	p.available = false
	p.path = ""
}

// engineConverter invokes the office engine out of process:
//
//	<binary> --headless --convert-to pdf --outdir <dir> <input>
//
// A missing binary, non-zero exit, or empty output is a strategy failure,
// not a request failure.
type engineConverter struct {
	probe   *EngineProbe
	runner  CommandRunner
	binary  string
	outDir  string
	timeout time.Duration
}

// convert runs the engine with a bounded timeout and verifies the expected
// same-basename .pdf appeared in the output directory.
func (e *engineConverter) convert(ctx context.Context, in InputFile) (string, error) {
	if !e.probe.Available() {
		return "", fmt.Errorf("%w: %q", ErrEngineNotFound, e.binary)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	_, stderr, err := e.runner.Run(ctx, e.binary,
		"--headless", "--convert-to", "pdf", "--outdir", e.outDir, in.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEngineFailed, strings.TrimSpace(stderr), err)
	}

	outPath := expectedEngineOutput(e.outDir, in.Path)
	if !fileutil.FileExists(outPath) || fileutil.FileSize(outPath) == 0 {
		return "", fmt.Errorf("%w: expected %q", ErrEngineEmptyOutput, outPath)
	}

	return outPath, nil
}

// expectedEngineOutput is the engine's side-effect path: same basename with
// a .pdf extension, in the output directory.
func expectedEngineOutput(outDir, inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
	return filepath.Join(outDir, base)
}
