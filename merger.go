package docmerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/alnah/go-docmerge/internal/fileutil"
)

// Merger orchestrates the conversion-and-merge pipeline: it validates
// inputs, resolves ordering, drives the converters through the resource
// governor, drives the assembler, scores the result, and guarantees cleanup
// of every transient artifact.
type Merger struct {
	cfg       mergerConfig
	governor  *Governor
	assembler *Assembler
	validator *Validator
	probe     *EngineProbe
	runner    CommandRunner
	logger    *slog.Logger
}

// NewMerger creates a Merger with default configuration.
// Use options to customize behavior (e.g., WithOutputDir, WithEngineTimeout).
// Returns an error if the output or temp directory cannot be created.
func NewMerger(opts ...Option) (*Merger, error) {
	m := &Merger{
		cfg: mergerConfig{
			outputDir:     defaultOutputDir,
			tempDir:       defaultTempDir,
			engineBinary:  defaultEngineBinary,
			engineTimeout: defaultEngineTimeout,
			largeFileSize: defaultLargeFileSize,
			governor:      DefaultGovernorConfig(),
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.runner == nil {
		m.runner = &ExecRunner{}
	}
	if m.probe == nil {
		m.probe = NewEngineProbe(m.cfg.engineBinary)
	}
	if m.governor == nil {
		m.governor = NewGovernor(m.cfg.governor, m.logger)
	}
	m.assembler = NewAssembler(m.cfg.largeFileSize, m.logger)
	m.validator = NewValidator(m.logger)

	if err := fileutil.EnsureDir(m.cfg.outputDir); err != nil {
		return nil, err
	}
	if err := fileutil.EnsureDir(m.cfg.tempDir); err != nil {
		return nil, err
	}

	return m, nil
}

// WithGovernor injects a pre-built governor (e.g., with a fake sampler in
// tests). Overrides WithGovernorConfig.
func WithGovernor(g *Governor) Option {
	return func(m *Merger) { m.governor = g }
}

// Merge runs the full pipeline and returns the result descriptor.
//
// It fails with *ValidationError if any input fails pre-flight checks or
// the output format is unsupported, *ConversionError if every fidelity
// strategy for a file is exhausted, and *AssemblyError if the final
// artifact cannot be written. On every path, all input files and transient
// fragments are deleted before returning; on failure no artifact is left
// behind.
func (m *Merger) Merge(ctx context.Context, req MergeRequest) (result *MergeResult, err error) {
	start := time.Now()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heapBefore := int64(ms.HeapAlloc)

	// Request-scoped fragment directory: removing it wholesale keeps the
	// cleanup invariant even when a failed batch leaves orphan fragments.
	reqTemp, err := os.MkdirTemp(m.cfg.tempDir, "req-")
	if err != nil {
		return nil, fmt.Errorf("creating request temp dir: %w", err)
	}

	var outPath string
	defer func() {
		for _, f := range req.Files {
			if f.Path != "" {
				_ = os.Remove(f.Path)
			}
		}
		_ = os.RemoveAll(reqTemp)
		if err != nil && outPath != "" {
			_ = os.Remove(outPath)
		}
	}()

	// Pre-flight: request shape, type detection, per-file checks.
	files, validations, err := m.preflight(req)
	if err != nil {
		return nil, err
	}

	// Canonical sequence: explicit merge order first, upload order for the
	// remainder. Grouping informs logging only; it never reorders.
	files = ResolveOrder(files, req.MergeOrder)
	for t, group := range GroupByType(files) {
		m.logger.Debug("request group", "type", t, "files", len(group))
	}

	ext := string(req.OutputFormat)
	outPath = filepath.Join(m.cfg.outputDir, GenerateFilename(req.DocumentName, ext))

	convStart := time.Now()
	var convElapsed time.Duration
	var convResults []ConversionResult
	var converted []struct {
		in   InputFile
		conv ConversionResult
	}

	switch req.OutputFormat {
	case FormatZIP:
		if err = m.assembler.AssembleZIP(files, outPath); err != nil {
			return nil, err
		}
	case FormatDOCX:
		if err = m.assembler.AssembleDOCX(ctx, files, outPath); err != nil {
			return nil, err
		}
	case FormatPDF:
		convResults, err = m.convertAll(ctx, files, reqTemp)
		if err != nil {
			return nil, err
		}
		convElapsed = time.Since(convStart)

		fragments := make([]string, 0, len(files))
		ci := 0
		for _, in := range files {
			if in.Type == FileTypePDF {
				// PDF inputs bypass conversion (identity).
				fragments = append(fragments, in.Path)
				continue
			}
			conv := convResults[ci]
			ci++
			fragments = append(fragments, conv.FragmentPath)
			converted = append(converted, struct {
				in   InputFile
				conv ConversionResult
			}{in, conv})
		}

		if err = m.assembler.AssemblePDF(ctx, fragments, outPath); err != nil {
			return nil, err
		}
	}
	if convElapsed == 0 {
		convElapsed = time.Since(convStart)
	}

	// Post-flight: per-file conversion checks plus the final artifact.
	valStart := time.Now()
	for _, c := range converted {
		validations = append(validations, m.validator.ValidateConversion(c.in, c.conv))
	}
	outVal := m.validator.ValidateOutput(outPath, req.OutputFormat)
	validations = append(validations, outVal)
	score := m.validator.Score(validations)
	valElapsed := time.Since(valStart)

	if !outVal.Valid {
		err = &AssemblyError{Format: req.OutputFormat, Err: fmt.Errorf("output failed validation: %v", outVal.Errors)}
		return nil, err
	}

	runtime.ReadMemStats(&ms)

	result = &MergeResult{
		Filename:          filepath.Base(outPath),
		FileSize:          fileutil.FileSize(outPath),
		ProcessedFiles:    len(files),
		IntegrityScore:    score,
		ValidationResults: validations,
		Metrics: PerformanceMetrics{
			TotalTime:      time.Since(start),
			ConversionTime: convElapsed,
			ValidationTime: valElapsed,
			MemoryDelta:    int64(ms.HeapAlloc) - heapBefore,
		},
	}

	m.logger.Info("merge completed",
		"output", result.Filename,
		"files", result.ProcessedFiles,
		"score", result.IntegrityScore,
		"elapsed", result.Metrics.TotalTime)

	return result, nil
}

// preflight validates the request shape and every input file independently,
// aborting on the first invalid file. No partial output is ever produced
// from an invalid batch.
func (m *Merger) preflight(req MergeRequest) ([]InputFile, []ValidationResult, error) {
	if len(req.Files) == 0 {
		return nil, nil, &ValidationError{Target: "request", Problems: []string{ErrNoInputFiles.Error()}}
	}
	if !req.OutputFormat.IsValid() {
		return nil, nil, &ValidationError{
			Target:   "request",
			Problems: []string{fmt.Sprintf("%s: %q", ErrUnsupportedOutputFormat, req.OutputFormat)},
		}
	}

	files := make([]InputFile, len(req.Files))
	validations := make([]ValidationResult, 0, len(req.Files))

	for i, in := range req.Files {
		if in.Type == "" {
			t, err := DetectType(in.OriginalName, in.MIMEType)
			if err != nil {
				return nil, nil, &ValidationError{Target: in.OriginalName, Problems: []string{err.Error()}}
			}
			in.Type = t
		}
		if in.Size == 0 {
			in.Size = fileutil.FileSize(in.Path)
		}

		val := m.validator.ValidateInput(in)
		if !val.Valid {
			return nil, nil, &ValidationError{Target: in.OriginalName, Problems: val.Errors}
		}
		validations = append(validations, val)
		files[i] = in
	}

	return files, validations, nil
}

// convertAll builds one conversion task per non-PDF file and submits the
// list to the governor. Results come back in task-submission order, which
// equals the resolved file order.
func (m *Merger) convertAll(ctx context.Context, files []InputFile, tempDir string) ([]ConversionResult, error) {
	converters := m.buildConverters(tempDir)

	var ops []Operation
	for _, in := range files {
		if in.Type == FileTypePDF {
			continue
		}
		conv, ok := converters[in.Type]
		if !ok {
			return nil, &ValidationError{Target: in.OriginalName, Problems: []string{
				fmt.Sprintf("%s: %q", ErrUnsupportedInputType, in.Type)}}
		}

		in := in
		ops = append(ops, func(ctx context.Context) (ConversionResult, error) {
			return conv.ConvertToPDF(ctx, in)
		})
	}

	results, err := m.governor.Execute(ctx, ops)
	if err != nil {
		var convErr *ConversionError
		if errors.As(err, &convErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &ConversionError{File: "batch", Err: err}
	}
	return results, nil
}

// buildConverters maps each file kind to its converter, all sharing the
// request-scoped fragment directory.
func (m *Merger) buildConverters(tempDir string) map[FileType]Converter {
	deps := converterDeps{
		probe:   m.probe,
		runner:  m.runner,
		tempDir: tempDir,
		binary:  m.cfg.engineBinary,
		timeout: m.cfg.engineTimeout,
		logger:  m.logger,
	}

	return map[FileType]Converter{
		FileTypeDocument:     NewDocumentConverter(deps),
		FileTypeSpreadsheet:  NewSpreadsheetConverter(deps),
		FileTypePresentation: NewPresentationConverter(deps),
		FileTypeImage:        NewImageConverter(deps),
		FileTypeText:         NewTextConverter(deps),
	}
}

// Snapshot exposes the governor's current resource view.
func (m *Merger) Snapshot(ctx context.Context) ResourceSnapshot {
	return m.governor.Snapshot(ctx)
}

// Probe returns the engine-availability collaborator, e.g. for diagnostics.
func (m *Merger) Probe() *EngineProbe {
	return m.probe
}
