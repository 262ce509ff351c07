package docmerge

import (
	"log/slog"
	"time"
)

// FileType classifies an input file by its detected kind.
type FileType string

// Supported input kinds.
const (
	FileTypePDF          FileType = "pdf"
	FileTypeDocument     FileType = "document"
	FileTypeSpreadsheet  FileType = "spreadsheet"
	FileTypePresentation FileType = "presentation"
	FileTypeImage        FileType = "image"
	FileTypeText         FileType = "text"
)

// OutputFormat selects the merged artifact's format.
type OutputFormat string

// Supported output formats.
const (
	FormatPDF  OutputFormat = "pdf"
	FormatDOCX OutputFormat = "docx"
	FormatZIP  OutputFormat = "zip"
)

// IsValid reports whether f is a supported output format.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatZIP:
		return true
	}
	return false
}

// InputFile describes one uploaded file. Path is owned by the request's
// lifetime: the merger deletes it when Merge returns.
type InputFile struct {
	OriginalName string
	Path         string
	MIMEType     string
	Size         int64
	Type         FileType // detected; filled by Merge when empty
}

// MergeRequest is an ordered batch of input files plus the target format.
type MergeRequest struct {
	Files        []InputFile
	OutputFormat OutputFormat
	DocumentName string
	// MergeOrder optionally names files (by OriginalName) that must come
	// first, in the given order. Unnamed files keep upload order.
	MergeOrder []string
}

// ConversionResult describes one completed conversion attempt.
type ConversionResult struct {
	FragmentPath string
	StrategyTier int // ordinal, lower = higher fidelity
	Elapsed      time.Duration
}

// ValidationResult reports checks against one target (an input file, a
// conversion fragment, or the final output).
type ValidationResult struct {
	Target   string
	Valid    bool
	Warnings []string
	Errors   []string
}

// PerformanceMetrics aggregates request-level timings and memory delta.
type PerformanceMetrics struct {
	TotalTime      time.Duration
	ConversionTime time.Duration
	ValidationTime time.Duration
	MemoryDelta    int64 // heap bytes, end minus start; may be negative
}

// MergeResult is the descriptor returned for a successful merge. It is the
// only entity that outlives the request besides the output artifact itself.
type MergeResult struct {
	Filename          string
	FileSize          int64
	ProcessedFiles    int
	IntegrityScore    int
	Metrics           PerformanceMetrics
	ValidationResults []ValidationResult
}

// ResourceSnapshot is a point-in-time view of the governor's world.
type ResourceSnapshot struct {
	CPUPercent        float64
	MemoryUsed        uint64
	MemoryTotal       uint64
	MemoryPercent     float64
	ActiveOperations  int
	QueuedOperations  int
	AvgProcessingTime time.Duration
}

// Option configures a Merger.
type Option func(*Merger)

// mergerConfig holds internal configuration for Merger.
type mergerConfig struct {
	outputDir     string
	tempDir       string
	engineBinary  string
	engineTimeout time.Duration
	largeFileSize int64
	governor      GovernorConfig
}

// Defaults for merger configuration.
const (
	defaultOutputDir     = "./output"
	defaultTempDir       = "./temp"
	defaultEngineBinary  = "soffice"
	defaultEngineTimeout = 60 * time.Second

	// defaultLargeFileSize is the fragment size above which PDF assembly
	// switches to incremental appending to bound peak memory.
	defaultLargeFileSize = 50 << 20 // 50 MB
)

// WithOutputDir sets the directory final artifacts are written to.
func WithOutputDir(dir string) Option {
	return func(m *Merger) { m.cfg.outputDir = dir }
}

// WithTempDir sets the directory conversion fragments are written to.
func WithTempDir(dir string) Option {
	return func(m *Merger) { m.cfg.tempDir = dir }
}

// WithEngineBinary sets the office-engine binary name or path.
func WithEngineBinary(bin string) Option {
	return func(m *Merger) { m.cfg.engineBinary = bin }
}

// WithEngineTimeout sets the per-invocation timeout for the office engine.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithEngineTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("docmerge: WithEngineTimeout duration must be positive")
	}
	return func(m *Merger) { m.cfg.engineTimeout = d }
}

// WithLargeFileSize sets the byte threshold above which PDF fragments are
// appended incrementally instead of merged in one batch.
func WithLargeFileSize(n int64) Option {
	return func(m *Merger) { m.cfg.largeFileSize = n }
}

// WithGovernorConfig replaces the resource governor configuration.
// Zero fields keep their defaults.
func WithGovernorConfig(cfg GovernorConfig) Option {
	return func(m *Merger) { m.cfg.governor = m.cfg.governor.merged(cfg) }
}

// WithLogger sets the structured logger used by the merger and its
// collaborators. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Merger) { m.logger = logger }
}

// WithCommandRunner injects the runner used for engine invocations.
// Intended for tests (e.g., forcing the engine unavailable).
func WithCommandRunner(r CommandRunner) Option {
	return func(m *Merger) { m.runner = r }
}

// WithEngineProbe injects the engine-availability collaborator.
func WithEngineProbe(p *EngineProbe) Option {
	return func(m *Merger) { m.probe = p }
}
