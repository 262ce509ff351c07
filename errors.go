package docmerge

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	ErrNoInputFiles            = errors.New("merge request contains no input files")
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")
	ErrUnsupportedInputType    = errors.New("unsupported input file type")
	ErrEmptyDocumentName       = errors.New("document name cannot be empty")

	// Engine strategy errors.
	ErrEngineNotFound    = errors.New("conversion engine binary not found")
	ErrEngineFailed      = errors.New("conversion engine exited with error")
	ErrEngineEmptyOutput = errors.New("conversion engine produced no output")

	// Strategy chain errors.
	ErrAllStrategiesFailed = errors.New("all conversion strategies failed")

	// Assembly errors.
	ErrNoFragments = errors.New("no fragments to assemble")
)

// ValidationError reports that a request failed pre-flight checks.
// It is client-caused and non-retryable.
type ValidationError struct {
	Target   string   // file or request element that failed
	Problems []string // human-readable problems
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("validation failed for %q", e.Target)
	}
	return fmt.Sprintf("validation failed for %q: %s", e.Target, strings.Join(e.Problems, "; "))
}

// ConversionError reports that every fidelity strategy for one file was
// exhausted. Err joins the per-strategy causes for diagnostics.
type ConversionError struct {
	File string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %q: %v", e.File, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// AssemblyError reports an I/O failure writing the final artifact.
type AssemblyError struct {
	Format OutputFormat
	Err    error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembling %s output: %v", e.Format, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }
