package main

import (
	"errors"
	"os"

	docmerge "github.com/alnah/go-docmerge"
)

// Exit codes for the docmerge CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, custom codes < 126.
const (
	ExitSuccess    = 0 // Successful merge
	ExitGeneral    = 1 // General/unexpected error
	ExitUsage      = 2 // Invalid flags, config, or validation
	ExitIO         = 3 // File not found, permission denied, write failure
	ExitConversion = 4 // All conversion strategies exhausted
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.As/Is to check wrapped errors, so callers must wrap with
// fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *docmerge.ValidationError
	if errors.As(err, &validationErr) ||
		errors.Is(err, docmerge.ErrConfigNotFound) ||
		errors.Is(err, docmerge.ErrConfigParse) ||
		errors.Is(err, docmerge.ErrUnsupportedOutputFormat) ||
		errors.Is(err, docmerge.ErrUnsupportedInputType) {
		return ExitUsage
	}

	var conversionErr *docmerge.ConversionError
	if errors.As(err, &conversionErr) {
		return ExitConversion
	}

	var assemblyErr *docmerge.AssemblyError
	if errors.As(err, &assemblyErr) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}
