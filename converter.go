package docmerge

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alnah/go-docmerge/internal/fileutil"
)

// Converter produces a PDF representation of one input file. Each
// implementation owns an ordered chain of strategies of decreasing fidelity
// and increasing robustness; the chain guarantees a conversion step never
// blocks the pipeline outright.
type Converter interface {
	Type() FileType
	ConvertToPDF(ctx context.Context, in InputFile) (ConversionResult, error)
}

// Compile-time interface implementation checks.
var (
	_ Converter = (*DocumentConverter)(nil)
	_ Converter = (*SpreadsheetConverter)(nil)
	_ Converter = (*PresentationConverter)(nil)
	_ Converter = (*ImageConverter)(nil)
	_ Converter = (*TextConverter)(nil)
)

// converterDeps bundles the collaborators every chain shares.
type converterDeps struct {
	probe   *EngineProbe
	runner  CommandRunner
	tempDir string
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// Strategy tier ordinals. Lower = higher fidelity.
const (
	tierEngine      = 0
	tierStructural  = 1
	tierPlaceholder = 2
)

// Strategy names, surfaced in logs and placeholder report pages.
const (
	strategyEngine      = "external-engine"
	strategyStructural  = "structural-parse"
	strategyPlaceholder = "descriptive-placeholder"
)

// engineStrategy wraps the out-of-process engine invocation. Each invocation
// converts into its own private directory: the engine names its output after
// the input basename, so a shared outdir would let same-basename inputs in
// one batch overwrite each other mid-flight. The result is then relocated to
// a unique fragment path.
func engineStrategy(deps converterDeps) strategy {
	return strategy{
		name: strategyEngine,
		tier: tierEngine,
		run: func(ctx context.Context, in InputFile) (string, error) {
			outDir, err := os.MkdirTemp(deps.tempDir, "engine-")
			if err != nil {
				return "", err
			}
			defer func() { _ = os.RemoveAll(outDir) }()

			ec := &engineConverter{
				probe:   deps.probe,
				runner:  deps.runner,
				binary:  deps.binary,
				outDir:  outDir,
				timeout: deps.timeout,
			}
			out, err := ec.convert(ctx, in)
			if err != nil {
				return "", err
			}
			fragment, err := fileutil.TempPath(deps.tempDir, "pdf")
			if err != nil {
				return "", err
			}
			if err := os.Rename(out, fragment); err != nil {
				_ = os.Remove(fragment)
				return "", err
			}
			return fragment, nil
		},
	}
}

// placeholderStrategy emits the descriptive report page. stats supplies
// best-effort structural counts; failures there only reduce report detail.
func placeholderStrategy(deps converterDeps, attempted []string, stats func(in InputFile) (entries, media int)) strategy {
	return strategy{
		name: strategyPlaceholder,
		tier: tierPlaceholder,
		run: func(_ context.Context, in InputFile) (string, error) {
			fragment, err := fileutil.TempPath(deps.tempDir, "pdf")
			if err != nil {
				return "", err
			}

			info := placeholderInfo{
				FileName:  in.OriginalName,
				FileSize:  in.Size,
				Type:      in.Type,
				Attempted: attempted,
			}
			if stats != nil {
				info.Entries, info.Media = stats(in)
			}

			if err := writeReportPDF(fragment, info); err != nil {
				_ = os.Remove(fragment)
				return "", err
			}
			return fragment, nil
		},
	}
}
