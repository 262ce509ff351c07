package docmerge

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-docmerge/internal/fileutil"
)

// TextConverter handles plain and tabular text (txt, md, csv).
//
// Plain text renders as a page-wrapped monospaced stream; CSV renders as one
// aligned grid. The render step only fails on I/O errors, so a placeholder
// tier closes the chain for parity with the other converters.
type TextConverter struct {
	deps  converterDeps
	chain []strategy
}

// NewTextConverter builds the chain.
func NewTextConverter(deps converterDeps) *TextConverter {
	c := &TextConverter{deps: deps}
	c.chain = []strategy{
		{name: strategyStructural, tier: tierStructural, run: c.render},
		placeholderStrategy(deps, []string{strategyStructural}, nil),
	}
	return c
}

// Type implements Converter.
func (c *TextConverter) Type() FileType { return FileTypeText }

// ConvertToPDF implements Converter.
func (c *TextConverter) ConvertToPDF(ctx context.Context, in InputFile) (ConversionResult, error) {
	return runChain(ctx, c.deps.logger, in, c.chain)
}

func (c *TextConverter) render(ctx context.Context, in InputFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fragment, err := fileutil.TempPath(c.deps.tempDir, "pdf")
	if err != nil {
		return "", err
	}

	if strings.EqualFold(filepath.Ext(in.OriginalName), ".csv") {
		err = c.renderCSV(in, fragment)
	} else {
		err = c.renderPlain(in, fragment)
	}
	if err != nil {
		_ = os.Remove(fragment)
		return "", err
	}
	return fragment, nil
}

func (c *TextConverter) renderPlain(in InputFile, fragment string) error {
	content, err := os.ReadFile(in.Path) // #nosec G304 -- request-owned path
	if err != nil {
		return fmt.Errorf("reading %q: %w", in.OriginalName, err)
	}
	return writePlainPDF(fragment, in.OriginalName, string(content))
}

func (c *TextConverter) renderCSV(in InputFile, fragment string) error {
	f, err := os.Open(in.Path) // #nosec G304 -- request-owned path
	if err != nil {
		return fmt.Errorf("opening %q: %w", in.OriginalName, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows render as-is
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parsing CSV %q: %w", in.OriginalName, err)
	}
	if len(rows) == 0 {
		return writePlainPDF(fragment, in.OriginalName, "(empty file)")
	}

	return writeGridPDF(fragment, []sheetGrid{{Name: in.OriginalName, Rows: rows}})
}
