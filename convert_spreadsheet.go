package docmerge

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/alnah/go-docmerge/internal/fileutil"
)

// SpreadsheetConverter handles workbook files (xls, xlsx, ods).
//
// Chain: external engine -> one monospaced grid per sheet -> placeholder.
type SpreadsheetConverter struct {
	deps  converterDeps
	chain []strategy
}

// NewSpreadsheetConverter builds the three-tier chain.
func NewSpreadsheetConverter(deps converterDeps) *SpreadsheetConverter {
	c := &SpreadsheetConverter{deps: deps}
	c.chain = []strategy{
		engineStrategy(deps),
		{name: strategyStructural, tier: tierStructural, run: c.structuralParse},
		placeholderStrategy(deps, []string{strategyEngine, strategyStructural}, archiveStats),
	}
	return c
}

// Type implements Converter.
func (c *SpreadsheetConverter) Type() FileType { return FileTypeSpreadsheet }

// ConvertToPDF implements Converter.
func (c *SpreadsheetConverter) ConvertToPDF(ctx context.Context, in InputFile) (ConversionResult, error) {
	return runChain(ctx, c.deps.logger, in, c.chain)
}

// structuralParse reads every sheet's cell grid and renders one page-broken
// grid per sheet.
func (c *SpreadsheetConverter) structuralParse(ctx context.Context, in InputFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wb, err := excelize.OpenFile(in.Path)
	if err != nil {
		return "", fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()

	var sheets []sheetGrid
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("reading sheet %q: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, sheetGrid{Name: name, Rows: rows})
	}
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook %q contains no data", in.OriginalName)
	}

	fragment, err := fileutil.TempPath(c.deps.tempDir, "pdf")
	if err != nil {
		return "", err
	}
	if err := writeGridPDF(fragment, sheets); err != nil {
		_ = os.Remove(fragment)
		return "", err
	}
	return fragment, nil
}
