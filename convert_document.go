package docmerge

import (
	"context"
	"fmt"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"

	"github.com/alnah/go-docmerge/internal/fileutil"
	"github.com/alnah/go-docmerge/internal/ooxml"
)

// DocumentConverter handles word-processing files (doc, docx, odt).
//
// Chain: external engine -> structural parse of the docx XML -> placeholder.
// The structural tier only understands the OOXML container, so legacy .doc
// and .odt files that miss the engine fall through to the placeholder.
type DocumentConverter struct {
	deps  converterDeps
	chain []strategy
}

// NewDocumentConverter builds the three-tier chain.
func NewDocumentConverter(deps converterDeps) *DocumentConverter {
	c := &DocumentConverter{deps: deps}
	c.chain = []strategy{
		engineStrategy(deps),
		{name: strategyStructural, tier: tierStructural, run: c.structuralParse},
		placeholderStrategy(deps, []string{strategyEngine, strategyStructural}, archiveStats),
	}
	return c
}

// Type implements Converter.
func (c *DocumentConverter) Type() FileType { return FileTypeDocument }

// ConvertToPDF implements Converter.
func (c *DocumentConverter) ConvertToPDF(ctx context.Context, in InputFile) (ConversionResult, error) {
	return runChain(ctx, c.deps.logger, in, c.chain)
}

// structuralParse extracts paragraph runs with bold/italic cues from the
// docx container and re-lays them out onto generated pages.
func (c *DocumentConverter) structuralParse(ctx context.Context, in InputFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lines, err := extractDocxLines(in.Path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("document %q contains no extractable text", in.OriginalName)
	}

	fragment, err := fileutil.TempPath(c.deps.tempDir, "pdf")
	if err != nil {
		return "", err
	}
	if err := writeTextPDF(fragment, in.OriginalName, lines); err != nil {
		_ = os.Remove(fragment)
		return "", err
	}
	return fragment, nil
}

// extractDocxLines parses the OOXML document body into styled lines, one per
// paragraph. A run marks the whole line bold/italic when its properties say so.
func extractDocxLines(path string) ([]styledLine, error) {
	f, err := os.Open(path) // #nosec G304 -- request-owned path
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parsing docx structure: %w", err)
	}

	var lines []styledLine
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		var b strings.Builder
		var bold, italic bool
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			if run.RunProperties != nil {
				bold = bold || run.RunProperties.Bold != nil
				italic = italic || run.RunProperties.Italic != nil
			}
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					b.WriteString(t.Text)
				}
			}
		}

		lines = append(lines, styledLine{Text: b.String(), Bold: bold, Italic: italic})
	}

	return lines, nil
}

// archiveStats counts container entries and embedded media, best-effort.
func archiveStats(in InputFile) (int, int) {
	stats, err := ooxml.ArchiveStats(in.Path)
	if err != nil {
		return 0, 0
	}
	return stats.Entries, stats.Media
}
