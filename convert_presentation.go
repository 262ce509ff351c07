package docmerge

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-docmerge/internal/fileutil"
	"github.com/alnah/go-docmerge/internal/ooxml"
)

// PresentationConverter handles slide decks (ppt, pptx, odp).
//
// Chain: external engine -> slide text extraction from the pptx container
// (one page per slide) -> placeholder.
type PresentationConverter struct {
	deps  converterDeps
	chain []strategy
}

// NewPresentationConverter builds the three-tier chain.
func NewPresentationConverter(deps converterDeps) *PresentationConverter {
	c := &PresentationConverter{deps: deps}
	c.chain = []strategy{
		engineStrategy(deps),
		{name: strategyStructural, tier: tierStructural, run: c.structuralParse},
		placeholderStrategy(deps, []string{strategyEngine, strategyStructural}, archiveStats),
	}
	return c
}

// Type implements Converter.
func (c *PresentationConverter) Type() FileType { return FileTypePresentation }

// ConvertToPDF implements Converter.
func (c *PresentationConverter) ConvertToPDF(ctx context.Context, in InputFile) (ConversionResult, error) {
	return runChain(ctx, c.deps.logger, in, c.chain)
}

// structuralParse extracts per-slide text from the OOXML container and
// renders one page per slide.
func (c *PresentationConverter) structuralParse(ctx context.Context, in InputFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	slides, err := ooxml.ExtractSlides(in.Path)
	if err != nil {
		return "", err
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("presentation %q contains no slides", in.OriginalName)
	}

	pages := make([]slidePage, len(slides))
	for i, s := range slides {
		pages[i] = slidePage{
			Title: fmt.Sprintf("Slide %d", s.Index),
			Texts: s.Texts,
		}
	}

	fragment, err := fileutil.TempPath(c.deps.tempDir, "pdf")
	if err != nil {
		return "", err
	}
	if err := writeSlidesPDF(fragment, pages); err != nil {
		_ = os.Remove(fragment)
		return "", err
	}
	return fragment, nil
}
