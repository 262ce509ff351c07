package docmerge

import (
	"context"
	"os"

	"github.com/alnah/go-docmerge/internal/fileutil"
)

// ImageConverter handles raster images (png, jpg, jpeg, gif, bmp, webp).
//
// Image conversion is single-strategy: decode, compute a scale that fits the
// page while preserving aspect ratio, center, embed.
type ImageConverter struct {
	deps  converterDeps
	chain []strategy
}

// NewImageConverter builds the single-strategy chain.
func NewImageConverter(deps converterDeps) *ImageConverter {
	c := &ImageConverter{deps: deps}
	c.chain = []strategy{
		{name: "image-embed", tier: tierEngine, run: c.embed},
	}
	return c
}

// Type implements Converter.
func (c *ImageConverter) Type() FileType { return FileTypeImage }

// ConvertToPDF implements Converter.
func (c *ImageConverter) ConvertToPDF(ctx context.Context, in InputFile) (ConversionResult, error) {
	return runChain(ctx, c.deps.logger, in, c.chain)
}

func (c *ImageConverter) embed(ctx context.Context, in InputFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fragment, err := fileutil.TempPath(c.deps.tempDir, "pdf")
	if err != nil {
		return "", err
	}
	if err := writeImagePDF(fragment, in.Path); err != nil {
		_ = os.Remove(fragment)
		return "", err
	}
	return fragment, nil
}
