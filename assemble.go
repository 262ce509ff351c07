package docmerge

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/alnah/go-docmerge/internal/fileutil"
)

// Assembler combines converted fragments (or originals) into the final
// artifact. Any write failure surfaces as *AssemblyError and removes the
// partially written output, so a failed request leaves no artifact behind.
type Assembler struct {
	largeFileSize int64
	logger        *slog.Logger
}

// NewAssembler creates an Assembler. Fragments larger than largeFileSize
// bytes switch PDF assembly to incremental appending to bound peak memory.
func NewAssembler(largeFileSize int64, logger *slog.Logger) *Assembler {
	if largeFileSize <= 0 {
		largeFileSize = defaultLargeFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{largeFileSize: largeFileSize, logger: logger}
}

// AssemblePDF concatenates PDF fragments into outPath, preserving page
// content and fragment order.
func (a *Assembler) AssemblePDF(ctx context.Context, fragments []string, outPath string) error {
	if len(fragments) == 0 {
		return &AssemblyError{Format: FormatPDF, Err: ErrNoFragments}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(fragments) == 1 {
		if err := fileutil.CopyFile(fragments[0], outPath); err != nil {
			return a.fail(FormatPDF, outPath, err)
		}
		return nil
	}

	if a.anyLarge(fragments) {
		return a.appendIncrementally(ctx, fragments, outPath)
	}

	if err := api.MergeCreateFile(fragments, outPath, false, nil); err != nil {
		return a.fail(FormatPDF, outPath, err)
	}
	return nil
}

// anyLarge reports whether any fragment exceeds the streaming threshold.
func (a *Assembler) anyLarge(fragments []string) bool {
	for _, f := range fragments {
		if fileutil.FileSize(f) > a.largeFileSize {
			return true
		}
	}
	return false
}

// appendIncrementally merges one fragment at a time so only one large file
// is in flight at once.
func (a *Assembler) appendIncrementally(ctx context.Context, fragments []string, outPath string) error {
	a.logger.Debug("large fragment detected, assembling incrementally",
		"fragments", len(fragments), "threshold", a.largeFileSize)

	if err := fileutil.CopyFile(fragments[0], outPath); err != nil {
		return a.fail(FormatPDF, outPath, err)
	}
	for _, frag := range fragments[1:] {
		if err := ctx.Err(); err != nil {
			_ = os.Remove(outPath)
			return err
		}
		if err := api.MergeAppendFile([]string{frag}, outPath, false, nil); err != nil {
			return a.fail(FormatPDF, outPath, err)
		}
	}
	return nil
}

// AssembleDOCX appends recognized per-type content sequentially: plain text
// as paragraphs, images as inline drawings, and a structural placeholder
// for embedded document content.
func (a *Assembler) AssembleDOCX(ctx context.Context, files []InputFile, outPath string) error {
	if len(files) == 0 {
		return &AssemblyError{Format: FormatDOCX, Err: ErrNoFragments}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w := docx.New()

	for _, in := range files {
		switch in.Type {
		case FileTypeText:
			if err := appendTextParagraphs(w, in); err != nil {
				return a.fail(FormatDOCX, outPath, err)
			}
		case FileTypeImage:
			para := w.AddParagraph()
			if _, err := para.AddInlineDrawingFrom(in.Path); err != nil {
				return a.fail(FormatDOCX, outPath, fmt.Errorf("embedding image %q: %w", in.OriginalName, err))
			}
		default:
			// Embedded document content keeps its place in the sequence via
			// a structural placeholder.
			para := w.AddParagraph()
			para.AddText(fmt.Sprintf("[Embedded %s: %s (%s)]", in.Type, in.OriginalName, humanSize(in.Size)))
		}
	}

	f, err := os.Create(outPath) // #nosec G304 -- merger-owned output path
	if err != nil {
		return a.fail(FormatDOCX, outPath, err)
	}
	if _, err := w.WriteTo(f); err != nil {
		_ = f.Close()
		return a.fail(FormatDOCX, outPath, err)
	}
	if err := f.Close(); err != nil {
		return a.fail(FormatDOCX, outPath, err)
	}
	return nil
}

// appendTextParagraphs adds one paragraph per line of the text file.
func appendTextParagraphs(w *docx.Docx, in InputFile) error {
	content, err := os.ReadFile(in.Path) // #nosec G304 -- request-owned path
	if err != nil {
		return fmt.Errorf("reading %q: %w", in.OriginalName, err)
	}

	for _, line := range strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n") {
		para := w.AddParagraph()
		para.AddText(line)
	}
	return nil
}

// AssembleZIP archives every original file under a collision-free name
// derived from its detected type and original name.
func (a *Assembler) AssembleZIP(files []InputFile, outPath string) error {
	if len(files) == 0 {
		return &AssemblyError{Format: FormatZIP, Err: ErrNoFragments}
	}

	out, err := os.Create(outPath) // #nosec G304 -- merger-owned output path
	if err != nil {
		return a.fail(FormatZIP, outPath, err)
	}

	zw := zip.NewWriter(out)
	for i, in := range files {
		if err := addZipEntry(zw, in, archiveEntryName(in, i)); err != nil {
			_ = zw.Close()
			_ = out.Close()
			return a.fail(FormatZIP, outPath, err)
		}
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()
		return a.fail(FormatZIP, outPath, err)
	}
	if err := out.Close(); err != nil {
		return a.fail(FormatZIP, outPath, err)
	}
	return nil
}

// archiveEntryName builds a type-prefixed, index-disambiguated entry name.
func archiveEntryName(in InputFile, index int) string {
	base := filepath.Base(in.OriginalName)
	return fmt.Sprintf("%s-%d-%s", in.Type, index+1, base)
}

func addZipEntry(zw *zip.Writer, in InputFile, name string) error {
	src, err := os.Open(in.Path) // #nosec G304 -- request-owned path
	if err != nil {
		return fmt.Errorf("opening %q: %w", in.OriginalName, err)
	}
	defer func() { _ = src.Close() }()

	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating entry %q: %w", name, err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("writing entry %q: %w", name, err)
	}
	return nil
}

// fail wraps err in *AssemblyError and removes any partial output.
func (a *Assembler) fail(format OutputFormat, outPath string, err error) error {
	_ = os.Remove(outPath)
	return &AssemblyError{Format: format, Err: err}
}
