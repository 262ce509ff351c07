package docmerge

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/bmp"  // register BMP decoding
	_ "golang.org/x/image/webp" // register WebP decoding
)

// Page layout constants (A4 portrait, millimeters).
const (
	pageMarginMM   = 15.0
	bodyFontSize   = 10.0
	titleFontSize  = 14.0
	lineHeightMM   = 5.5
	gridFontSize   = 8.0
	gridCellHeight = 5.0
	maxGridColMM   = 60.0
	minGridColMM   = 12.0
)

// styledLine is one line of text with basic style cues extracted during a
// structural parse.
type styledLine struct {
	Text   string
	Bold   bool
	Italic bool
}

// placeholderInfo describes a file for the descriptive-placeholder strategy.
type placeholderInfo struct {
	FileName  string
	FileSize  int64
	Type      FileType
	Entries   int      // structural entry count (archive members, rows, ...)
	Media     int      // detected embedded media count
	Attempted []string // names of strategies attempted before this one
}

// newPDF returns an A4 portrait document with margins and automatic page
// breaks configured.
func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	pdf.SetAutoPageBreak(true, pageMarginMM)
	return pdf
}

// writeTextPDF lays styled lines out onto generated pages with word wrap.
// All text is sanitized before drawing.
func writeTextPDF(path, title string, lines []styledLine) error {
	pdf := newPDF()
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", titleFontSize)
		pdf.MultiCell(0, lineHeightMM+2, sanitizeText(title), "", "L", false)
		pdf.Ln(3)
	}

	for _, line := range lines {
		style := ""
		if line.Bold {
			style += "B"
		}
		if line.Italic {
			style += "I"
		}
		pdf.SetFont("Helvetica", style, bodyFontSize)

		text := sanitizeText(line.Text)
		if strings.TrimSpace(text) == "" {
			pdf.Ln(lineHeightMM)
			continue
		}
		pdf.MultiCell(0, lineHeightMM, text, "", "L", false)
	}

	return outputPDF(pdf, path)
}

// writePlainPDF renders unstyled text, splitting on newlines.
func writePlainPDF(path, title, text string) error {
	raw := strings.Split(text, "\n")
	lines := make([]styledLine, len(raw))
	for i, l := range raw {
		lines[i] = styledLine{Text: l}
	}
	return writeTextPDF(path, title, lines)
}

// sheetGrid is one named grid of cells (a spreadsheet sheet or a CSV file).
type sheetGrid struct {
	Name string
	Rows [][]string
}

// writeGridPDF renders one monospaced grid per sheet, each starting on its
// own page. Rows that overflow the page continue on the next one.
func writeGridPDF(path string, sheets []sheetGrid) error {
	pdf := newPDF()

	for _, sheet := range sheets {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", titleFontSize)
		pdf.MultiCell(0, lineHeightMM+2, sanitizeText(sheet.Name), "", "L", false)
		pdf.Ln(2)

		widths := gridColumnWidths(sheet.Rows)
		pdf.SetFont("Courier", "", gridFontSize)

		pageW, pageH, _ := pdf.PageSize(pdf.PageNo())
		usableW := pageW - 2*pageMarginMM
		breakAt := pageH - pageMarginMM - gridCellHeight

		for _, row := range sheet.Rows {
			if pdf.GetY() > breakAt {
				pdf.AddPage()
				pdf.SetFont("Courier", "", gridFontSize)
			}

			x := pageMarginMM
			for col, cell := range row {
				if col >= len(widths) {
					break
				}
				w := widths[col]
				if x+w > pageMarginMM+usableW {
					break // columns beyond the page width are dropped
				}
				pdf.SetXY(x, pdf.GetY())
				pdf.CellFormat(w, gridCellHeight, truncateCell(sanitizeText(cell), w), "1", 0, "L", false, 0, "")
				x += w
			}
			pdf.Ln(gridCellHeight)
		}
	}

	return outputPDF(pdf, path)
}

// gridColumnWidths sizes columns from content length, clamped to bounds.
func gridColumnWidths(rows [][]string) []float64 {
	var cols int
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	// ~1.7mm per character at the grid font size.
	const mmPerChar = 1.7

	widths := make([]float64, cols)
	for _, r := range rows {
		for i, cell := range r {
			w := float64(len(cell))*mmPerChar + 2
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < minGridColMM {
			widths[i] = minGridColMM
		}
		if widths[i] > maxGridColMM {
			widths[i] = maxGridColMM
		}
	}
	return widths
}

// truncateCell trims cell text to roughly fit the column width.
func truncateCell(s string, width float64) string {
	maxChars := int(width / 1.7)
	if maxChars < 1 {
		maxChars = 1
	}
	if len(s) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return s[:maxChars]
	}
	return s[:maxChars-3] + "..."
}

// slidePage is one presentation slide's extracted text.
type slidePage struct {
	Title string
	Texts []string
}

// writeSlidesPDF renders one page per slide.
func writeSlidesPDF(path string, slides []slidePage) error {
	pdf := newPDF()

	for _, slide := range slides {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", titleFontSize)
		pdf.MultiCell(0, lineHeightMM+2, sanitizeText(slide.Title), "", "L", false)
		pdf.Ln(3)

		pdf.SetFont("Helvetica", "", bodyFontSize)
		for _, text := range slide.Texts {
			pdf.MultiCell(0, lineHeightMM, sanitizeText(text), "", "L", false)
			pdf.Ln(1)
		}
	}

	return outputPDF(pdf, path)
}

// writeImagePDF centers a decoded image on a single page, scaled to fit
// while preserving aspect ratio.
func writeImagePDF(path, imgPath string) error {
	f, err := os.Open(imgPath) // #nosec G304 -- request-owned path
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(f)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("decoding image %q: %w", imgPath, err)
	}
	if closeErr != nil {
		return fmt.Errorf("closing image: %w", closeErr)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("decoding image %q: empty dimensions", imgPath)
	}

	// The PDF writer embeds png, jpeg and gif natively; other decodable
	// formats (bmp, webp) are transcoded to png first.
	embedPath := imgPath
	switch format {
	case "png", "jpeg", "gif":
	default:
		tmp, err := transcodeToPNG(imgPath, filepath.Dir(path))
		if err != nil {
			return err
		}
		defer func() { _ = os.Remove(tmp) }()
		embedPath = tmp
	}

	pdf := newPDF()
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH, _ := pdf.PageSize(pdf.PageNo())
	boxW := pageW - 2*pageMarginMM
	boxH := pageH - 2*pageMarginMM

	scale := boxW / float64(cfg.Width)
	if h := float64(cfg.Height) * scale; h > boxH {
		scale = boxH / float64(cfg.Height)
	}
	w := float64(cfg.Width) * scale
	h := float64(cfg.Height) * scale
	x := pageMarginMM + (boxW-w)/2
	y := pageMarginMM + (boxH-h)/2

	pdf.ImageOptions(embedPath, x, y, w, h, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")

	return outputPDF(pdf, path)
}

// transcodeToPNG re-encodes an image as a PNG temp file in dir.
func transcodeToPNG(imgPath, dir string) (string, error) {
	f, err := os.Open(imgPath) // #nosec G304 -- request-owned path
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	img, _, err := image.Decode(f)
	closeErr := f.Close()
	if err != nil {
		return "", fmt.Errorf("decoding image %q: %w", imgPath, err)
	}
	if closeErr != nil {
		return "", fmt.Errorf("closing image: %w", closeErr)
	}

	out, err := os.CreateTemp(dir, "img-*.png")
	if err != nil {
		return "", fmt.Errorf("creating transcode target: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("transcoding %q to png: %w", imgPath, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("closing transcode target: %w", err)
	}
	return out.Name(), nil
}

// writeReportPDF emits the descriptive placeholder page: file statistics and
// which higher-fidelity strategies were attempted. Always succeeds barring
// I/O errors, so a conversion chain never blocks the pipeline outright.
func writeReportPDF(path string, info placeholderInfo) error {
	lines := []styledLine{
		{Text: "Conversion Report", Bold: true},
		{Text: ""},
		{Text: fmt.Sprintf("File: %s", info.FileName)},
		{Text: fmt.Sprintf("Detected type: %s", info.Type)},
		{Text: fmt.Sprintf("Size: %s", humanSize(info.FileSize))},
	}
	if info.Entries > 0 {
		lines = append(lines, styledLine{Text: fmt.Sprintf("Structural entries: %d", info.Entries)})
	}
	if info.Media > 0 {
		lines = append(lines, styledLine{Text: fmt.Sprintf("Embedded media: %d", info.Media)})
	}
	if len(info.Attempted) > 0 {
		lines = append(lines,
			styledLine{Text: ""},
			styledLine{Text: "Strategies attempted before this page:", Italic: true},
		)
		for _, name := range info.Attempted {
			lines = append(lines, styledLine{Text: "* " + name})
		}
	}
	lines = append(lines,
		styledLine{Text: ""},
		styledLine{Text: "The original content could not be rendered at higher fidelity.", Italic: true},
	)

	return writeTextPDF(path, "", lines)
}

// outputPDF writes the document and surfaces any accumulated render error.
func outputPDF(pdf *fpdf.Fpdf, path string) error {
	if pdf.Err() {
		return fmt.Errorf("rendering page: %w", pdf.Error())
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

// humanSize formats a byte count for report pages.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
