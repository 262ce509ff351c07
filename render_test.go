package docmerge

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

// assertPDFFile checks the file exists and carries the PDF magic header.
func assertPDFFile(t *testing.T, path string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading generated pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("file %q does not start with PDF header", path)
	}
}

func TestWritePlainPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.pdf")

	err := writePlainPDF(path, "notes.txt", "first line\n\nthird line with “smart quotes”")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDFFile(t, path)
}

func TestWriteTextPDF_StyledLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styled.pdf")

	lines := []styledLine{
		{Text: "Heading", Bold: true},
		{Text: "emphasis", Italic: true},
		{Text: "both", Bold: true, Italic: true},
		{Text: ""},
		{Text: "plain"},
	}
	if err := writeTextPDF(path, "doc.docx", lines); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDFFile(t, path)
}

func TestWriteGridPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.pdf")

	sheets := []sheetGrid{
		{
			Name: "Sheet1",
			Rows: [][]string{
				{"Name", "Amount", "Notes"},
				{"Widget", "42", "a fairly long cell value that should be truncated to fit"},
				{"Gadget", "7"},
			},
		},
		{
			Name: "Sheet2",
			Rows: [][]string{{"only"}},
		},
	}
	if err := writeGridPDF(path, sheets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDFFile(t, path)
}

func TestWriteSlidesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides.pdf")

	slides := []slidePage{
		{Title: "Slide 1", Texts: []string{"intro", "agenda"}},
		{Title: "Slide 2", Texts: []string{"conclusion"}},
	}
	if err := writeSlidesPDF(path, slides); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDFFile(t, path)

	pages, err := pdfPageCount(path)
	if err != nil {
		t.Fatalf("counting pages: %v", err)
	}
	if pages != 2 {
		t.Errorf("expected one page per slide (2), got %d", pages)
	}
}

// writeTestPNG creates a small solid-color PNG and returns its path.
func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	path := filepath.Join(dir, "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating png: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return path
}

func TestWriteImagePDF(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir, 30, 20)
	path := filepath.Join(dir, "image.pdf")

	if err := writeImagePDF(path, imgPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDFFile(t, path)
}

// writeTestBMP creates a small solid-color BMP and returns its path.
func writeTestBMP(t *testing.T, dir string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 90, B: 180, A: 255})
		}
	}

	path := filepath.Join(dir, "test.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating bmp: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := bmp.Encode(f, img); err != nil {
		t.Fatalf("encoding bmp: %v", err)
	}
	return path
}

func TestWriteImagePDF_TranscodesBMP(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestBMP(t, dir, 24, 16)
	path := filepath.Join(dir, "image.pdf")

	if err := writeImagePDF(path, imgPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDFFile(t, path)

	// The transcoded intermediate must not survive next to the output.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "img-") {
			t.Errorf("transcode temp file %q left behind", e.Name())
		}
	}
}

func TestWriteImagePDF_NotAnImage(t *testing.T) {
	dir := t.TempDir()
	bogus := writeBytes(t, dir, "bogus.png", []byte("not a png"))

	err := writeImagePDF(filepath.Join(dir, "out.pdf"), bogus)
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

func TestWriteReportPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")

	info := placeholderInfo{
		FileName:  "legacy.doc",
		FileSize:  3 << 20,
		Type:      FileTypeDocument,
		Entries:   14,
		Media:     2,
		Attempted: []string{strategyEngine, strategyStructural},
	}
	if err := writeReportPDF(path, info); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDFFile(t, path)
}

func TestGridColumnWidths(t *testing.T) {
	rows := [][]string{
		{"a", "medium cell", ""},
		{"bb"},
	}

	widths := gridColumnWidths(rows)
	if len(widths) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(widths))
	}
	for i, w := range widths {
		if w < minGridColMM || w > maxGridColMM {
			t.Errorf("column %d width %v outside [%v, %v]", i, w, minGridColMM, maxGridColMM)
		}
	}
}

func TestTruncateCell(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width float64
		want  string
	}{
		{"fits unchanged", "short", 60, "short"},
		{"long value gains ellipsis", "abcdefghijklmnopqrstuvwxyz0123456789abcdef", 20, "abcdefgh..."},
		{"tiny width keeps prefix", "abcdef", 3, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateCell(tt.in, tt.width); got != tt.want {
				t.Errorf("truncateCell(%q, %v) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}

	for _, tt := range tests {
		if got := humanSize(tt.n); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
