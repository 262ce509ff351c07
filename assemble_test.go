package docmerge

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// makeFragment renders a one-line PDF fragment and returns its path.
func makeFragment(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := writePlainPDF(path, name, text); err != nil {
		t.Fatalf("generating fragment: %v", err)
	}
	return path
}

func TestAssemblePDF(t *testing.T) {
	dir := t.TempDir()
	a := NewAssembler(0, discardLogger())

	t.Run("no fragments fails", func(t *testing.T) {
		err := a.AssemblePDF(context.Background(), nil, filepath.Join(dir, "none.pdf"))

		var asmErr *AssemblyError
		if !errors.As(err, &asmErr) {
			t.Fatalf("expected *AssemblyError, got %T", err)
		}
		if !errors.Is(err, ErrNoFragments) {
			t.Error("expected error to wrap ErrNoFragments")
		}
	})

	t.Run("single fragment is copied", func(t *testing.T) {
		frag := makeFragment(t, dir, "only.pdf", "solo content")
		out := filepath.Join(dir, "single.pdf")

		if err := a.AssemblePDF(context.Background(), []string{frag}, out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertPDFFile(t, out)
	})

	t.Run("multiple fragments merge in order", func(t *testing.T) {
		frags := []string{
			makeFragment(t, dir, "a.pdf", "page one"),
			makeFragment(t, dir, "b.pdf", "page two"),
			makeFragment(t, dir, "c.pdf", "page three"),
		}
		out := filepath.Join(dir, "merged.pdf")

		if err := a.AssemblePDF(context.Background(), frags, out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertPDFFile(t, out)

		pages, err := pdfPageCount(out)
		if err != nil {
			t.Fatalf("counting pages: %v", err)
		}
		if pages != 3 {
			t.Errorf("expected 3 pages, got %d", pages)
		}
	})

	t.Run("large fragments append incrementally", func(t *testing.T) {
		// Threshold of 1 byte forces the incremental path.
		incremental := NewAssembler(1, discardLogger())
		frags := []string{
			makeFragment(t, dir, "big1.pdf", "page one"),
			makeFragment(t, dir, "big2.pdf", "page two"),
		}
		out := filepath.Join(dir, "incremental.pdf")

		if err := incremental.AssemblePDF(context.Background(), frags, out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		pages, err := pdfPageCount(out)
		if err != nil {
			t.Fatalf("counting pages: %v", err)
		}
		if pages != 2 {
			t.Errorf("expected 2 pages, got %d", pages)
		}
	})

	t.Run("unreadable fragment removes partial output", func(t *testing.T) {
		garbage := writeBytes(t, dir, "garbage.pdf", []byte("not a pdf"))
		frags := []string{
			makeFragment(t, dir, "fine.pdf", "ok"),
			garbage,
		}
		out := filepath.Join(dir, "failed.pdf")

		err := a.AssemblePDF(context.Background(), frags, out)
		var asmErr *AssemblyError
		if !errors.As(err, &asmErr) {
			t.Fatalf("expected *AssemblyError, got %v", err)
		}
		if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
			t.Error("expected partial output to be removed")
		}
	})
}

func TestAssembleDOCX(t *testing.T) {
	dir := t.TempDir()
	a := NewAssembler(0, discardLogger())

	textPath := writeBytes(t, dir, "notes.txt", []byte("first line\nsecond line"))
	imgPath := writeTestPNG(t, dir, 10, 10)

	files := []InputFile{
		{OriginalName: "notes.txt", Path: textPath, Type: FileTypeText},
		{OriginalName: "test.png", Path: imgPath, Type: FileTypeImage},
		{OriginalName: "sheet.xlsx", Path: textPath, Type: FileTypeSpreadsheet, Size: 1024},
	}
	out := filepath.Join(dir, "out.docx")

	if err := a.AssembleDOCX(context.Background(), files, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := checkDocxStructure(out); err != nil {
		t.Errorf("output docx is malformed: %v", err)
	}
}

func TestAssembleDOCX_Empty(t *testing.T) {
	a := NewAssembler(0, discardLogger())
	err := a.AssembleDOCX(context.Background(), nil, filepath.Join(t.TempDir(), "empty.docx"))
	if !errors.Is(err, ErrNoFragments) {
		t.Fatalf("expected ErrNoFragments, got %v", err)
	}
}

func TestAssembleZIP(t *testing.T) {
	dir := t.TempDir()
	a := NewAssembler(0, discardLogger())

	files := []InputFile{
		{OriginalName: "notes.txt", Path: writeBytes(t, dir, "notes.txt", []byte("text content")), Type: FileTypeText},
		{OriginalName: "report.pdf", Path: writeBytes(t, dir, "report.pdf", []byte("%PDF fake")), Type: FileTypePDF},
		{OriginalName: "notes.txt", Path: writeBytes(t, dir, "notes2.txt", []byte("duplicate name")), Type: FileTypeText},
	}
	out := filepath.Join(dir, "bundle.zip")

	if err := a.AssembleZIP(files, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("opening output zip: %v", err)
	}
	defer func() { _ = r.Close() }()

	want := []string{"text-1-notes.txt", "pdf-2-report.pdf", "text-3-notes.txt"}
	if len(r.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(r.File))
	}
	for i, w := range want {
		if r.File[i].Name != w {
			t.Errorf("entry[%d]: expected %q, got %q", i, w, r.File[i].Name)
		}
	}
}

func TestAssembleZIP_MissingInputRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	a := NewAssembler(0, discardLogger())

	files := []InputFile{
		{OriginalName: "gone.txt", Path: filepath.Join(dir, "gone.txt"), Type: FileTypeText},
	}
	out := filepath.Join(dir, "bundle.zip")

	err := a.AssembleZIP(files, out)
	var asmErr *AssemblyError
	if !errors.As(err, &asmErr) {
		t.Fatalf("expected *AssemblyError, got %v", err)
	}
	if asmErr.Format != FormatZIP {
		t.Errorf("expected format %q, got %q", FormatZIP, asmErr.Format)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("expected partial output to be removed")
	}
}

func TestArchiveEntryName(t *testing.T) {
	tests := []struct {
		in    InputFile
		index int
		want  string
	}{
		{InputFile{OriginalName: "a.txt", Type: FileTypeText}, 0, "text-1-a.txt"},
		{InputFile{OriginalName: "dir/evil.pdf", Type: FileTypePDF}, 4, "pdf-5-evil.pdf"},
	}

	for _, tt := range tests {
		if got := archiveEntryName(tt.in, tt.index); got != tt.want {
			t.Errorf("archiveEntryName(%q, %d) = %q, want %q", tt.in.OriginalName, tt.index, got, tt.want)
		}
	}
}

func TestAssemblyErrorMessage(t *testing.T) {
	err := &AssemblyError{Format: FormatPDF, Err: fmt.Errorf("disk full")}
	if msg := err.Error(); msg != `assembling pdf output: disk full` {
		t.Errorf("unexpected message %q", msg)
	}
}
