package docmerge

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/alnah/go-docmerge/internal/ooxml"
)

// Integrity scoring constants.
const (
	scorePerValidResult = 100
	warningPenalty      = 5

	// tinyFileBytes marks inputs small enough to warrant an advisory warning.
	tinyFileBytes = 64
)

// Validator checks inputs pre-flight, outputs post-flight, and reduces
// validation results to a single 0-100 integrity score. The score is
// advisory: it is surfaced to callers, never used to reject output.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// ValidateInput runs pre-flight checks on one input file: existence,
// non-zero size, supported extension, and a structural sniff where feasible
// (archive-based formats must open as valid archives).
func (v *Validator) ValidateInput(in InputFile) ValidationResult {
	res := ValidationResult{Target: in.OriginalName, Valid: true}

	info, err := os.Stat(in.Path)
	if err != nil {
		res.Valid = false
		res.Errors = append(res.Errors, "file does not exist")
		return res
	}
	if info.Size() == 0 {
		res.Valid = false
		res.Errors = append(res.Errors, "file is empty")
		return res
	}
	if info.Size() <= tinyFileBytes {
		res.Warnings = append(res.Warnings, fmt.Sprintf("file is very small (%d bytes)", info.Size()))
	}

	ext := strings.ToLower(filepath.Ext(in.OriginalName))
	if _, ok := extensionTypes[ext]; !ok {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("unsupported extension %q", ext))
		return res
	}

	if isArchiveBased(ext) && !ooxml.IsArchive(in.Path) {
		res.Valid = false
		res.Errors = append(res.Errors, "file is not a valid archive-based document")
		return res
	}

	if mt, err := mimetype.DetectFile(in.Path); err == nil {
		if declared := strings.ToLower(in.MIMEType); declared != "" &&
			!mt.Is(declared) && !strings.HasPrefix(declared, "text/") {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("declared type %q does not match detected %q", declared, mt.String()))
		}
	}

	return res
}

// ValidateConversion checks one conversion fragment. A fallback tier is a
// warning, not an error: fidelity loss is advisory.
func (v *Validator) ValidateConversion(in InputFile, conv ConversionResult) ValidationResult {
	res := ValidationResult{Target: in.OriginalName, Valid: true}

	info, err := os.Stat(conv.FragmentPath)
	if err != nil || info.Size() == 0 {
		res.Valid = false
		res.Errors = append(res.Errors, "conversion produced no usable fragment")
		return res
	}

	switch conv.StrategyTier {
	case tierStructural:
		res.Warnings = append(res.Warnings, "converted with structural-parse fallback")
	case tierPlaceholder:
		res.Warnings = append(res.Warnings, "converted with placeholder fallback")
	}

	return res
}

// ValidateOutput runs post-flight checks on the final artifact: it must
// exist, be non-trivial, and be structurally well-formed for its format.
func (v *Validator) ValidateOutput(path string, format OutputFormat) ValidationResult {
	res := ValidationResult{Target: filepath.Base(path), Valid: true}

	info, err := os.Stat(path)
	if err != nil {
		res.Valid = false
		res.Errors = append(res.Errors, "output artifact was not written")
		return res
	}
	if info.Size() == 0 {
		res.Valid = false
		res.Errors = append(res.Errors, "output artifact is empty")
		return res
	}

	switch format {
	case FormatPDF:
		pages, err := pdfPageCount(path)
		if err != nil {
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf("output is not a readable PDF: %v", err))
		} else if pages < 1 {
			res.Valid = false
			res.Errors = append(res.Errors, "output PDF has no pages")
		}
	case FormatDOCX:
		if err := checkDocxStructure(path); err != nil {
			res.Valid = false
			res.Errors = append(res.Errors, err.Error())
		}
	case FormatZIP:
		r, err := zip.OpenReader(path)
		if err != nil {
			res.Valid = false
			res.Errors = append(res.Errors, "output is not a readable archive")
		} else {
			_ = r.Close()
		}
	}

	return res
}

// pdfPageCount opens the artifact and reads its page count.
func pdfPageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return r.NumPage(), nil
}

// checkDocxStructure verifies the artifact is a zip containing the main
// document part.
func checkDocxStructure(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("output is not a readable docx container")
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			return nil
		}
	}
	return fmt.Errorf("output docx is missing word/document.xml")
}

// Score reduces validation results to the request-level integrity score:
// 100 per valid result minus 5 per warning (floored at 0 per result),
// invalid results contribute 0; the aggregate is the rounded mean clamped
// to [0, 100]. Zero results yield 0.
func (v *Validator) Score(results []ValidationResult) int {
	if len(results) == 0 {
		return 0
	}

	total := 0
	for _, r := range results {
		if !r.Valid {
			continue
		}
		s := scorePerValidResult - warningPenalty*len(r.Warnings)
		if s < 0 {
			s = 0
		}
		total += s
	}

	score := int(math.Round(float64(total) / float64(len(results))))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
