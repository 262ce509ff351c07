package docmerge

import (
	"fmt"
	"path/filepath"
	"strings"
)

// extensionTypes maps lowercase file extensions to their detected kind.
var extensionTypes = map[string]FileType{
	".pdf":  FileTypePDF,
	".doc":  FileTypeDocument,
	".docx": FileTypeDocument,
	".odt":  FileTypeDocument,
	".xls":  FileTypeSpreadsheet,
	".xlsx": FileTypeSpreadsheet,
	".ods":  FileTypeSpreadsheet,
	".ppt":  FileTypePresentation,
	".pptx": FileTypePresentation,
	".odp":  FileTypePresentation,
	".png":  FileTypeImage,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
	".gif":  FileTypeImage,
	".bmp":  FileTypeImage,
	".webp": FileTypeImage,
	".txt":  FileTypeText,
	".md":   FileTypeText,
	".csv":  FileTypeText,
}

// mimeTypes maps exact MIME types to their detected kind, used when the
// extension is missing or unknown.
var mimeTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"application/msword":            FileTypeDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   FileTypeDocument,
	"application/vnd.oasis.opendocument.text":                                   FileTypeDocument,
	"application/vnd.ms-excel":                                                  FileTypeSpreadsheet,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         FileTypeSpreadsheet,
	"application/vnd.oasis.opendocument.spreadsheet":                            FileTypeSpreadsheet,
	"application/vnd.ms-powerpoint":                                             FileTypePresentation,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FileTypePresentation,
	"application/vnd.oasis.opendocument.presentation":                           FileTypePresentation,
	"text/plain":    FileTypeText,
	"text/markdown": FileTypeText,
	"text/csv":      FileTypeText,
}

// DetectType derives a file's kind from its name and declared MIME type.
// The extension wins; the MIME type is the fallback (with an image/* catch-all).
// Returns ErrUnsupportedInputType when neither identifies a supported kind.
func DetectType(name, mimeType string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t, nil
	}

	// Strip parameters like "; charset=utf-8"
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if t, ok := mimeTypes[mt]; ok {
		return t, nil
	}
	if strings.HasPrefix(mt, "image/") {
		return FileTypeImage, nil
	}

	return "", fmt.Errorf("%w: %q (%s)", ErrUnsupportedInputType, name, mimeType)
}

// SupportedExtensions returns the lowercase extensions accepted as input.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionTypes))
	for ext := range extensionTypes {
		exts = append(exts, ext)
	}
	return exts
}

// isArchiveBased reports whether files of this extension are zip containers
// whose structure can be sniffed during input validation.
func isArchiveBased(ext string) bool {
	switch strings.ToLower(ext) {
	case ".docx", ".xlsx", ".pptx", ".odt", ".ods", ".odp":
		return true
	}
	return false
}
