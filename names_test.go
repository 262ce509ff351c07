package docmerge

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerateFilename(t *testing.T) {
	// <name>-<timestamp with : and . replaced by ->-<8 hex chars>.<ext>
	pattern := regexp.MustCompile(`^report-\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}Z-[0-9a-f]{8}\.pdf$`)

	got := GenerateFilename("report", "pdf")
	if !pattern.MatchString(got) {
		t.Errorf("filename %q does not match expected pattern", got)
	}
}

func TestGenerateFilename_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := GenerateFilename("doc", "pdf")
		if seen[name] {
			t.Fatalf("duplicate filename generated: %q", name)
		}
		seen[name] = true
	}
}

func TestGenerateFilename_SanitizesName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrefix string
	}{
		{
			name:       "spaces and slashes become hyphens",
			input:      "my report/v2",
			wantPrefix: "my-report-v2-",
		},
		{
			name:       "empty name falls back to merged",
			input:      "",
			wantPrefix: "merged-",
		},
		{
			name:       "all-invalid name falls back to merged",
			input:      "///",
			wantPrefix: "merged-",
		},
		{
			name:       "underscores kept",
			input:      "annual_report",
			wantPrefix: "annual_report-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateFilename(tt.input, "docx")
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("expected prefix %q, got %q", tt.wantPrefix, got)
			}
			if !strings.HasSuffix(got, ".docx") {
				t.Errorf("expected .docx suffix, got %q", got)
			}
		})
	}
}

func TestGenerateFilename_ExtensionDotStripped(t *testing.T) {
	got := GenerateFilename("doc", ".zip")
	if strings.Contains(got, "..") {
		t.Errorf("double dot in filename %q", got)
	}
	if !strings.HasSuffix(got, ".zip") {
		t.Errorf("expected .zip suffix, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report", "report"},
		{"my report", "my-report"},
		{"a/b\\c", "a-b-c"},
		{"--trimmed--", "trimmed"},
		{"", ""},
		{"日本語", ""},
		{"mix_09-AZ", "mix_09-AZ"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
