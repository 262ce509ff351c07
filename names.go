package docmerge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// suffixLength is the number of random hex characters appended to output
// filenames to guarantee uniqueness.
const suffixLength = 8

// GenerateFilename builds a unique output filename:
// <documentName>-<ISO8601 timestamp with ':' and '.' replaced by '-'>-<8-char suffix>.<ext>
func GenerateFilename(documentName, ext string) string {
	name := sanitizeFilename(documentName)
	if name == "" {
		name = "merged"
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]

	return fmt.Sprintf("%s-%s-%s.%s", name, ts, suffix, strings.TrimPrefix(ext, "."))
}

// sanitizeFilename keeps letters, digits, hyphens, and underscores; every
// other character becomes a hyphen. Leading/trailing hyphens are trimmed.
func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	return strings.Trim(b.String(), "-")
}
