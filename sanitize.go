package docmerge

import "strings"

// replacementRunes maps code points outside the core-font encodable range to
// ASCII-safe equivalents. Anything not listed here and not plain ASCII is
// rendered as '?'.
var replacementRunes = map[rune]string{
	'‘': "'",   // left single quote
	'’': "'",   // right single quote
	'‚': "'",   // single low quote
	'‛': "'",   // single reversed quote
	'“': `"`,   // left double quote
	'”': `"`,   // right double quote
	'„': `"`,   // double low quote
	'–': "-",   // en dash
	'—': "-",   // em dash
	'−': "-",   // minus sign
	'•': "*",   // bullet
	'◦': "*",   // white bullet
	'▪': "*",   // black small square
	'…': "...", // ellipsis
	' ': " ",   // no-break space
	'«': "<<",  // left guillemet
	'»': ">>",  // right guillemet
	'‹': "<",   // single left guillemet
	'›': ">",   // single right guillemet
	'×': "x",   // multiplication sign
	'™': "(TM)",
	'©': "(c)",
	'®': "(r)",
}

// sanitizeText maps text into the encodable range of the PDF core fonts.
// Smart punctuation becomes its ASCII equivalent; any other code point
// outside printable ASCII (plus tab and newline) becomes '?'. Page rendering
// must never receive unsanitized text: unencodable runes abort rendering.
func sanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '\r':
			// dropped; callers split on \n
		case r >= 0x20 && r < 0x7F:
			b.WriteRune(r)
		default:
			if repl, ok := replacementRunes[r]; ok {
				b.WriteString(repl)
			} else {
				b.WriteByte('?')
			}
		}
	}

	return b.String()
}

// sanitizeLines applies sanitizeText to each line.
func sanitizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = sanitizeText(l)
	}
	return out
}
