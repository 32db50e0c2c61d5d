// Package slug derives unique URL-safe identifiers for posts from their titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxBaseLength leaves room for a "-N" suffix inside the 255 character slug column.
const maxBaseLength = 240

// Normalize converts a title into its base slug: accents folded to ASCII,
// other non-ASCII dropped, lowercased, every run of non-alphanumerics
// collapsed to a single "-", with no leading or trailing "-".
// The result is empty when the title has no ASCII letters or digits.
func Normalize(title string) string {
	// transform.Chain is stateful, so build one per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false

	for _, r := range folded {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			pendingSep = true
			continue
		}

		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteRune(r)
	}

	base := b.String()
	if len(base) > maxBaseLength {
		base = strings.TrimRight(base[:maxBaseLength], "-")
	}
	return base
}
