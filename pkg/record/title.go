package record

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TitleKeyLength is the fixed bound of the title comparison key. All
// equality-based title matching uses the key, never the display title.
const TitleKeyLength = 25

// stripDiacritics decomposes, removes combining marks, and recomposes.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTitle builds the comparison key for a title: diacritics
// stripped, lowercased, punctuation dropped, a single leading article
// removed, " and " collapsed, spaces removed, truncated to
// TitleKeyLength bytes.
//
// The key is deterministic: NormalizeTitle("The Great Book") and
// NormalizeTitle("great book") produce the same key.
func NormalizeTitle(title string) string {
	s, _, _ := transform.String(stripDiacritics, title)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	for _, article := range []string{"the ", "a "} {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}

	s = strings.ReplaceAll(s, " and ", " ")
	s = strings.ReplaceAll(s, " ", "")

	if len(s) > TitleKeyLength {
		s = s[:TitleKeyLength]
	}
	return s
}

// NormalizeName builds a name comparison form that is stable across the
// "Given Surname" and "Surname, Given" citation orders: diacritics and
// punctuation stripped, lowercased, tokens sorted.
func NormalizeName(name string) string {
	s, _, _ := transform.String(stripDiacritics, name)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
