package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripChars are removed outright; they carry no meaning for place comparison.
const stripChars = "()·.,-_/"

// StripDiacritics removes combining marks. NFC afterwards recomposes Hangul
// syllables that NFD split into jamo.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// isMn reports whether r is a nonspacing combining mark.
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// isZeroWidth covers the invisible joiners that leak in from copy-paste.
func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u2060', '\uFEFF':
		return true
	}
	return false
}

// Normalize canonicalizes s for comparison: lower case, no diacritics, no
// whitespace, none of "()·.,-_/" and no zero-width marks.
//
//	Normalize("Hong-Kong ()") == "hongkong"
//	Normalize("카이탁 크루즈 터미널") == "카이탁크루즈터미널"
func Normalize(s string) string {
	out := normalizeOnce(s)
	// Composition can yield a stripped rune (U+0387 becomes "·") and a
	// removal can leave jamo adjacent, so repeat until nothing changes.
	for {
		next := normalizeOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func normalizeOnce(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || isZeroWidth(r) || strings.ContainsRune(stripChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return StripDiacritics(strings.ToLower(b.String()))
}

// Romanize returns an ASCII transliteration of Normalize(s). Hangul becomes
// its romanized reading, which lets fuzzy scoring compare "hakata" with "하카타".
func Romanize(s string) string {
	n := Normalize(s)
	if n == "" {
		return ""
	}
	return Normalize(unidecode.Unidecode(n))
}
