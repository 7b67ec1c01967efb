package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes text and drops combining marks, so "Español" becomes "Espanol".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases s, strips accents and replaces every run of non letter/digit
// characters with a single space. The result is trimmed.
func Fold(s string) string {
	s = strings.ToLower(stripMarks(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Slugify derives the URL segment for a program name or video title:
// lowercase, accents stripped, punctuation dropped, words joined by dashes.
func Slugify(s string) string {
	return strings.ReplaceAll(Fold(s), " ", "-")
}

var stopWords = map[string]bool{
	// es
	"los": true, "las": true, "del": true, "con": true, "por": true, "para": true,
	"una": true, "uno": true, "que": true, "como": true, "sus": true,
	// en
	"the": true, "and": true, "for": true, "with": true, "from": true, "that": true,
	"this": true, "are": true, "was": true, "you": true,
}

// Keywords splits a search term into unique folded words, dropping stop words
// and words shorter than three characters. Order of first appearance is kept.
func Keywords(term string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(Fold(term)) {
		if len([]rune(w)) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
