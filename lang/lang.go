// Package lang holds the language tracks of the catalog: detection, localized
// strings, season labels, URL builders and cache keys.
package lang

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Language is a catalog language track.
type Language string

const (
	Spanish Language = "es"
	English Language = "en"

	Default = Spanish
)

// All lists every supported language, default first.
var All = []Language{Spanish, English}

var ErrInvalidLanguage = errors.New("invalid language")

// Parse validates a language code.
func Parse(code string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case Spanish:
		return Spanish, nil
	case English:
		return English, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	_, err := Parse(string(l))
	return err == nil
}

// Detect resolves the language of a request: an explicit lang query
// parameter wins, then the English path prefix, then the default.
func Detect(path string, query url.Values) Language {
	if query != nil {
		if l, err := Parse(query.Get("lang")); err == nil {
			return l
		}
	}
	if path == "/en" || strings.HasPrefix(path, "/en/") {
		return English
	}
	return Default
}

// Segments are the localized path segments of the friendly URL surface.
type Segments struct {
	Prefix  string // "" or "/en"
	Program string
	Search  string
}

var segments = map[Language]Segments{
	Spanish: {Prefix: "", Program: "programa", Search: "buscar"},
	English: {Prefix: "/en", Program: "program", Search: "search"},
}

// PathSegments returns the friendly URL segments for l.
func (l Language) PathSegments() Segments {
	if s, ok := segments[l]; ok {
		return s
	}
	return segments[Default]
}

// HomeURL is the catalog home for l ("/" or "/en/").
func HomeURL(l Language) string {
	return l.PathSegments().Prefix + "/"
}

// ProgramURL builds /programa/{slug}/ or /en/program/{slug}/.
func ProgramURL(l Language, programSlug string) string {
	s := l.PathSegments()
	return s.Prefix + "/" + s.Program + "/" + url.PathEscape(programSlug) + "/"
}

// VideoURL builds the friendly URL of a single video.
func VideoURL(l Language, programSlug, videoSlug string) string {
	return ProgramURL(l, programSlug) + url.PathEscape(videoSlug) + "/"
}

// SearchURL builds the friendly URL of a search.
func SearchURL(l Language, term string) string {
	s := l.PathSegments()
	return s.Prefix + "/" + s.Search + "/" + url.PathEscape(strings.TrimSpace(term)) + "/"
}

// CacheKey builds a namespaced cache key: {language}_{name}[_{discriminator}...].
func CacheKey(l Language, name string, discriminators ...string) string {
	var b strings.Builder
	b.WriteString(string(l))
	b.WriteByte('_')
	b.WriteString(name)
	for _, d := range discriminators {
		if d == "" {
			continue
		}
		b.WriteByte('_')
		b.WriteString(d)
	}
	return b.String()
}

// CachePrefix is the key prefix shared by every cache entry of l.
func CachePrefix(l Language) string {
	return string(l) + "_"
}
