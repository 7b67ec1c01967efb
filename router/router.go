// Package router maps request paths onto catalog pages. Resolve is pure apart
// from the Validator lookups; redirects are only described here and issued by
// the HTTP layer.
package router

import (
	"adc-catalog-go/lang"
	"adc-catalog-go/logcolors"
	"adc-catalog-go/utils"
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
)

type PageType string

const (
	PageHome    PageType = "home"
	PageProgram PageType = "program"
	PageVideo   PageType = "video"
	PageSearch  PageType = "search"
)

// Params are the page parameters parsed from a friendly URL.
type Params struct {
	Lang        lang.Language
	Type        PageType
	ProgramSlug string
	VideoSlug   string
	SearchTerm  string

	// Unavailable is set when validation could not reach the video API.
	Unavailable bool
}

type Kind int

const (
	KindRender Kind = iota
	KindRedirect
	KindPassthrough
)

func (k Kind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindRedirect:
		return "redirect"
	default:
		return "passthrough"
	}
}

// Decision is the outcome of routing one request.
type Decision struct {
	Kind   Kind
	Params Params
	URL    string
	Status int
}

func Render(p Params) Decision { return Decision{Kind: KindRender, Params: p} }

func Redirect(url string, status int) Decision {
	return Decision{Kind: KindRedirect, URL: url, Status: status}
}

func Passthrough() Decision { return Decision{Kind: KindPassthrough} }

type Request struct {
	Method string
	Path   string
	Query  url.Values
}

// Validator checks friendly URL slugs against live catalog data. An error
// means the data could not be loaded, not that the slug is unknown.
type Validator interface {
	ValidateProgram(ctx context.Context, l lang.Language, programSlug string) (bool, error)
	ValidateVideo(ctx context.Context, l lang.Language, programSlug, videoSlug string) (bool, error)
}

// Legacy query parameters of the old query-string URLs.
const (
	LegacyProgram = "categoria"
	LegacyVideo   = "video"
	LegacySearch  = "adc_search"
)

// Resolve routes req:
//  1. friendly program, video and search paths are validated and rendered,
//     or redirected to the language home with 301 when validation fails;
//  2. legacy query strings are redirected with 301 to their friendly URL;
//  3. the two home paths render the grid;
//  4. everything else goes through ResolveNotFound.
func Resolve(ctx context.Context, req Request, v Validator) Decision {
	if req.Method != "" && req.Method != http.MethodGet && req.Method != http.MethodHead {
		return Passthrough()
	}

	if p, ok := Match(req.Path); ok {
		return validate(ctx, p, v)
	}

	if d, ok := resolveLegacy(req); ok {
		return d
	}

	if NeedsCanonicalSlash(req.Path) {
		return Redirect(req.Path+"/", http.StatusMovedPermanently)
	}

	switch req.Path {
	case "", "/":
		return Render(Params{Lang: lang.Detect(req.Path, req.Query), Type: PageHome})
	case lang.HomeURL(lang.English):
		return Render(Params{Lang: lang.English, Type: PageHome})
	}

	return ResolveNotFound(req.Path)
}

// Match parses a friendly path without validating it. Both the slash and
// slash-less forms match.
func Match(p string) (Params, bool) {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return Params{}, false
	}
	parts := strings.Split(trimmed, "/")

	l := lang.Spanish
	if parts[0] == "en" {
		l = lang.English
		parts = parts[1:]
	}
	if len(parts) < 2 {
		return Params{}, false
	}

	seg := l.PathSegments()
	switch parts[0] {
	case seg.Program:
		switch len(parts) {
		case 2:
			return Params{Lang: l, Type: PageProgram, ProgramSlug: normalizeSlug(parts[1])}, true
		case 3:
			return Params{Lang: l, Type: PageVideo, ProgramSlug: normalizeSlug(parts[1]), VideoSlug: normalizeSlug(parts[2])}, true
		}
	case seg.Search:
		if len(parts) == 2 {
			return Params{Lang: l, Type: PageSearch, SearchTerm: strings.TrimSpace(parts[1])}, true
		}
	}
	return Params{}, false
}

// normalizeSlug folds a path segment the way names are slugified, so case,
// accents and punctuation in a hand-typed URL do not matter.
func normalizeSlug(s string) string {
	return utils.Slugify(s)
}

func validate(ctx context.Context, p Params, v Validator) Decision {
	home := lang.HomeURL(p.Lang)

	var ok bool
	var err error
	switch p.Type {
	case PageSearch:
		if p.SearchTerm == "" {
			return Redirect(home, http.StatusMovedPermanently)
		}
		return Render(p)
	case PageProgram:
		if p.ProgramSlug == "" {
			return Redirect(home, http.StatusMovedPermanently)
		}
		ok, err = v.ValidateProgram(ctx, p.Lang, p.ProgramSlug)
	case PageVideo:
		if p.ProgramSlug == "" || p.VideoSlug == "" {
			return Redirect(home, http.StatusMovedPermanently)
		}
		ok, err = v.ValidateVideo(ctx, p.Lang, p.ProgramSlug, p.VideoSlug)
	}

	if err != nil {
		log.Warnf("%s Could not validate %s %q: %v", logcolors.LogRouter, p.Type, p.ProgramSlug, err)
		p.Unavailable = true
		return Render(p)
	}
	if !ok {
		log.Debugf("%s Unknown %s %q/%q, redirecting to %s", logcolors.LogRouter, p.Type, p.ProgramSlug, p.VideoSlug, home)
		return Redirect(home, http.StatusMovedPermanently)
	}
	return Render(p)
}

func resolveLegacy(req Request) (Decision, bool) {
	q := req.Query
	if q == nil {
		return Decision{}, false
	}
	program := strings.TrimSpace(q.Get(LegacyProgram))
	video := strings.TrimSpace(q.Get(LegacyVideo))
	search := strings.TrimSpace(q.Get(LegacySearch))
	if program == "" && video == "" && search == "" {
		return Decision{}, false
	}

	l := lang.Detect(req.Path, q)
	var target string
	switch {
	case search != "":
		target = lang.SearchURL(l, search)
	case program != "" && video != "":
		target = lang.VideoURL(l, utils.Slugify(program), utils.Slugify(video))
	case program != "":
		target = lang.ProgramURL(l, utils.Slugify(program))
	default:
		target = lang.HomeURL(l)
	}
	log.Debugf("%s Legacy URL %s?%s -> %s", logcolors.LogRouter, req.Path, q.Encode(), target)
	return Redirect(target, http.StatusMovedPermanently), true
}

var staticExtensions = map[string]bool{
	".css": true, ".js": true, ".map": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".webp": true, ".ico": true, ".woff": true, ".woff2": true,
	".ttf": true, ".eot": true, ".txt": true, ".xml": true, ".json": true, ".mp4": true,
	".webm": true, ".m3u8": true, ".pdf": true,
}

var internalPrefixes = []string{
	"/admin/", "/api/", "/static/", "/webhook/", "/cache/",
}

var internalPaths = map[string]bool{
	"/admin": true, "/metrics": true, "/health": true, "/stats": true, "/favicon.ico": true, "/robots.txt": true,
}

// ResolveNotFound decides what happens to a path no page matched: static
// files and internal endpoints pass through to a plain 404, English paths go
// to the English home with 302, everything else to the Spanish home with 302.
func ResolveNotFound(p string) Decision {
	if internalPaths[p] || staticExtensions[strings.ToLower(path.Ext(p))] {
		return Passthrough()
	}
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(p, prefix) {
			return Passthrough()
		}
	}

	enHome := lang.HomeURL(lang.English)
	if p == enHome {
		return Render(Params{Lang: lang.English, Type: PageHome})
	}
	if p == "/en" || strings.HasPrefix(p, enHome) {
		return Redirect(enHome, http.StatusFound)
	}
	return Redirect(lang.HomeURL(lang.Spanish), http.StatusFound)
}

// NeedsCanonicalSlash reports whether a page path should be redirected to its
// trailing-slash form. Program and search paths match either form and are
// never redirected.
func NeedsCanonicalSlash(p string) bool {
	if p == "" || strings.HasSuffix(p, "/") {
		return false
	}
	if _, ok := Match(p); ok {
		return false
	}
	return p == strings.TrimSuffix(lang.HomeURL(lang.English), "/")
}
