// Package render turns catalog data into HTML pages.
package render

import (
	"adc-catalog-go/catalog"
	"adc-catalog-go/lang"
	"adc-catalog-go/utils"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home", "program", "video", "search", "message"}

// Page carries the fields shared by every page.
type Page struct {
	Lang          lang.Language
	Columns       int
	Canonical     string
	NotConfigured bool
	Unavailable   bool
}

type HomePage struct {
	Page
	Cards []catalog.Card
}

type ProgramPage struct {
	Page
	Program     catalog.Program
	ProgramSlug string
	Seasons     []catalog.Season
}

type VideoPage struct {
	Page
	Program     catalog.Program
	ProgramSlug string
	Material    catalog.Material
	Next        *catalog.Material
	Related     []catalog.Material
	Autoplay    bool
	Countdown   int
}

type SearchPage struct {
	Page
	Result catalog.SearchResult
	Groups []catalog.Group
}

type MessagePage struct {
	Page
	Title   string
	Message string
}

type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"t":           lang.T,
		"seasonLabel": lang.SeasonLabel,
		"homeURL":     lang.HomeURL,
		"programURL":  lang.ProgramURL,
		"videoURL":    lang.VideoURL,
		"searchURL":   lang.SearchURL,
		"slugify":     utils.Slugify,
		"hitData": func(l lang.Language, h catalog.Hit) map[string]interface{} {
			return map[string]interface{}{"Lang": l, "Hit": h}
		},
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// execute renders into a buffer first so a template error never leaves a
// half-written page.
func (r *Renderer) execute(w io.Writer, page string, data interface{}) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) Home(w io.Writer, p HomePage) error {
	p.Page = p.Page.withDefaults()
	return r.execute(w, "home", p)
}

func (r *Renderer) Program(w io.Writer, p ProgramPage) error {
	p.Page = p.Page.withDefaults()
	return r.execute(w, "program", p)
}

func (r *Renderer) Video(w io.Writer, p VideoPage) error {
	p.Page = p.Page.withDefaults()
	return r.execute(w, "video", p)
}

// Search renders results, grouping them by category when there are many.
func (r *Renderer) Search(w io.Writer, p SearchPage) error {
	p.Page = p.Page.withDefaults()
	if p.Groups == nil && catalog.ShouldGroup(len(p.Result.Hits)) {
		p.Groups = catalog.GroupByCategory(p.Result.Hits)
	}
	return r.execute(w, "search", p)
}

func (r *Renderer) Message(w io.Writer, p MessagePage) error {
	p.Page = p.Page.withDefaults()
	return r.execute(w, "message", p)
}

func (p Page) withDefaults() Page {
	if !p.Lang.Valid() {
		p.Lang = lang.Default
	}
	if p.Columns <= 0 {
		p.Columns = 4
	}
	return p
}
