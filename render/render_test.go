package render

import (
	"adc-catalog-go/catalog"
	"adc-catalog-go/lang"
	"bytes"
	"strings"
	"testing"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}
	return r
}

func assertContains(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(body, f) {
			t.Errorf("Expected output to contain %q", f)
		}
	}
}

func assertNotContains(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if strings.Contains(body, f) {
			t.Errorf("Expected output not to contain %q", f)
		}
	}
}

func TestHomeComingSoonHasNoLink(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	err := r.Home(&buf, HomePage{
		Page: Page{Lang: lang.English, Columns: 3},
		Cards: []catalog.Card{
			{Program: catalog.Program{ID: 1, Name: "My Show", Cover: "a_en.jpg"}, Slug: "my-show", Count: 4},
			{Program: catalog.Program{ID: 2, Name: "Soon", Cover: "b_en.jpg"}, Slug: "soon", ComingSoon: true},
		},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	body := buf.String()
	assertContains(t, body, `href="/en/program/my-show/"`, "Coming soon", "repeat(3,")
	assertNotContains(t, body, `href="/en/program/soon/"`)
}

func TestHomeUnavailable(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	if err := r.Home(&buf, HomePage{Page: Page{Lang: lang.Spanish, Unavailable: true}}); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), lang.T(lang.Spanish, "unavailable"))

	buf.Reset()
	if err := r.Home(&buf, HomePage{Page: Page{NotConfigured: true}}); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), lang.T(lang.Spanish, "not_configured"), `lang="es"`)
}

func TestProgramSeasons(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer

	materials := []catalog.Material{
		{ID: 1, Title: "Noaj", Season: 2},
		{ID: 2, Title: "La Creación", Season: 1},
	}
	err := r.Program(&buf, ProgramPage{
		Page:        Page{Lang: lang.Spanish},
		Program:     catalog.Program{ID: 7, Name: "Bereshit"},
		ProgramSlug: "bereshit",
		Seasons:     catalog.GroupBySeason(materials),
	})
	if err != nil {
		t.Fatal(err)
	}

	body := buf.String()
	first := strings.Index(body, "Primera temporada")
	second := strings.Index(body, "Segunda temporada")
	if first < 0 || second < 0 || first > second {
		t.Errorf("Expected seasons in ascending order")
	}
	assertContains(t, body, `href="/programa/bereshit/la-creacion/"`, "<title>Bereshit</title>")
}

func TestVideoAutoplay(t *testing.T) {
	r := newTestRenderer(t)
	next := catalog.Material{ID: 2, Title: "Lej Leja"}

	var buf bytes.Buffer
	err := r.Video(&buf, VideoPage{
		Page:        Page{Lang: lang.Spanish},
		Program:     catalog.Program{Name: "Bereshit"},
		ProgramSlug: "bereshit",
		Material:    catalog.Material{ID: 1, Title: "Noaj", Video: "https://cdn.example/noaj.mp4"},
		Next:        &next,
		Related:     []catalog.Material{next},
		Autoplay:    true,
		Countdown:   7,
	})
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), `data-countdown="7"`, `href="/programa/bereshit/lej-leja/"`, "Videos relacionados", "adc-cancel")

	buf.Reset()
	err = r.Video(&buf, VideoPage{
		Page:        Page{Lang: lang.English},
		ProgramSlug: "show",
		Material:    catalog.Material{ID: 1, Title: "Last"},
		Autoplay:    true,
		Countdown:   5,
	})
	if err != nil {
		t.Fatal(err)
	}
	assertNotContains(t, buf.String(), "data-countdown", "<script>")
}

func TestSearchGrouping(t *testing.T) {
	r := newTestRenderer(t)

	var hits []catalog.Hit
	for i := 0; i < 7; i++ {
		category := "Torah"
		if i%3 == 0 {
			category = "Jaguim"
		}
		hits = append(hits, catalog.Hit{
			Material:    catalog.Material{ID: i + 1, Title: "Video", Category: category},
			ProgramSlug: "p",
		})
	}

	var buf bytes.Buffer
	err := r.Search(&buf, SearchPage{Page: Page{Lang: lang.Spanish}, Result: catalog.SearchResult{Term: "video", Hits: hits}})
	if err != nil {
		t.Fatal(err)
	}
	body := buf.String()
	torah := strings.Index(body, "<h2>Torah</h2>")
	jaguim := strings.Index(body, "<h2>Jaguim</h2>")
	if torah < 0 || jaguim < 0 || torah > jaguim {
		t.Errorf("Expected larger Torah group before Jaguim")
	}

	buf.Reset()
	err = r.Search(&buf, SearchPage{Page: Page{Lang: lang.English}, Result: catalog.SearchResult{Term: "x", Hits: hits[:3], Fallback: true}})
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), lang.T(lang.English, "search_fallback"))
	assertNotContains(t, buf.String(), "<h2>Torah</h2>")
}

func TestSearchNoResults(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	if err := r.Search(&buf, SearchPage{Result: catalog.SearchResult{Term: "<script>"}}); err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), lang.T(lang.Spanish, "no_results"), "&lt;script&gt;")
}

func TestMessage(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	err := r.Message(&buf, MessagePage{Page: Page{Lang: lang.English}, Title: "Cache", Message: lang.T(lang.English, "cache_cleared")})
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, buf.String(), "The cache was cleared successfully.", `href="/en/"`)
}
