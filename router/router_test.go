package router

import (
	"adc-catalog-go/lang"
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeValidator knows a fixed set of program and video slugs per language
type fakeValidator struct {
	programs map[lang.Language]map[string][]string
	err      error
}

func (f fakeValidator) ValidateProgram(_ context.Context, l lang.Language, program string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.programs[l][program]
	return ok, nil
}

func (f fakeValidator) ValidateVideo(_ context.Context, l lang.Language, program, video string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	videos, ok := f.programs[l][program]
	if !ok {
		return false, nil
	}
	for _, v := range videos {
		if v == video {
			return true, nil
		}
	}
	return false, nil
}

var validator = fakeValidator{programs: map[lang.Language]map[string][]string{
	lang.Spanish: {"bereshit-espanol": {"la-creacion", "noaj"}},
	lang.English: {"my-show": {"pilot"}},
}}

func resolve(t *testing.T, raw string) Decision {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return Resolve(context.Background(), Request{Method: http.MethodGet, Path: u.Path, Query: u.Query()}, validator)
}

func TestResolveFriendlyURLs(t *testing.T) {
	tests := []struct {
		path     string
		expected Params
	}{
		{"/programa/bereshit-espanol/", Params{Lang: lang.Spanish, Type: PageProgram, ProgramSlug: "bereshit-espanol"}},
		{"/programa/bereshit-espanol", Params{Lang: lang.Spanish, Type: PageProgram, ProgramSlug: "bereshit-espanol"}},
		{"/programa/bereshit-espanol/noaj/", Params{Lang: lang.Spanish, Type: PageVideo, ProgramSlug: "bereshit-espanol", VideoSlug: "noaj"}},
		{"/en/program/my-show/", Params{Lang: lang.English, Type: PageProgram, ProgramSlug: "my-show"}},
		{"/en/program/my-show/pilot/", Params{Lang: lang.English, Type: PageVideo, ProgramSlug: "my-show", VideoSlug: "pilot"}},
		{"/buscar/shabat/", Params{Lang: lang.Spanish, Type: PageSearch, SearchTerm: "shabat"}},
		{"/en/search/hanukkah", Params{Lang: lang.English, Type: PageSearch, SearchTerm: "hanukkah"}},
		{"/", Params{Lang: lang.Spanish, Type: PageHome}},
		{"/en/", Params{Lang: lang.English, Type: PageHome}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := resolve(t, tt.path)
			require.Equal(t, KindRender, d.Kind, "decision %+v", d)
			assert.Equal(t, tt.expected, d.Params)
		})
	}
}

func TestResolveValidationFailureRedirectsHome(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/programa/unknown-slug/", "/"},
		{"/programa/bereshit-espanol/unknown/", "/"},
		{"/en/program/my-show/my-video/", "/en/"},
		{"/en/program/nope/", "/en/"},
		{"/buscar/%20/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := resolve(t, tt.path)
			assert.Equal(t, Redirect(tt.expected, http.StatusMovedPermanently), d)
		})
	}
}

func TestResolveValidatorErrorRendersUnavailable(t *testing.T) {
	d := Resolve(context.Background(),
		Request{Method: http.MethodGet, Path: "/programa/bereshit-espanol/"},
		fakeValidator{err: errors.New("api down")})

	require.Equal(t, KindRender, d.Kind)
	assert.True(t, d.Params.Unavailable)
	assert.Equal(t, PageProgram, d.Params.Type)
}

func TestResolveLegacyQueryStrings(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"/?categoria=x&video=y&lang=en", "/en/program/x/y/"},
		{"/?categoria=x&video=y", "/programa/x/y/"},
		{"/?categoria=Bereshit%20-%20Espa%C3%B1ol", "/programa/bereshit-espanol/"},
		{"/en/?categoria=my%20show", "/en/program/my-show/"},
		{"/?adc_search=shabat", "/buscar/shabat/"},
		{"/?adc_search=hanukkah&lang=en", "/en/search/hanukkah/"},
		{"/?video=orphan", "/"},
		{"/some/page/?categoria=x", "/programa/x/"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, Redirect(tt.expected, http.StatusMovedPermanently), resolve(t, tt.raw))
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	tests := []struct {
		path     string
		expected Decision
	}{
		{"/en/whatever/", Redirect("/en/", http.StatusFound)},
		{"/en/program/", Redirect("/en/", http.StatusFound)},
		{"/random", Redirect("/", http.StatusFound)},
		{"/programa/", Redirect("/", http.StatusFound)},
		{"/styles/site.css", Passthrough()},
		{"/images/logo.PNG", Passthrough()},
		{"/favicon.ico", Passthrough()},
		{"/admin/settings", Passthrough()},
		{"/api/anything", Passthrough()},
		{"/metrics", Passthrough()},
		{"/health", Passthrough()},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolve(t, tt.path))
		})
	}
}

func TestResolveEnglishHomeWithoutSlash(t *testing.T) {
	assert.Equal(t, Redirect("/en/", http.StatusMovedPermanently), resolve(t, "/en"))
}

func TestResolveNonGetPassesThrough(t *testing.T) {
	d := Resolve(context.Background(), Request{Method: http.MethodPost, Path: "/programa/x/"}, validator)
	assert.Equal(t, KindPassthrough, d.Kind)
}

func TestNeedsCanonicalSlash(t *testing.T) {
	assert.True(t, NeedsCanonicalSlash("/en"))
	assert.False(t, NeedsCanonicalSlash("/en/"))
	assert.False(t, NeedsCanonicalSlash("/programa/x"))
	assert.False(t, NeedsCanonicalSlash("/en/search/term"))
	assert.False(t, NeedsCanonicalSlash("/"))
	assert.False(t, NeedsCanonicalSlash(""))
}

func TestMatchFoldsSlugs(t *testing.T) {
	tests := []struct {
		path    string
		program string
		video   string
	}{
		{"/programa/Bereshit-Espanol/NOAJ", "bereshit-espanol", "noaj"},
		{"/programa/bereshit-español/la-creación/", "bereshit-espanol", "la-creacion"},
		{"/programa/bereshit_espanol/la_creacion/", "bereshit-espanol", "la-creacion"},
		{"/programa/bereshit--espanol/la--creacion/", "bereshit-espanol", "la-creacion"},
		{"/programa/ Bereshit - Español /La Creación!/", "bereshit-espanol", "la-creacion"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, ok := Match(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.program, p.ProgramSlug)
			assert.Equal(t, tt.video, p.VideoSlug)
		})
	}

	_, ok := Match("/programa/a/b/c/")
	assert.False(t, ok)
}

func TestResolveAccentedAndPunctuatedSlugs(t *testing.T) {
	for _, path := range []string{
		"/programa/bereshit-espanol/la-creación/",
		"/programa/bereshit-espanol/la_creacion/",
		"/programa/bereshit-espanol/la--creacion/",
		"/programa/Bereshit-Español/",
	} {
		t.Run(path, func(t *testing.T) {
			d := resolve(t, path)
			require.Equal(t, KindRender, d.Kind, "decision %+v", d)
			assert.Equal(t, "bereshit-espanol", d.Params.ProgramSlug)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "render", KindRender.String())
	assert.Equal(t, "redirect", KindRedirect.String())
	assert.Equal(t, "passthrough", KindPassthrough.String())
}
