package main

import (
	"adc-catalog-go/adc"
	"adc-catalog-go/catalog"
	"adc-catalog-go/circuitbreaker"
	"adc-catalog-go/lang"
	"adc-catalog-go/logcolors"
	"adc-catalog-go/middleware"
	"adc-catalog-go/notifier"
	"adc-catalog-go/render"
	"adc-catalog-go/router"
	"bytes"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// webhookAction is the query action of the refresh webhook on the site root.
const webhookAction = "adc_webhook_refresh"

// servePage is the catch-all handler for the public catalog.
func (a *App) servePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" && r.URL.Query().Get("action") == webhookAction {
		a.webhookRefresh(w, r)
		return
	}

	d := router.Resolve(r.Context(), router.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	}, a.catalog)

	switch d.Kind {
	case router.KindRedirect:
		log.Debugf("%s %s -> %s (%d)", logcolors.LogRouter, r.URL.RequestURI(), d.URL, d.Status)
		http.Redirect(w, r, d.URL, d.Status)
	case router.KindPassthrough:
		http.NotFound(w, r)
	default:
		a.renderPage(w, r, d.Params)
	}
}

func (a *App) renderPage(w http.ResponseWriter, r *http.Request, p router.Params) {
	st := a.settings.Get()
	page := render.Page{Lang: p.Lang, Columns: st.Columns}

	if !a.catalog.Configured() {
		page.NotConfigured = true
		a.writePage(w, func(buf *bytes.Buffer) error {
			return a.renderer.Home(buf, render.HomePage{Page: page})
		})
		return
	}
	if p.Unavailable {
		a.renderUnavailable(w, page)
		return
	}

	ctx := r.Context()
	switch p.Type {
	case router.PageProgram:
		program, ok, err := a.catalog.ProgramBySlug(ctx, p.Lang, p.ProgramSlug)
		if err != nil {
			a.logUnavailable(p, err)
			a.renderUnavailable(w, page)
			return
		}
		if !ok {
			http.Redirect(w, r, lang.HomeURL(p.Lang), http.StatusMovedPermanently)
			return
		}
		materials, err := a.catalog.Materials(ctx, p.Lang, program.ID)
		if err != nil {
			a.logUnavailable(p, err)
			a.renderUnavailable(w, page)
			return
		}
		page.Canonical = lang.ProgramURL(p.Lang, p.ProgramSlug)
		a.writePage(w, func(buf *bytes.Buffer) error {
			return a.renderer.Program(buf, render.ProgramPage{
				Page:        page,
				Program:     program,
				ProgramSlug: p.ProgramSlug,
				Seasons:     catalog.GroupBySeason(materials),
			})
		})

	case router.PageVideo:
		match, ok, err := a.catalog.VideoBySlug(ctx, p.Lang, p.ProgramSlug, p.VideoSlug)
		if err != nil {
			a.logUnavailable(p, err)
			a.renderUnavailable(w, page)
			return
		}
		if !ok {
			http.Redirect(w, r, lang.HomeURL(p.Lang), http.StatusMovedPermanently)
			return
		}
		vp := render.VideoPage{
			Page:        page,
			Program:     match.Program,
			ProgramSlug: p.ProgramSlug,
			Material:    match.Material,
			Related:     catalog.RelatedMaterials(match.Materials, match.Index, catalog.DefaultRelatedLimit),
			Autoplay:    st.Autoplay,
			Countdown:   st.AutoplayCountdown,
		}
		if next, ok := catalog.NextMaterial(match.Materials, match.Index); ok {
			vp.Next = &next
		}
		vp.Canonical = lang.VideoURL(p.Lang, p.ProgramSlug, p.VideoSlug)
		a.writePage(w, func(buf *bytes.Buffer) error {
			return a.renderer.Video(buf, vp)
		})

	case router.PageSearch:
		result, err := a.catalog.Search(ctx, p.Lang, p.SearchTerm)
		if err != nil {
			a.logUnavailable(p, err)
			a.renderUnavailable(w, page)
			return
		}
		page.Canonical = lang.SearchURL(p.Lang, p.SearchTerm)
		a.writePage(w, func(buf *bytes.Buffer) error {
			return a.renderer.Search(buf, render.SearchPage{Page: page, Result: result})
		})

	default:
		cards, err := a.catalog.Cards(ctx, p.Lang)
		if err != nil {
			a.logUnavailable(p, err)
			a.renderUnavailable(w, page)
			return
		}
		page.Canonical = lang.HomeURL(p.Lang)
		a.writePage(w, func(buf *bytes.Buffer) error {
			return a.renderer.Home(buf, render.HomePage{Page: page, Cards: cards})
		})
	}
}

func (a *App) logUnavailable(p router.Params, err error) {
	if errors.Is(err, adc.ErrUnavailable) {
		log.Warnf("%s %s page in %s unavailable: %v", logcolors.LogRender, p.Type, p.Lang, err)
		return
	}
	log.Errorf("%s %s page in %s failed: %v", logcolors.LogRender, p.Type, p.Lang, err)
}

func (a *App) renderUnavailable(w http.ResponseWriter, page render.Page) {
	page.Unavailable = true
	a.writePage(w, func(buf *bytes.Buffer) error {
		return a.renderer.Home(buf, render.HomePage{Page: page})
	})
}

// writePage renders into a buffer so a template error can still become a 500.
func (a *App) writePage(w http.ResponseWriter, fn func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		log.Errorf("%s %v", logcolors.LogRender, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// webhookRefresh clears every cached entry when the token matches the
// persisted webhook token.
func (a *App) webhookRefresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("X-Webhook-Token")
	}
	if token == "" {
		log.Warnf("%s Missing token from %s", logcolors.LogWebhook, middleware.ClientIP(r))
		Respond(w, r).NoStore().Error(http.StatusUnauthorized, "Missing webhook token", codeMissingToken)
		return
	}
	if !middleware.TokenEqual(token, a.settings.Get().WebhookToken) {
		log.Warnf("%s Invalid token from %s", logcolors.LogWebhook, middleware.ClientIP(r))
		Respond(w, r).NoStore().Error(http.StatusForbidden, "Invalid webhook token", codeInvalidToken)
		return
	}

	cleared, err := a.layer.ClearAll(r.Context())
	if err != nil {
		log.Errorf("%s Cache clear incomplete: %v", logcolors.LogWebhook, err)
	}
	log.Infof("%s Cache cleared, %d keys removed", logcolors.LogWebhook, cleared)
	notifier.PublishCacheCleared("webhook", cleared)

	Respond(w, r).NoStore().SetCacheBackend(a.cacheBackend).JSON(CacheClearResponse{
		Success: err == nil,
		Cleared: cleared,
		Backend: a.cacheBackend,
	})
}

// clearCachePage clears every cached entry and renders a confirmation page.
func (a *App) clearCachePage(w http.ResponseWriter, r *http.Request) {
	l := lang.Detect(r.URL.Path, r.URL.Query())

	cleared, err := a.layer.ClearAll(r.Context())
	if err != nil {
		log.Errorf("%s Cache clear incomplete: %v", logcolors.LogCacheClear, err)
	}
	log.Infof("%s Cache cleared from %s, %d keys removed", logcolors.LogCacheClear, middleware.ClientIP(r), cleared)
	notifier.PublishCacheCleared("page", cleared)

	w.Header().Set("Cache-Control", "no-store")
	a.writePage(w, func(buf *bytes.Buffer) error {
		return a.renderer.Message(buf, render.MessagePage{
			Page:    render.Page{Lang: l, Columns: a.settings.Get().Columns},
			Title:   lang.T(l, "cache_title"),
			Message: lang.T(l, "cache_cleared"),
		})
	})
}

// getHealth is the public liveness probe.
func (a *App) getHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":     "ok",
		"configured": a.catalog.Configured(),
		"cache":      a.cacheBackend,
	}

	if cb := a.client.Breaker(); cb != nil {
		health["circuit_breaker"] = cb.State().String()
		if cb.State() == circuitbreaker.StateOpen {
			health["status"] = "degraded"
			health["circuit_breaker_retry_in"] = cb.TimeUntilRetry().String()
		}
	}
	if !a.catalog.Configured() {
		health["status"] = "unconfigured"
	}

	Respond(w, r).NoStore().JSON(health)
}

func (a *App) getStats(w http.ResponseWriter, r *http.Request) {
	snapshot := a.stats.Snapshot()
	snapshot["cache_backend"] = a.cacheBackend
	if cb := a.client.Breaker(); cb != nil {
		snapshot["circuit_breaker"] = cb.Snapshot()
	}

	Respond(w, r).NoStore().SetCacheBackend(a.cacheBackend).JSON(snapshot)
}
