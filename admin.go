package main

import (
	"adc-catalog-go/lang"
	"adc-catalog-go/logcolors"
	"adc-catalog-go/notifier"
	"adc-catalog-go/settings"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// maxAdminBody bounds admin request bodies.
const maxAdminBody = 1 << 20

func (a *App) settingsResponse(st settings.Settings) SettingsResponse {
	return SettingsResponse{
		Settings:    st,
		CSRFToken:   a.csrf.Token(),
		TTLSeconds:  int(st.CachePolicy().TTL().Seconds()),
		CacheChoice: settings.CacheHourChoices,
	}
}

func (a *App) getSettings(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).NoStore().JSON(a.settingsResponse(a.settings.Get()))
}

// updateSettings merges the posted fields into the current settings, saves
// them and applies the result to the running services.
func (a *App) updateSettings(w http.ResponseWriter, r *http.Request) {
	current := a.settings.Get()
	next := current
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody)).Decode(&next); err != nil {
		Respond(w, r).NoStore().Error(http.StatusBadRequest, "Invalid settings body: "+err.Error(), codeBadRequest)
		return
	}

	saved, err := a.settings.Save(next)
	if err != nil {
		log.Errorf("%s Failed to save settings: %v", logcolors.LogSettings, err)
		Respond(w, r).NoStore().Error(http.StatusInternalServerError, "Failed to save settings", codeStorageError)
		return
	}

	a.applySettings(r.Context(), current, saved)
	log.Infof("%s Settings saved (cache: %v, %vh, debug: %v)", logcolors.LogSettings, saved.CacheEnabled, saved.CacheHours, saved.Debug)
	notifier.PublishSettingsUpdated(saved.CacheEnabled, saved.CacheHours)

	Respond(w, r).NoStore().JSON(a.settingsResponse(saved))
}

// applySettings pushes saved settings into the cache policy, the API client
// and the log level. A changed API endpoint also clears the cache.
func (a *App) applySettings(ctx context.Context, prev, saved settings.Settings) {
	a.layer.SetPolicy(saved.CachePolicy())
	a.client.Configure(saved.APIURL, saved.APIToken)
	applyLogLevel(a.logLevel, saved.Debug)

	if prev.APIURL != saved.APIURL || prev.APIToken != saved.APIToken {
		cleared, err := a.layer.ClearAll(ctx)
		if err != nil {
			log.Warnf("%s Cache clear after API change incomplete: %v", logcolors.LogSettings, err)
		}
		log.Infof("%s API endpoint changed, %d cached keys removed", logcolors.LogSettings, cleared)
		notifier.PublishCacheCleared("settings", cleared)
	}
}

func languageVar(r *http.Request) (lang.Language, error) {
	return lang.Parse(mux.Vars(r)["lang"])
}

func (a *App) getOrder(w http.ResponseWriter, r *http.Request) {
	l, err := languageVar(r)
	if err != nil {
		Respond(w, r).NoStore().Error(http.StatusBadRequest, err.Error(), codeInvalidLanguage)
		return
	}

	ids, err := a.settings.Order(l)
	if err != nil {
		log.Errorf("%s Failed to read %s order: %v", logcolors.LogAdmin, l, err)
		Respond(w, r).NoStore().Error(http.StatusInternalServerError, "Failed to read program order", codeStorageError)
		return
	}
	if ids == nil {
		ids = []int{}
	}

	Respond(w, r).NoStore().JSON(OrderResponse{Lang: string(l), IDs: ids})
}

func (a *App) setOrder(w http.ResponseWriter, r *http.Request) {
	l, err := languageVar(r)
	if err != nil {
		Respond(w, r).NoStore().Error(http.StatusBadRequest, err.Error(), codeInvalidLanguage)
		return
	}

	var req OrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody)).Decode(&req); err != nil {
		Respond(w, r).NoStore().Error(http.StatusBadRequest, "Invalid order body: "+err.Error(), codeBadRequest)
		return
	}

	ids, err := a.settings.SetOrder(l, req.IDs)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidLanguage) {
			Respond(w, r).NoStore().Error(http.StatusBadRequest, err.Error(), codeInvalidLanguage)
			return
		}
		log.Errorf("%s Failed to save %s order: %v", logcolors.LogAdmin, l, err)
		Respond(w, r).NoStore().Error(http.StatusInternalServerError, "Failed to save program order", codeStorageError)
		return
	}
	if ids == nil {
		ids = []int{}
	}

	log.Infof("%s Program order for %s saved (%d ids)", logcolors.LogAdmin, l, len(ids))
	Respond(w, r).NoStore().JSON(OrderResponse{Lang: string(l), IDs: ids})
}

func (a *App) adminClearCache(w http.ResponseWriter, r *http.Request) {
	cleared, err := a.layer.ClearAll(r.Context())
	if err != nil {
		log.Errorf("%s Cache clear incomplete: %v", logcolors.LogAdmin, err)
		Respond(w, r).NoStore().SetCacheBackend(a.cacheBackend).
			Error(http.StatusInternalServerError, "Cache clear incomplete: "+err.Error(), codeCacheError)
		return
	}

	log.Infof("%s Cache cleared, %d keys removed", logcolors.LogAdmin, cleared)
	notifier.PublishCacheCleared("admin", cleared)
	Respond(w, r).NoStore().SetCacheBackend(a.cacheBackend).JSON(CacheClearResponse{
		Success: true,
		Cleared: cleared,
		Backend: a.cacheBackend,
	})
}

// probe fetches the program list of l straight from the API, bypassing the cache.
func (a *App) probe(ctx context.Context, l lang.Language) ConnectionResult {
	result := ConnectionResult{
		Lang:       string(l),
		Section:    a.client.Section(l),
		Configured: a.client.Configured(),
	}
	if !result.Configured {
		result.Error = "API URL is not configured"
		return result
	}

	start := a.now()
	programs, err := a.client.Programs(ctx, l)
	result.LatencyMs = a.now().Sub(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OK = true
	result.Programs = len(programs)
	return result
}

func (a *App) testConnection(w http.ResponseWriter, r *http.Request) {
	l, err := languageVar(r)
	if err != nil {
		Respond(w, r).NoStore().Error(http.StatusBadRequest, err.Error(), codeInvalidLanguage)
		return
	}

	result := a.probe(r.Context(), l)
	if result.OK {
		log.Infof("%s Connection test for %s: %d programs in %dms", logcolors.LogAdmin, l, result.Programs, result.LatencyMs)
	} else {
		log.Warnf("%s Connection test for %s failed: %s", logcolors.LogAdmin, l, result.Error)
	}

	Respond(w, r).NoStore().JSON(result)
}

func (a *App) adminHealth(w http.ResponseWriter, r *http.Request) {
	st := a.settings.Get()
	policy := st.CachePolicy()

	report := HealthReport{
		Status: "ok",
		Cache: CacheStatus{
			Backend:    a.cacheBackend,
			Enabled:    policy.Enabled,
			TTLSeconds: int(policy.TTL().Seconds()),
			HitRate:    a.stats.CacheHitRate(),
		},
		Stats:     a.stats.Snapshot(),
		CheckedAt: a.now().UTC(),
	}

	for _, l := range lang.All {
		result := a.probe(r.Context(), l)
		if !result.OK {
			report.Status = "degraded"
		}
		report.Languages = append(report.Languages, result)
	}
	if a.client.Configured() {
		all, err := a.client.AllPrograms(r.Context())
		if err != nil {
			log.Warnf("%s Full program listing failed: %v", logcolors.LogAdmin, err)
			report.Status = "degraded"
		}
		report.TotalPrograms = len(all)
	} else {
		report.Status = "unconfigured"
	}
	if cb := a.client.Breaker(); cb != nil {
		report.CircuitBreaker = cb.Snapshot()
	}

	Respond(w, r).NoStore().SetCacheBackend(a.cacheBackend).JSON(report)
}

func (a *App) getCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	cb := a.client.Breaker()
	if cb == nil {
		Respond(w, r).NoStore().Error(http.StatusNotFound, "No circuit breaker configured", codeBadRequest)
		return
	}
	Respond(w, r).NoStore().JSON(cb.Snapshot())
}

func (a *App) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	cb := a.client.Breaker()
	if cb == nil {
		Respond(w, r).NoStore().Error(http.StatusNotFound, "No circuit breaker configured", codeBadRequest)
		return
	}
	cb.Reset()
	log.Infof("%s Circuit breaker reset by admin", logcolors.LogAdmin)
	Respond(w, r).NoStore().JSON(cb.Snapshot())
}

// rotateCSRF issues a fresh CSRF token, invalidating the previous one.
func (a *App) rotateCSRF(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).NoStore().JSON(map[string]string{"csrf_token": a.csrf.Rotate()})
}
