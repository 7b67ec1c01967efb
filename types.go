package main

import (
	"adc-catalog-go/adc"
	"adc-catalog-go/cache"
	"adc-catalog-go/catalog"
	"adc-catalog-go/circuitbreaker"
	"adc-catalog-go/middleware"
	"adc-catalog-go/render"
	"adc-catalog-go/settings"
	"adc-catalog-go/stats"
	"time"
)

// Error codes returned by the JSON endpoints
const (
	codeInvalidLanguage = "invalid_language"
	codeBadRequest      = "bad_request"
	codeInvalidToken    = "invalid_token"
	codeMissingToken    = "missing_token"
	codeStorageError    = "storage_error"
	codeCacheError      = "cache_error"
)

// App holds the services shared by every handler
type App struct {
	settings *settings.Store
	client   *adc.Client
	catalog  *catalog.Service
	layer    *cache.Layer
	renderer *render.Renderer
	csrf     *middleware.CSRF
	stats    *stats.Stats

	cacheBackend string
	adminToken   string
	logLevel     string

	now func() time.Time
}

// SettingsResponse is returned by GET and POST /admin/settings
type SettingsResponse struct {
	Settings    settings.Settings `json:"settings"`
	CSRFToken   string            `json:"csrf_token"`
	TTLSeconds  int               `json:"ttl_seconds"`
	CacheChoice []float64         `json:"cache_hour_choices"`
}

// OrderRequest is the body of POST /admin/order/{lang}
type OrderRequest struct {
	IDs []int `json:"ids"`
}

// OrderResponse reports the stored program order of a language
type OrderResponse struct {
	Lang string `json:"lang"`
	IDs  []int  `json:"ids"`
}

// CacheClearResponse reports a clear-all
type CacheClearResponse struct {
	Success bool   `json:"success"`
	Cleared int    `json:"cleared"`
	Backend string `json:"backend"`
}

// ConnectionResult is the outcome of probing the video API for one language
type ConnectionResult struct {
	Lang       string `json:"lang"`
	Section    int    `json:"section"`
	OK         bool   `json:"ok"`
	Configured bool   `json:"configured"`
	Programs   int    `json:"programs"`
	LatencyMs  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}

// CacheStatus describes the cache for the health report
type CacheStatus struct {
	Backend    string  `json:"backend"`
	Enabled    bool    `json:"enabled"`
	TTLSeconds int     `json:"ttl_seconds"`
	HitRate    float64 `json:"hit_rate_percent"`
}

// HealthReport is returned by GET /admin/health
type HealthReport struct {
	Status         string                  `json:"status"`
	Languages      []ConnectionResult      `json:"languages"`
	TotalPrograms  int                     `json:"total_programs"`
	Cache          CacheStatus             `json:"cache"`
	CircuitBreaker circuitbreaker.Snapshot `json:"circuit_breaker"`
	Stats          map[string]interface{}  `json:"stats"`
	CheckedAt      time.Time               `json:"checked_at"`
}
