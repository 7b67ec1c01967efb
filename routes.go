package main

import (
	"adc-catalog-go/middleware"
	"adc-catalog-go/stats"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes of the catalog
func (a *App) setupRoutes(router *mux.Router) {
	// Public diagnostics
	router.HandleFunc("/health", a.getHealth).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/metrics", metricsHandler(a.stats)).Methods(http.MethodGet)

	// Cache refresh: confirmation page and token-authenticated webhook
	router.HandleFunc("/cache/clear", a.clearCachePage).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/webhook/refresh", a.webhookRefresh).Methods(http.MethodGet, http.MethodPost)

	// Admin JSON endpoints
	adminAuth := middleware.AdminAuth(a.adminToken)
	router.Handle("/stats", adminAuth(http.HandlerFunc(a.getStats))).Methods(http.MethodGet)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuth, a.csrf.Protect)
	admin.HandleFunc("/settings", a.getSettings).Methods(http.MethodGet)
	admin.HandleFunc("/settings", a.updateSettings).Methods(http.MethodPost)
	admin.HandleFunc("/csrf/rotate", a.rotateCSRF).Methods(http.MethodPost)
	admin.HandleFunc("/order/{lang}", a.getOrder).Methods(http.MethodGet)
	admin.HandleFunc("/order/{lang}", a.setOrder).Methods(http.MethodPost)
	admin.HandleFunc("/cache/clear", a.adminClearCache).Methods(http.MethodPost)
	admin.HandleFunc("/test-connection/{lang}", a.testConnection).Methods(http.MethodGet)
	admin.HandleFunc("/health", a.adminHealth).Methods(http.MethodGet)
	admin.HandleFunc("/circuit-breaker", a.getCircuitBreaker).Methods(http.MethodGet)
	admin.HandleFunc("/circuit-breaker/reset", a.resetCircuitBreaker).Methods(http.MethodPost)

	// Catalog pages, legacy redirects and the root webhook
	router.PathPrefix("/").HandlerFunc(a.servePage)
}

// metricsHandler serves the request counters alongside the Go runtime metrics.
func metricsHandler(s *stats.Stats) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		stats.NewCollector(s),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
