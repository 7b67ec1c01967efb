package main

import (
	"adc-catalog-go/config"
	"adc-catalog-go/logcolors"
	"adc-catalog-go/middleware"
	"adc-catalog-go/notifier"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// buildHandler wraps the router with the middleware chain:
// logging, CORS, rate limiting, request cache scope. Idle rate limit buckets
// are evicted until ctx is done.
func buildHandler(ctx context.Context, app *App, cfg config.Config) http.Handler {
	router := mux.NewRouter()
	app.setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodHead},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.CSRFHeader},
		AllowCredentials: true,
	})

	limiter := middleware.NewIPRateLimiter(
		rate.Limit(cfg.Configuration.RateLimitPerSecond),
		cfg.Configuration.RateLimitBurstLimit,
	)
	limiter.StartEviction(ctx, time.Minute, middleware.LimiterIdleTimeout)

	handler := middleware.ScopeMiddleware(router)
	handler = middleware.RateLimitMiddleware(limiter, cfg.Configuration.AdminToken)(handler)
	handler = c.Handler(handler)
	return middleware.LoggingMiddleware(handler)
}

func main() {
	applyLogLevel(conf.Configuration.LogLevel, false)

	store, backend, err := openCacheStore(conf)
	if err != nil {
		notifier.PublishServerStartupFailed("cache", err)
		log.Fatalf("%s Failed to open %s cache: %v", logcolors.LogCacheInit, conf.Configuration.CacheBackend, err)
	}
	defer store.Close()

	st, err := openSettings(conf)
	if err != nil {
		notifier.PublishServerStartupFailed("settings", err)
		log.Fatalf("%s Failed to open settings: %v", logcolors.LogSettings, err)
	}
	defer st.Close()
	applyLogLevel(conf.Configuration.LogLevel, st.Get().Debug)

	startAlerts(conf)

	app, err := newApp(conf, store, backend, st)
	if err != nil {
		notifier.PublishServerStartupFailed("templates", err)
		log.Fatalf("%s Failed to initialize: %v", logcolors.LogServer, err)
	}
	if !app.client.Configured() {
		log.Warnf("%s ADC API URL is not set, pages will show the not configured notice", logcolors.LogConfig)
	}
	if conf.Configuration.AdminToken == "" {
		log.Warnf("%s ADMIN_TOKEN is not set, admin endpoints are disabled", logcolors.LogConfig)
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	srv := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           buildHandler(runCtx, app, conf),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(conf.Configuration.APITimeoutSeconds+30) * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("%s Listening on port %s (cache: %s)", logcolors.LogServer, conf.Configuration.Port, backend)
		notifier.PublishServerStarted(conf.Configuration.Port, backend)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			notifier.PublishServerStartupFailed("http", err)
			log.Errorf("%s Server failed: %v", logcolors.LogServer, err)
		}
	case sig := <-stop:
		log.Infof("%s Received %s, shutting down", logcolors.LogServer, sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("%s Graceful shutdown failed: %v", logcolors.LogServer, err)
		}
	}
}
