package main

import (
	"adc-catalog-go/adc"
	"adc-catalog-go/cache"
	"adc-catalog-go/catalog"
	"adc-catalog-go/circuitbreaker"
	"adc-catalog-go/config"
	"adc-catalog-go/lang"
	"adc-catalog-go/logcolors"
	"adc-catalog-go/middleware"
	"adc-catalog-go/notifier"
	"adc-catalog-go/render"
	"adc-catalog-go/settings"
	"adc-catalog-go/stats"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

func getNotifierTypeName(n notifier.Notifier) string {
	switch n.(type) {
	case *notifier.TelegramNotifier:
		return "telegram"
	case *notifier.NtfyNotifier:
		return "ntfy"
	default:
		return "unknown"
	}
}

// startAlerts subscribes the configured notifiers to the event bus.
func startAlerts(cfg config.Config) {
	c := cfg.Configuration
	notifiers := notifier.FromConfig(c.NtfyTopic, c.NtfyServer, c.TelegramBotToken, c.TelegramChatID)
	if len(notifiers) == 0 {
		log.Infof("%s No notifiers configured, alerts disabled", logcolors.LogNotifier)
		return
	}
	for _, n := range notifiers {
		log.Infof("%s %s notifier enabled", logcolors.LogNotifier, getNotifierTypeName(n))
	}

	notifier.NewAlertHandler(notifier.AlertConfig{Notifiers: notifiers}).Start(notifier.GetEventBus())
}

// applyLogLevel sets the configured level, raised to debug when the debug setting is on.
func applyLogLevel(configured string, debug bool) {
	level, err := log.ParseLevel(configured)
	if err != nil {
		level = log.InfoLevel
	}
	if debug && level < log.DebugLevel {
		level = log.DebugLevel
	}
	if log.GetLevel() != level {
		log.SetLevel(level)
		log.Infof("%s Log level set to %s", logcolors.LogConfig, level)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// openCacheStore opens the durable store selected by CACHE_BACKEND.
func openCacheStore(cfg config.Config) (cache.Store, string, error) {
	c := cfg.Configuration
	backend := strings.ToLower(strings.TrimSpace(c.CacheBackend))

	switch backend {
	case "redis":
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:      c.RedisAddr,
			Password:  c.RedisPassword,
			DB:        c.RedisDB,
			KeyPrefix: c.RedisKeyPrefix,
		})
		return store, backend, err
	case "memory":
		log.Infof("%s Using in-memory cache", logcolors.LogCacheInit)
		return cache.NewMemoryStore(10 * time.Minute), backend, nil
	case "bolt", "":
		if err := ensureDir(c.CacheDBPath); err != nil {
			return nil, "bolt", fmt.Errorf("failed to create cache directory: %w", err)
		}
		store, err := cache.NewBoltStore(c.CacheDBPath, cfg.FeatureFlags.CacheCompression)
		if err != nil {
			return nil, "bolt", err
		}
		if c.CacheSweepIntervalSeconds > 0 {
			store.StartSweeper(time.Duration(c.CacheSweepIntervalSeconds) * time.Second)
		}
		return store, "bolt", nil
	default:
		return nil, backend, fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
}

// seedSettings builds the first-run settings from the environment.
func seedSettings(cfg config.Config) settings.Settings {
	c := cfg.Configuration
	seed := settings.Defaults()
	seed.APIURL = c.APIURL
	seed.APIToken = c.APIToken
	seed.CacheEnabled = c.CacheEnabled
	seed.CacheHours = c.CacheDurationHours
	seed.Debug = strings.EqualFold(c.LogLevel, "debug")
	return seed
}

// openSettings opens the settings store, seeding it from the environment on first run.
func openSettings(cfg config.Config) (*settings.Store, error) {
	path := cfg.Configuration.SettingsDBPath
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return settings.Open(path, seedSettings(cfg))
}

func newBreaker(cfg config.Config) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		Name:      "ADC",
		Threshold: cfg.Configuration.CircuitBreakerThreshold,
		Cooldown:  time.Duration(cfg.Configuration.CircuitBreakerCooldownSecs) * time.Second,
	})
}

// newApp wires the catalog services over an opened cache store and settings store.
func newApp(cfg config.Config, store cache.Store, backend string, st *settings.Store) (*App, error) {
	c := cfg.Configuration
	current := st.Get()

	client := adc.New(adc.Options{
		BaseURL: current.APIURL,
		Token:   current.APIToken,
		Timeout: time.Duration(c.APITimeoutSeconds) * time.Second,
		Sections: map[lang.Language]int{
			lang.Spanish: c.SectionES,
			lang.English: c.SectionEN,
		},
		CoverSuffixes: map[lang.Language]string{
			lang.Spanish: c.CoverSuffixES,
			lang.English: c.CoverSuffixEN,
		},
		Breaker: newBreaker(cfg),
	})

	namespaces := make([]string, 0, len(lang.All))
	for _, l := range lang.All {
		namespaces = append(namespaces, lang.CachePrefix(l))
	}
	layer := cache.NewLayer(store, current.CachePolicy(), namespaces)

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	return &App{
		settings:     st,
		client:       client,
		catalog:      catalog.NewService(client, layer, st),
		layer:        layer,
		renderer:     renderer,
		csrf:         middleware.NewCSRF(),
		stats:        stats.Get(),
		cacheBackend: backend,
		adminToken:   c.AdminToken,
		logLevel:     c.LogLevel,
		now:          time.Now,
	}, nil
}
