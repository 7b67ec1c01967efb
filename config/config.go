package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port     string `envconfig:"PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

		// Remote catalog API
		APIURL            string `envconfig:"ADC_API_URL" default:""`
		APIToken          string `envconfig:"ADC_API_TOKEN" default:""`
		APITimeoutSeconds int    `envconfig:"ADC_TIMEOUT_SECONDS" default:"15"`
		SectionES         int    `envconfig:"ADC_SECTION_ES" default:"1"`
		SectionEN         int    `envconfig:"ADC_SECTION_EN" default:"2"`
		CoverSuffixES     string `envconfig:"ADC_COVER_SUFFIX_ES" default:"_es"`
		CoverSuffixEN     string `envconfig:"ADC_COVER_SUFFIX_EN" default:"_en"`

		// Admin endpoints
		AdminToken     string `envconfig:"ADMIN_TOKEN" default:""`
		AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

		// Durable cache
		CacheBackend              string  `envconfig:"CACHE_BACKEND" default:"bolt"` // bolt, redis or memory
		CacheDBPath               string  `envconfig:"CACHE_DB_PATH" default:"./data/cache.db"`
		CacheSweepIntervalSeconds int     `envconfig:"CACHE_SWEEP_INTERVAL_SECONDS" default:"3600"`
		CacheEnabled              bool    `envconfig:"CACHE_ENABLED" default:"true"`
		CacheDurationHours        float64 `envconfig:"CACHE_DURATION_HOURS" default:"6"`
		RedisAddr                 string  `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		RedisPassword             string  `envconfig:"REDIS_PASSWORD" default:""`
		RedisDB                   int     `envconfig:"REDIS_DB" default:"0"`
		RedisKeyPrefix            string  `envconfig:"REDIS_KEY_PREFIX" default:"adc:"`

		// Settings and program order
		SettingsDBPath string `envconfig:"SETTINGS_DB_PATH" default:"./data/settings.db"`

		RateLimitPerSecond         int `envconfig:"RATE_LIMIT_PER_SECOND" default:"10"`
		RateLimitBurstLimit        int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"20"`
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`      // Consecutive failures before circuit opens
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"60"` // Seconds to wait before retrying

		// Notifications
		NtfyTopic        string `envconfig:"NOTIFIER_NTFY_TOPIC" default:""`
		NtfyServer       string `envconfig:"NOTIFIER_NTFY_SERVER" default:"https://ntfy.sh"`
		TelegramBotToken string `envconfig:"NOTIFIER_TELEGRAM_BOT_TOKEN" default:""`
		TelegramChatID   string `envconfig:"NOTIFIER_TELEGRAM_CHAT_ID" default:""`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// Origins returns the configured CORS origins as a list.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.Configuration.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
