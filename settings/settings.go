// Package settings holds the admin-editable configuration of the catalog and
// the per-language program order, persisted in a BoltDB file.
package settings

import (
	"adc-catalog-go/cache"
	"math"
	"strings"
)

const (
	DefaultCacheHours        = 6.0
	DefaultColumns           = 4
	MinColumns               = 2
	MaxColumns               = 6
	DefaultAutoplayCountdown = 5
	MinAutoplayCountdown     = 3
	MaxAutoplayCountdown     = 30
)

// CacheHourChoices are the cache durations offered in the admin.
var CacheHourChoices = []float64{0.5, 1, 3, 6, 12, 24}

// Settings is the admin configuration. Values are normalized on every load and save.
type Settings struct {
	APIURL            string  `json:"api_url"`
	APIToken          string  `json:"api_token"`
	CacheEnabled      bool    `json:"cache_enabled"`
	CacheHours        float64 `json:"cache_hours"`
	Debug             bool    `json:"debug"`
	Columns           int     `json:"columns"`
	Autoplay          bool    `json:"autoplay"`
	AutoplayCountdown int     `json:"autoplay_countdown"`
	WebhookToken      string  `json:"webhook_token"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{
		CacheEnabled:      true,
		CacheHours:        DefaultCacheHours,
		Columns:           DefaultColumns,
		Autoplay:          true,
		AutoplayCountdown: DefaultAutoplayCountdown,
	}
}

// Normalize trims strings and replaces out-of-range values with defaults.
func (s Settings) Normalize() Settings {
	s.APIURL = strings.TrimRight(strings.TrimSpace(s.APIURL), "/")
	s.APIToken = strings.TrimSpace(s.APIToken)
	s.WebhookToken = strings.TrimSpace(s.WebhookToken)

	if !validCacheHours(s.CacheHours) {
		s.CacheHours = DefaultCacheHours
	}
	if s.Columns < MinColumns || s.Columns > MaxColumns {
		s.Columns = DefaultColumns
	}
	if s.AutoplayCountdown < MinAutoplayCountdown || s.AutoplayCountdown > MaxAutoplayCountdown {
		s.AutoplayCountdown = DefaultAutoplayCountdown
	}
	return s
}

func validCacheHours(h float64) bool {
	for _, c := range CacheHourChoices {
		if math.Abs(c-h) < 1e-9 {
			return true
		}
	}
	return false
}

// CachePolicy derives the cache policy from the settings.
func (s Settings) CachePolicy() cache.Policy {
	return cache.Policy{Enabled: s.CacheEnabled, DurationHours: s.CacheHours}
}
