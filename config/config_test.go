package config

import (
	"os"
	"reflect"
	"testing"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		original, had := os.LookupEnv(key)
		os.Unsetenv(key)
		if had {
			t.Cleanup(func() { os.Setenv(key, original) })
		}
	}
}

func TestConfigDefaultValues(t *testing.T) {
	unsetEnv(t,
		"PORT",
		"ADC_TIMEOUT_SECONDS",
		"ADC_SECTION_ES",
		"ADC_SECTION_EN",
		"ADC_COVER_SUFFIX_ES",
		"ADC_COVER_SUFFIX_EN",
		"CACHE_BACKEND",
		"CACHE_ENABLED",
		"CACHE_DURATION_HOURS",
		"RATE_LIMIT_PER_SECOND",
		"CIRCUIT_BREAKER_THRESHOLD",
		"FF_CACHE_COMPRESSION",
	)

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port default", cfg.Configuration.Port, "8080"},
		{"APITimeoutSeconds default", cfg.Configuration.APITimeoutSeconds, 15},
		{"SectionES default", cfg.Configuration.SectionES, 1},
		{"SectionEN default", cfg.Configuration.SectionEN, 2},
		{"CoverSuffixES default", cfg.Configuration.CoverSuffixES, "_es"},
		{"CoverSuffixEN default", cfg.Configuration.CoverSuffixEN, "_en"},
		{"CacheBackend default", cfg.Configuration.CacheBackend, "bolt"},
		{"CacheEnabled default", cfg.Configuration.CacheEnabled, true},
		{"CacheDurationHours default", cfg.Configuration.CacheDurationHours, 6.0},
		{"RateLimitPerSecond default", cfg.Configuration.RateLimitPerSecond, 10},
		{"CircuitBreakerThreshold default", cfg.Configuration.CircuitBreakerThreshold, 5},
		{"CacheCompression default", cfg.FeatureFlags.CacheCompression, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v (%T), expected %v (%T)", tt.got, tt.got, tt.expected, tt.expected)
			}
		})
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_DURATION_HOURS", "0.5")
	t.Setenv("ADC_SECTION_EN", "7")
	t.Setenv("FF_CACHE_COMPRESSION", "false")

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Configuration.CacheBackend != "redis" {
		t.Errorf("Expected CacheBackend redis, got %q", cfg.Configuration.CacheBackend)
	}
	if cfg.Configuration.CacheDurationHours != 0.5 {
		t.Errorf("Expected CacheDurationHours 0.5, got %v", cfg.Configuration.CacheDurationHours)
	}
	if cfg.Configuration.SectionEN != 7 {
		t.Errorf("Expected SectionEN 7, got %d", cfg.Configuration.SectionEN)
	}
	if cfg.FeatureFlags.CacheCompression {
		t.Error("Expected CacheCompression to be disabled")
	}
}

func TestConfigInvalidValue(t *testing.T) {
	t.Setenv("ADC_SECTION_ES", "not-a-number")

	if _, err := load(); err == nil {
		t.Error("Expected error for non-numeric section")
	}
}

func TestOrigins(t *testing.T) {
	tests := []struct {
		raw      string
		expected []string
	}{
		{"", nil},
		{"https://a.example", []string{"https://a.example"}},
		{" https://a.example , ,https://b.example ", []string{"https://a.example", "https://b.example"}},
	}

	for _, tt := range tests {
		var cfg Config
		cfg.Configuration.AllowedOrigins = tt.raw
		if got := cfg.Origins(); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Origins(%q) = %v, expected %v", tt.raw, got, tt.expected)
		}
	}
}
