package cache

import (
	"testing"
	"time"
)

func TestPolicyTTL(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		expected time.Duration
	}{
		{"disabled", Policy{Enabled: false, DurationHours: 6}, 0},
		{"half hour", Policy{Enabled: true, DurationHours: 0.5}, 30 * time.Minute},
		{"six hours", Policy{Enabled: true, DurationHours: 6}, 6 * time.Hour},
		{"day", Policy{Enabled: true, DurationHours: 24}, 24 * time.Hour},
		{"below minimum", Policy{Enabled: true, DurationHours: 0.1}, MinTTL},
		{"zero clamps up", Policy{Enabled: true, DurationHours: 0}, MinTTL},
		{"negative clamps up", Policy{Enabled: true, DurationHours: -3}, MinTTL},
		{"above maximum", Policy{Enabled: true, DurationHours: 48}, MaxTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.TTL(); got != tt.expected {
				t.Errorf("TTL() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestPolicyTTLAlwaysInRange(t *testing.T) {
	for h := -5.0; h <= 50; h += 0.25 {
		ttl := Policy{Enabled: true, DurationHours: h}.TTL()
		if ttl < MinTTL || ttl > MaxTTL {
			t.Errorf("DurationHours %v gave %v, outside [%v, %v]", h, ttl, MinTTL, MaxTTL)
		}
	}
}

func TestPolicySearchTTL(t *testing.T) {
	for _, h := range []float64{0.5, 1, 3, 6, 12, 24} {
		p := Policy{Enabled: true, DurationHours: h}
		if p.SearchTTL() != p.TTL()/2 {
			t.Errorf("SearchTTL for %vh = %v, expected %v", h, p.SearchTTL(), p.TTL()/2)
		}
	}
	if (Policy{}).SearchTTL() != 0 {
		t.Error("Expected zero search ttl when disabled")
	}
}

func TestPolicyFallbackTTL(t *testing.T) {
	for _, p := range []Policy{{}, {Enabled: true, DurationHours: 0.5}, {Enabled: true, DurationHours: 24}} {
		if p.FallbackTTL() != time.Hour {
			t.Errorf("FallbackTTL for %+v = %v, expected 1h", p, p.FallbackTTL())
		}
	}
}
