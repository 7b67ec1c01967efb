package cache

import "time"

const (
	MinTTL      = 30 * time.Minute
	MaxTTL      = 24 * time.Hour
	FallbackTTL = time.Hour
)

// Policy derives cache lifetimes from the admin cache settings.
type Policy struct {
	Enabled       bool
	DurationHours float64
}

// TTL is the configured duration clamped to [MinTTL, MaxTTL], or 0 when caching is disabled.
func (p Policy) TTL() time.Duration {
	if !p.Enabled {
		return 0
	}
	d := time.Duration(p.DurationHours * float64(time.Hour))
	if d < MinTTL {
		return MinTTL
	}
	if d > MaxTTL {
		return MaxTTL
	}
	return d
}

// SearchTTL is half of TTL; search results are query dependent and go stale faster.
func (p Policy) SearchTTL() time.Duration {
	return p.TTL() / 2
}

// FallbackTTL is fixed at one hour whatever the configured duration.
func (p Policy) FallbackTTL() time.Duration {
	return FallbackTTL
}
