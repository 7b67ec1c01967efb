package stats

import (
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests   atomic.Int64
	PageRequests    atomic.Int64
	AdminRequests   atomic.Int64
	WebhookRequests atomic.Int64
	OtherRequests   atomic.Int64

	// Cache performance
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
	ScopeHits          atomic.Int64 // served from the request-scoped shadow
	CacheWrites        atomic.Int64
	CacheWriteFailures atomic.Int64
	CacheClears        atomic.Int64

	// Remote API
	APIRequests atomic.Int64
	APIFailures atomic.Int64
	APIMemoHits atomic.Int64

	// Routing outcomes
	Redirects301  atomic.Int64
	Redirects302  atomic.Int64
	SlugConflicts atomic.Int64

	RateLimited atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status3xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64
}

// New returns an empty Stats started now.
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(math.MaxInt64)
	return s
}

var global = New()

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest classifies a request path
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)
	switch {
	case strings.HasPrefix(path, "/admin"), path == "/stats":
		s.AdminRequests.Add(1)
	case strings.HasPrefix(path, "/webhook"):
		s.WebhookRequests.Add(1)
	case path == "/health", path == "/metrics", strings.HasPrefix(path, "/cache/"):
		s.OtherRequests.Add(1)
	default:
		s.PageRequests.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 300 && code < 400:
		s.Status3xx.Add(1)
		switch code {
		case 301:
			s.Redirects301.Add(1)
		case 302:
			s.Redirects302.Add(1)
		}
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the durable cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load()
	total := hits + s.CacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == math.MaxInt64 {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":   s.TotalRequests.Load(),
			"pages":   s.PageRequests.Load(),
			"admin":   s.AdminRequests.Load(),
			"webhook": s.WebhookRequests.Load(),
			"other":   s.OtherRequests.Load(),
			"limited": s.RateLimited.Load(),
		},
		"cache": map[string]interface{}{
			"hits":           s.CacheHits.Load(),
			"misses":         s.CacheMisses.Load(),
			"scope_hits":     s.ScopeHits.Load(),
			"writes":         s.CacheWrites.Load(),
			"write_failures": s.CacheWriteFailures.Load(),
			"clears":         s.CacheClears.Load(),
			"hit_rate":       s.CacheHitRate(),
		},
		"api": map[string]interface{}{
			"requests":  s.APIRequests.Load(),
			"failures":  s.APIFailures.Load(),
			"memo_hits": s.APIMemoHits.Load(),
		},
		"routing": map[string]interface{}{
			"redirects_301":  s.Redirects301.Load(),
			"redirects_302":  s.Redirects302.Load(),
			"slug_conflicts": s.SlugConflicts.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"3xx": s.Status3xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg": s.AvgResponseTime().String(),
			"min": s.MinResponseTime().String(),
			"max": s.MaxResponseTime().String(),
		},
	}
}
