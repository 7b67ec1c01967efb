package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a Stats instance as Prometheus counters. Values are read
// from the atomic counters at scrape time, so nothing is double counted.
type Collector struct {
	stats    *Stats
	counters []counterDesc
	uptime   *prometheus.Desc
}

type counterDesc struct {
	desc  *prometheus.Desc
	value *atomic.Int64
}

// NewCollector builds a collector over s.
func NewCollector(s *Stats) *Collector {
	c := &Collector{
		stats:  s,
		uptime: prometheus.NewDesc("adc_catalog_uptime_seconds", "Seconds since the server started.", nil, nil),
	}
	add := func(name, help string, v *atomic.Int64) {
		c.counters = append(c.counters, counterDesc{
			desc:  prometheus.NewDesc("adc_catalog_"+name, help, nil, nil),
			value: v,
		})
	}
	add("requests_total", "Total HTTP requests.", &s.TotalRequests)
	add("page_requests_total", "Catalog page requests.", &s.PageRequests)
	add("admin_requests_total", "Admin endpoint requests.", &s.AdminRequests)
	add("webhook_requests_total", "Webhook requests.", &s.WebhookRequests)
	add("cache_hits_total", "Durable cache hits.", &s.CacheHits)
	add("cache_misses_total", "Durable cache misses.", &s.CacheMisses)
	add("cache_scope_hits_total", "Request-scoped cache hits.", &s.ScopeHits)
	add("cache_writes_total", "Durable cache writes.", &s.CacheWrites)
	add("cache_write_failures_total", "Failed durable cache writes.", &s.CacheWriteFailures)
	add("cache_clears_total", "Clear-all operations.", &s.CacheClears)
	add("api_requests_total", "Requests sent to the remote catalog API.", &s.APIRequests)
	add("api_failures_total", "Failed remote catalog API requests.", &s.APIFailures)
	add("api_memo_hits_total", "Remote API calls served from the request memo.", &s.APIMemoHits)
	add("redirects_301_total", "Permanent redirects issued.", &s.Redirects301)
	add("redirects_302_total", "Temporary redirects issued.", &s.Redirects302)
	add("slug_conflicts_total", "Duplicate slugs detected while indexing.", &s.SlugConflicts)
	add("rate_limited_total", "Requests rejected by the rate limiter.", &s.RateLimited)
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.uptime
	for _, cd := range c.counters {
		ch <- cd.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, c.stats.Uptime().Seconds())
	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(cd.value.Load()))
	}
}
