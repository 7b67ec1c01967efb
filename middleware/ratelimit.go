package middleware

import (
	"adc-catalog-go/logcolors"
	"adc-catalog-go/stats"
	"context"
	"crypto/subtle"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// LimiterIdleTimeout is how long a client's bucket is kept after its last request.
const LimiterIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// IPRateLimiter keeps one token bucket per client IP
type IPRateLimiter struct {
	ips   map[string]*visitor
	mu    *sync.RWMutex
	rate  rate.Limit
	burst int
	now   func() time.Time
}

// NewIPRateLimiter creates a per-IP limiter allowing r requests per second with the given burst
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*visitor),
		mu:    &sync.RWMutex{},
		rate:  r,
		burst: burst,
		now:   time.Now,
	}
}

// Limit returns the burst size advertised in X-RateLimit-Limit
func (i *IPRateLimiter) Limit() int {
	return i.burst
}

// AddIP returns the limiter of ip, creating it if no other request did first.
func (i *IPRateLimiter) AddIP(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.ips[ip] = v
	}
	v.lastSeen.Store(i.now().UnixNano())

	return v.limiter
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	v, exists := i.ips[ip]
	i.mu.RUnlock()

	if !exists {
		return i.AddIP(ip)
	}

	v.lastSeen.Store(i.now().UnixNano())
	return v.limiter
}

// Evict drops the buckets of clients idle for longer than maxIdle.
func (i *IPRateLimiter) Evict(maxIdle time.Duration) int {
	cutoff := i.now().Add(-maxIdle).UnixNano()

	i.mu.Lock()
	defer i.mu.Unlock()

	evicted := 0
	for ip, v := range i.ips {
		if v.lastSeen.Load() < cutoff {
			delete(i.ips, ip)
			evicted++
		}
	}
	return evicted
}

// StartEviction runs Evict every interval until ctx is done.
func (i *IPRateLimiter) StartEviction(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := i.Evict(maxIdle); n > 0 {
					log.Debugf("%s Evicted %d idle clients", logcolors.LogRateLimit, n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Remaining returns the whole tokens left for ip
func (i *IPRateLimiter) Remaining(ip string) int {
	tokens := math.Floor(i.GetLimiter(ip).Tokens())
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

// ClientIP strips the port from the request's remote address
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects clients that exceed their bucket with 429.
// Requests carrying the admin token bypass the limiter.
func RateLimitMiddleware(limiter *IPRateLimiter, adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken != "" {
				if got := r.Header.Get("Authorization"); got != "" &&
					subtle.ConstantTimeCompare([]byte(got), []byte(adminToken)) == 1 {
					w.Header().Set("X-RateLimit-Bypass", "true")
					next.ServeHTTP(w, r)
					return
				}
			}

			ip := ClientIP(r)
			if limiter.GetLimiter(ip).Allow() {
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Limit()))
				w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limiter.Remaining(ip)))
				next.ServeHTTP(w, r)
				return
			}

			stats.Get().RateLimited.Add(1)
			log.Warnf("%s IP %s exceeded rate limit", logcolors.LogRateLimit, ip)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
}
