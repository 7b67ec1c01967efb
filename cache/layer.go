package cache

import (
	"adc-catalog-go/logcolors"
	"adc-catalog-go/stats"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Layer applies the cache policy on top of a Store: lifetimes from the admin
// settings, request-scoped shadowing, single-flight misses and clear-all.
type Layer struct {
	store      Store
	namespaces []string
	stats      *stats.Stats
	group      singleflight.Group

	mu     sync.RWMutex
	policy Policy
}

// NewLayer builds a Layer. namespaces are the key prefixes ClearAll removes,
// one per language.
func NewLayer(store Store, policy Policy, namespaces []string) *Layer {
	return &Layer{
		store:      store,
		namespaces: namespaces,
		stats:      stats.Get(),
		policy:     policy,
	}
}

// Store returns the durable store.
func (l *Layer) Store() Store {
	return l.store
}

func (l *Layer) Policy() Policy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy
}

// SetPolicy replaces the policy; used when admin settings change.
func (l *Layer) SetPolicy(p Policy) {
	l.mu.Lock()
	l.policy = p
	l.mu.Unlock()
	log.Infof("%s Policy updated (enabled: %v, ttl: %v)", logcolors.LogCache, p.Enabled, p.TTL())
}

func (l *Layer) TTL() time.Duration         { return l.Policy().TTL() }
func (l *Layer) SearchTTL() time.Duration   { return l.Policy().SearchTTL() }
func (l *Layer) FallbackTTL() time.Duration { return l.Policy().FallbackTTL() }

// effectiveTTL coerces ttl to 0 when caching is disabled.
func (l *Layer) effectiveTTL(ttl time.Duration) time.Duration {
	if !l.Policy().Enabled || ttl < 0 {
		return 0
	}
	return ttl
}

// Fetch returns the value cached under key, computing and storing it on a
// miss. With a zero effective ttl compute runs on every call. Read and decode
// failures count as misses; write failures are logged and the computed value
// is still returned. Errors from compute are never cached. A shared compute
// keeps the values of the first caller's ctx but not its cancellation, so one
// caller going away does not fail the others.
func Fetch[T any](ctx context.Context, l *Layer, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	ttl = l.effectiveTTL(ttl)
	if ttl == 0 {
		return compute(ctx)
	}

	scope := ScopeFrom(ctx)
	if v, ok := scope.Get(key); ok {
		if t, ok := v.(T); ok {
			l.stats.ScopeHits.Add(1)
			return t, nil
		}
	}

	if t, ok := l.read(ctx, key, scope, func(data []byte) (any, error) {
		var t T
		err := json.Unmarshal(data, &t)
		return t, err
	}); ok {
		return t.(T), nil
	}

	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		t, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.write(ctx, key, t, ttl)
		return t, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		log.Debugf("%s Shared in-flight result for %s", logcolors.LogCache, key)
	}

	t := v.(T)
	scope.Set(key, t)
	return t, nil
}

func (l *Layer) read(ctx context.Context, key string, scope *Scope, decode func([]byte) (any, error)) (any, bool) {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("%s Read failed for %s, treating as miss: %v", logcolors.LogCache, key, err)
		}
		l.stats.CacheMisses.Add(1)
		return nil, false
	}

	v, err := decode(data)
	if err != nil {
		log.Warnf("%s Undecodable entry for %s, treating as miss: %v", logcolors.LogCache, key, err)
		l.stats.CacheMisses.Add(1)
		return nil, false
	}

	l.stats.CacheHits.Add(1)
	scope.Set(key, v)
	return v, true
}

func (l *Layer) write(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err == nil {
		err = l.store.Set(ctx, key, data, ttl)
	}
	if err != nil {
		l.stats.CacheWriteFailures.Add(1)
		log.Warnf("%s Write failed for %s: %v", logcolors.LogCache, key, err)
		return
	}
	l.stats.CacheWrites.Add(1)
	log.Debugf("%s Stored %s for %v", logcolors.LogCache, key, ttl)
}

// ClearAll deletes every key in every namespace and then flushes the whole
// store as a best-effort extra. It returns the number of namespaced keys removed.
func (l *Layer) ClearAll(ctx context.Context) (int, error) {
	var errs []error
	deleted := 0
	for _, ns := range l.namespaces {
		keys, err := l.store.Keys(ctx, ns)
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s: %w", ns, err))
			continue
		}
		for _, k := range keys {
			if err := l.store.Delete(ctx, k); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", k, err))
				continue
			}
			deleted++
		}
	}

	if err := l.store.Clear(ctx); err != nil {
		log.Warnf("%s Store flush failed: %v", logcolors.LogCacheClear, err)
	}
	ScopeFrom(ctx).Reset()
	l.stats.CacheClears.Add(1)

	log.Infof("%s Cleared %d keys across %d languages", logcolors.LogCacheClear, deleted, len(l.namespaces))
	return deleted, errors.Join(errs...)
}
