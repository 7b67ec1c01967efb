package cache

import (
	"context"
	"sync"
)

// DefaultScopeLimit bounds the number of entries a request scope holds.
const DefaultScopeLimit = 256

// Scope is a request-lifetime map used to avoid repeated lookups of the same
// key while serving one request. A nil *Scope is valid and never stores anything.
type Scope struct {
	mu      sync.Mutex
	entries map[string]any
	limit   int
}

type scopeKey struct{}

// NewScope returns a scope holding at most limit entries.
func NewScope(limit int) *Scope {
	if limit <= 0 {
		limit = DefaultScopeLimit
	}
	return &Scope{entries: make(map[string]any), limit: limit}
}

// WithScope attaches a fresh scope to ctx.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, NewScope(DefaultScopeLimit))
}

// ScopeFrom returns the scope attached to ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

func (s *Scope) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set stores v unless the scope is full.
func (s *Scope) Set(key string, v any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.limit {
		return
	}
	s.entries[key] = v
}

// Reset drops every entry.
func (s *Scope) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
