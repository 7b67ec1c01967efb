package middleware

import (
	"adc-catalog-go/cache"
	"net/http"
)

// ScopeMiddleware gives every request its own cache scope, dropped when the request ends
func ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(cache.WithScope(r.Context())))
	})
}
