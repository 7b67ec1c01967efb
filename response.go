package main

import (
	"adc-catalog-go/middleware"
	"encoding/json"
	"net/http"
)

// APIResponse handles consistent header setting and JSON responses for the
// admin, webhook and diagnostics endpoints.
type APIResponse struct {
	w            http.ResponseWriter
	r            *http.Request
	cacheBackend string
	noStore      bool
}

// Respond creates a response helper for the request
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetCacheBackend sets the X-Cache-Backend header value
func (a *APIResponse) SetCacheBackend(backend string) *APIResponse {
	a.cacheBackend = backend
	return a
}

// NoStore marks the response as private and uncacheable
func (a *APIResponse) NoStore() *APIResponse {
	a.noStore = true
	return a
}

func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")

	if a.cacheBackend != "" {
		a.w.Header().Set("X-Cache-Backend", a.cacheBackend)
	}
	if a.noStore {
		a.w.Header().Set("Cache-Control", "no-store")
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers, sets status code, and encodes {"error": message, "code": code}
func (a *APIResponse) Error(statusCode int, message, code string) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(middleware.ErrorBody{Error: message, Code: code})
}
