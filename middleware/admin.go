package middleware

import (
	"adc-catalog-go/logcolors"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CSRFHeader is the header mutating admin requests must carry.
const CSRFHeader = "X-CSRF-Token"

// Machine-readable error codes returned by the admin middleware
const (
	CodeUnauthorized  = "unauthorized"
	CodeAdminDisabled = "admin_disabled"
	CodeInvalidCSRF   = "invalid_csrf"
)

// ErrorBody is the JSON shape of every admin error response
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorBody{Error: message, Code: code})
}

// TokenEqual compares a presented secret against the expected one in constant time.
// An empty expected value never matches.
func TokenEqual(got, expected string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// AdminAuth requires the Authorization header to equal token.
// With no token configured the admin surface is closed.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				log.Warnf("%s Admin request to %s rejected, ADMIN_TOKEN is not set", logcolors.LogAuth, r.URL.Path)
				writeError(w, http.StatusForbidden, "Admin endpoints are disabled", CodeAdminDisabled)
				return
			}

			provided := r.Header.Get("Authorization")
			if !TokenEqual(provided, token) {
				log.Warnf("%s Unauthorized admin request from %s for %s", logcolors.LogAuth, ClientIP(r), r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Missing or invalid admin token", CodeUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRF issues a per-process token and checks it on mutating requests
type CSRF struct {
	mu    sync.RWMutex
	token string
}

// NewCSRF creates a guard with a fresh random token
func NewCSRF() *CSRF {
	return &CSRF{token: uuid.NewString()}
}

// Token returns the value clients must echo in X-CSRF-Token
func (c *CSRF) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Rotate replaces the token and returns the new one
func (c *CSRF) Rotate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = uuid.NewString()
	return c.token
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Protect rejects mutating requests whose X-CSRF-Token does not match
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if safeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		if !TokenEqual(r.Header.Get(CSRFHeader), c.Token()) {
			log.Warnf("%s Invalid CSRF token for %s %s", logcolors.LogAuth, r.Method, r.URL.Path)
			writeError(w, http.StatusForbidden, "Missing or invalid CSRF token", CodeInvalidCSRF)
			return
		}

		next.ServeHTTP(w, r)
	})
}
