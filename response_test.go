package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIResponse_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Respond(w, r).JSON(map[string]string{"test": "data"})

	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Errorf("Cache-Control = %q, want empty", got)
	}
}

func TestAPIResponse_Headers(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		noStore bool
	}{
		{"bolt backend", "bolt", false},
		{"redis backend, private", "redis", true},
		{"no backend, private", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/test", nil)

			resp := Respond(w, r).SetCacheBackend(tt.backend)
			if tt.noStore {
				resp.NoStore()
			}
			resp.JSON(map[string]string{})

			if got := w.Header().Get("X-Cache-Backend"); got != tt.backend {
				t.Errorf("X-Cache-Backend = %q, want %q", got, tt.backend)
			}
			wantCC := ""
			if tt.noStore {
				wantCC = "no-store"
			}
			if got := w.Header().Get("Cache-Control"); got != wantCC {
				t.Errorf("Cache-Control = %q, want %q", got, wantCC)
			}
		})
	}
}

func TestAPIResponse_Error(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Respond(w, r).NoStore().Error(http.StatusBadRequest, "unknown language", codeInvalidLanguage)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "unknown language" {
		t.Errorf("error = %q, want %q", resp["error"], "unknown language")
	}
	if resp["code"] != codeInvalidLanguage {
		t.Errorf("code = %q, want %q", resp["code"], codeInvalidLanguage)
	}
}
