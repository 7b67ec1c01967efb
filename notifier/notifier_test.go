package notifier

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (r *recordingNotifier) Send(subject, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subjects)
}

func TestEventBusPublish(t *testing.T) {
	bus := NewEventBus()
	specific := make(chan *Event, 1)
	all := make(chan *Event, 2)

	bus.Subscribe(EventSlugConflict, func(e *Event) { specific <- e })
	bus.SubscribeAll(func(e *Event) { all <- e })

	bus.Publish(NewEvent(EventSlugConflict, SeverityWarning, "dup").WithData("slug", "bereshit"))
	bus.Publish(NewEvent(EventCacheCleared, SeverityInfo, "cleared"))

	select {
	case e := <-specific:
		if e.Data["slug"] != "bereshit" {
			t.Errorf("Expected slug data, got %v", e.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("Specific handler not called")
	}

	for i := 0; i < 2; i++ {
		select {
		case <-all:
		case <-time.After(time.Second):
			t.Fatal("SubscribeAll handler missed an event")
		}
	}

	select {
	case e := <-specific:
		t.Errorf("Specific handler received unrelated event %s", e.Type)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		event   *Event
		subject string
		body    string
	}{
		{
			NewEvent(EventCircuitBreakerOpen, SeverityCritical, "").
				WithData("name", "adc").WithData("failures", 5).WithData("cooldown", "1m0s"),
			"🚨 Circuit Breaker OPEN",
			"after 5 consecutive failures",
		},
		{
			NewEvent(EventSlugConflict, SeverityWarning, "").
				WithData("kind", "program").WithData("lang", "es").WithData("slug", "torah").
				WithData("kept_id", 1).WithData("dropped_id", 9),
			"⚠️ Duplicate Slug",
			"resolves to id 1; id 9",
		},
		{
			NewEvent(EventCacheCleared, SeverityInfo, "").WithData("source", "webhook").WithData("keys", 12),
			"ℹ️ Cache Cleared",
			"via webhook (12 keys)",
		},
	}

	for _, tt := range tests {
		subject, body := FormatAlert(tt.event)
		if subject != tt.subject {
			t.Errorf("%s: subject %q, expected %q", tt.event.Type, subject, tt.subject)
		}
		if !strings.Contains(body, tt.body) {
			t.Errorf("%s: body %q does not contain %q", tt.event.Type, body, tt.body)
		}
	}

	if subject, _ := FormatAlert(NewEvent(EventSettingsUpdated, SeverityInfo, "")); subject != "" {
		t.Errorf("Expected no alert for settings updates, got %q", subject)
	}
}

func TestAlertHandlerCooldown(t *testing.T) {
	rec := &recordingNotifier{}
	h := NewAlertHandler(AlertConfig{Notifiers: []Notifier{rec}, CooldownDuration: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	event := NewEvent(EventCircuitBreakerRecovered, SeverityInfo, "").WithData("name", "adc")

	h.HandleEvent(event)
	h.HandleEvent(event)
	if rec.count() != 1 {
		t.Errorf("Expected 1 alert within cooldown, got %d", rec.count())
	}

	now = now.Add(2 * time.Minute)
	h.HandleEvent(event)
	if rec.count() != 2 {
		t.Errorf("Expected alert after cooldown, got %d", rec.count())
	}

	h.ResetCooldown(EventCircuitBreakerRecovered)
	h.HandleEvent(event)
	if rec.count() != 3 {
		t.Errorf("Expected alert after manual reset, got %d", rec.count())
	}
}

func TestAlertHandlerContinuesAfterNotifierError(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("down")}
	ok := &recordingNotifier{}
	h := NewAlertHandler(AlertConfig{Notifiers: []Notifier{failing, ok}})

	h.HandleEvent(NewEvent(EventServerStarted, SeverityInfo, "").WithData("port", "8080").WithData("cache_backend", "bolt"))

	if failing.count() != 1 || ok.count() != 1 {
		t.Errorf("Expected both notifiers to be tried, got %d and %d", failing.count(), ok.count())
	}
}

func TestNtfyNotifier(t *testing.T) {
	var gotTitle, gotBody, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	n := &NtfyNotifier{Topic: "adc-alerts", Server: server.URL}
	if err := n.Send("Subject", "Body"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotPath != "/adc-alerts" || gotTitle != "Subject" || gotBody != "Body" {
		t.Errorf("Unexpected request: path=%q title=%q body=%q", gotPath, gotTitle, gotBody)
	}
}

func TestTelegramNotifier(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer server.Close()

	n := &TelegramNotifier{BotToken: "TOKEN", ChatID: "42", APIBase: server.URL}
	if err := n.Send("Subject", "Body"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if payload["chat_id"] != "42" || !strings.Contains(payload["text"].(string), "*Subject*") {
		t.Errorf("Unexpected payload %v", payload)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	n.APIBase = failing.URL
	if err := n.Send("Subject", "Body"); err == nil {
		t.Error("Expected error on non-200 response")
	}
}

func TestFromConfig(t *testing.T) {
	if n := FromConfig("", "", "", ""); len(n) != 0 {
		t.Errorf("Expected no notifiers, got %d", len(n))
	}
	if n := FromConfig("topic", "", "token", ""); len(n) != 1 {
		t.Errorf("Expected only ntfy without a telegram chat id, got %d", len(n))
	}
	if n := FromConfig("topic", "", "token", "chat"); len(n) != 2 {
		t.Errorf("Expected 2 notifiers, got %d", len(n))
	}
}
