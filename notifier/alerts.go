package notifier

import (
	"adc-catalog-go/logcolors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultAlertCooldown is the minimum gap between two alerts of the same type.
const DefaultAlertCooldown = 15 * time.Minute

// AlertHandler turns bus events into notifications, rate limited per event type.
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[EventType]time.Time
	cooldownDuration time.Duration
	now              func() time.Time
	mu               sync.Mutex
}

// AlertConfig holds configuration for the alert handler
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown == 0 {
		cooldown = DefaultAlertCooldown
	}

	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[EventType]time.Time),
		cooldownDuration: cooldown,
		now:              time.Now,
	}
}

// Start subscribes the handler to bus
func (h *AlertHandler) Start(bus *EventBus) {
	bus.SubscribeAll(h.HandleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotifier, h.cooldownDuration, len(h.notifiers))
}

// HandleEvent formats and sends event unless its type is cooling down.
func (h *AlertHandler) HandleEvent(event *Event) {
	subject, message := FormatAlert(event)
	if subject == "" {
		return
	}

	if !h.shouldAlert(event.Type) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotifier, event.Type)
		return
	}

	h.sendAlert(subject, message)
}

func (h *AlertHandler) shouldAlert(eventType EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	lastAlert, exists := h.cooldowns[eventType]
	if !exists || now.Sub(lastAlert) >= h.cooldownDuration {
		h.cooldowns[eventType] = now
		return true
	}
	return false
}

// FormatAlert renders event as a notification subject and body. Unknown
// event types return an empty subject.
func FormatAlert(event *Event) (subject, message string) {
	switch event.Type {
	case EventCircuitBreakerOpen:
		subject = "Circuit Breaker OPEN"
		message = fmt.Sprintf(
			"The %v circuit breaker has tripped after %v consecutive failures.\n\n"+
				"Catalog pages will show the unavailable message for %v.\n\n"+
				"Action: Check the video API status and token.",
			event.Data["name"], event.Data["failures"], event.Data["cooldown"])

	case EventServerStartupFailed:
		subject = "Server Startup FAILED"
		message = fmt.Sprintf("Component: %v\nError: %v", event.Data["component"], event.Data["error"])

	case EventHighFailureRate:
		subject = "High Failure Rate Warning"
		message = fmt.Sprintf(
			"The %v circuit breaker has recorded %v/%v failures.\n\n"+
				"If failures continue, the circuit will open.",
			event.Data["name"], event.Data["failures"], event.Data["threshold"])

	case EventSlugConflict:
		subject = "Duplicate Slug"
		message = fmt.Sprintf(
			"Two %v items in %v share the slug %q.\n\n"+
				"The URL resolves to id %v; id %v is unreachable by friendly URL.\n\n"+
				"Action: Rename one of them in the video platform.",
			event.Data["kind"], event.Data["lang"], event.Data["slug"], event.Data["kept_id"], event.Data["dropped_id"])

	case EventCircuitBreakerRecovered:
		subject = "Circuit Breaker Recovered"
		message = fmt.Sprintf("The %v circuit breaker has recovered and is now operational.", event.Data["name"])

	case EventServerStarted:
		subject = "Server Started"
		message = fmt.Sprintf("Server started on port %v (cache: %v).", event.Data["port"], event.Data["cache_backend"])

	case EventCacheCleared:
		subject = "Cache Cleared"
		message = fmt.Sprintf("Catalog cache cleared via %v (%v keys).", event.Data["source"], event.Data["keys"])

	default:
		return "", ""
	}

	switch event.Severity {
	case SeverityCritical:
		subject = "🚨 " + subject
	case SeverityWarning:
		subject = "⚠️ " + subject
	case SeverityInfo:
		subject = "ℹ️ " + subject
	}

	return subject, message
}

func (h *AlertHandler) sendAlert(subject, message string) {
	if len(h.notifiers) == 0 {
		log.Debugf("%s No notifiers configured, skipping alert: %s", logcolors.LogNotifier, subject)
		return
	}

	log.Infof("%s Sending alert: %s", logcolors.LogNotifier, subject)

	successCount := 0
	for _, n := range h.notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Errorf("%s Failed to send alert via notifier: %v", logcolors.LogNotifier, err)
		} else {
			successCount++
		}
	}

	if successCount > 0 {
		log.Infof("%s Alert sent via %d/%d notifiers", logcolors.LogNotifier, successCount, len(h.notifiers))
	}
}

// ResetCooldown manually resets the cooldown for a specific event type
func (h *AlertHandler) ResetCooldown(eventType EventType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.cooldowns, eventType)
}
