package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
)

// Cache-related log prefixes
const (
	LogCacheInit  = Blue + "[Cache:Init]" + Reset
	LogCache      = Blue + "[Cache]" + Reset
	LogCacheClear = Blue + "[Cache:Clear]" + Reset
	LogCacheSweep = Blue + "[Cache:Sweep]" + Reset
	LogCacheRedis = Blue + "[Cache:Redis]" + Reset
)

// Remote API log prefixes
const (
	LogADC            = Cyan + "[ADC]" + Reset
	LogHTTP           = Cyan + "[HTTP]" + Reset
	LogCircuitBreaker = Purple + "[CircuitBreaker]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// Catalog and routing log prefixes
const (
	LogCatalog  = Green + "[Catalog]" + Reset
	LogSlug     = Yellow + "[Slug]" + Reset
	LogSearch   = Green + "[Search]" + Reset
	LogFallback = Cyan + "[Fallback]" + Reset
	LogRouter   = Green + "[Router]" + Reset
	LogRender   = Green + "[Render]" + Reset
)

// Admin and auth log prefixes
const (
	LogAdmin     = Purple + "[Admin]" + Reset
	LogWebhook   = Purple + "[Webhook]" + Reset
	LogSettings  = Cyan + "[Settings]" + Reset
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAuth      = Purple + "[Auth]" + Reset
)

// Server/Init log prefixes
const (
	LogServer   = Green + "[Server]" + Reset
	LogConfig   = Cyan + "[Config]" + Reset
	LogStats    = Blue + "[Stats]" + Reset
	LogNotifier = Cyan + "[Notifier]" + Reset
	LogRequest  = Purple + "[Request]" + Reset
)
