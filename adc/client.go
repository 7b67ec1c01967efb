// Package adc is the client of the ADC video platform API.
package adc

import (
	"adc-catalog-go/cache"
	"adc-catalog-go/circuitbreaker"
	"adc-catalog-go/lang"
	"adc-catalog-go/logcolors"
	"adc-catalog-go/stats"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrUnavailable wraps every failed call: transport error, non-200 status,
	// undecodable body, error flag in the envelope, or an open circuit.
	ErrUnavailable = errors.New("video API unavailable")

	// ErrNotConfigured is returned while no API URL is set.
	ErrNotConfigured = fmt.Errorf("%w: API URL not configured", ErrUnavailable)
)

const (
	EndpointPrograms     = "/ia/categories"
	EndpointAllPrograms  = "/ia/categories/all"
	EndpointMaterials    = "/ia/categories/materials"
	EndpointSearch       = "/advanced-search/materials"
	DefaultTimeout       = 15 * time.Second
	maxResponseBodyBytes = 16 << 20
)

type Options struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	Sections      map[lang.Language]int
	CoverSuffixes map[lang.Language]string
	Breaker       *circuitbreaker.CircuitBreaker
	HTTPClient    *http.Client
	Stats         *stats.Stats
}

type Client struct {
	mu      sync.RWMutex
	baseURL string
	token   string

	httpClient    *http.Client
	sections      map[lang.Language]int
	coverSuffixes map[lang.Language]string
	breaker       *circuitbreaker.CircuitBreaker
	stats         *stats.Stats
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Sections == nil {
		opts.Sections = map[lang.Language]int{lang.Spanish: 1, lang.English: 2}
	}
	if opts.CoverSuffixes == nil {
		opts.CoverSuffixes = map[lang.Language]string{lang.Spanish: "_es", lang.English: "_en"}
	}
	if opts.Stats == nil {
		opts.Stats = stats.Get()
	}

	c := &Client{
		httpClient:    opts.HTTPClient,
		sections:      opts.Sections,
		coverSuffixes: opts.CoverSuffixes,
		breaker:       opts.Breaker,
		stats:         opts.Stats,
	}
	c.Configure(opts.BaseURL, opts.Token)
	return c
}

// Configure swaps the API credentials. A changed endpoint resets the breaker.
func (c *Client) Configure(baseURL, token string) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	c.mu.Lock()
	changed := baseURL != c.baseURL || token != c.token
	c.baseURL = baseURL
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()

	if changed && c.breaker != nil {
		c.breaker.Reset()
	}
}

// Configured reports whether an API URL is set.
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL != ""
}

// Section returns the numeric section id of l.
func (c *Client) Section(l lang.Language) int {
	return c.sections[l]
}

// Breaker returns the circuit breaker, or nil.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Fetch calls endpoint with params. Successful envelopes are memoized in the
// request scope under memoKey so one request never repeats a call.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values, memoKey string) (Envelope, error) {
	scope := cache.ScopeFrom(ctx)
	if memoKey != "" {
		if v, ok := scope.Get("api:" + memoKey); ok {
			if env, ok := v.(Envelope); ok {
				c.stats.APIMemoHits.Add(1)
				return env, nil
			}
		}
	}

	c.mu.RLock()
	baseURL, token := c.baseURL, c.token
	c.mu.RUnlock()
	if baseURL == "" {
		return Envelope{}, ErrNotConfigured
	}

	var env Envelope
	call := func(ctx context.Context) error {
		var err error
		env, err = c.do(ctx, baseURL, token, endpoint, params)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.ExecuteContext(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			log.Debugf("%s %s abandoned: %v", logcolors.LogADC, endpoint, err)
			return Envelope{}, err
		}
		c.stats.APIFailures.Add(1)
		if errors.Is(err, circuitbreaker.ErrOpen) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		log.Warnf("%s %s failed: %v", logcolors.LogADC, endpoint, err)
		return Envelope{}, err
	}

	if memoKey != "" {
		scope.Set("api:"+memoKey, env)
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, baseURL, token, endpoint string, params url.Values) (Envelope, error) {
	u := baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	c.stats.APIRequests.Add(1)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debugf("%s GET %s -> %d (%v)", logcolors.LogHTTP, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Envelope{}, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, endpoint, err)
	}
	if env.Error {
		msg := env.Message
		if msg == "" {
			msg = "error flag set"
		}
		return Envelope{}, fmt.Errorf("%w: %s: %s", ErrUnavailable, endpoint, msg)
	}
	return env, nil
}

// Programs lists the programs of l's section, keeping only those whose cover
// carries the language suffix (or no cover at all).
func (c *Client) Programs(ctx context.Context, l lang.Language) ([]Program, error) {
	section := strconv.Itoa(c.Section(l))
	env, err := c.Fetch(ctx, EndpointPrograms, url.Values{"section": {section}}, lang.CacheKey(l, "programs"))
	if err != nil {
		return nil, err
	}
	all, err := decodePrograms(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: programs: %v", ErrUnavailable, err)
	}

	suffix := c.coverSuffixes[l]
	programs := make([]Program, 0, len(all))
	for _, p := range all {
		if coverMatches(p.Cover, suffix) {
			programs = append(programs, p)
		}
	}
	if dropped := len(all) - len(programs); dropped > 0 {
		log.Debugf("%s Dropped %d programs without the %q cover suffix", logcolors.LogADC, dropped, suffix)
	}
	return programs, nil
}

// AllPrograms lists every program regardless of section.
func (c *Client) AllPrograms(ctx context.Context) ([]Program, error) {
	env, err := c.Fetch(ctx, EndpointAllPrograms, nil, "all_programs")
	if err != nil {
		return nil, err
	}
	programs, err := decodePrograms(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: all programs: %v", ErrUnavailable, err)
	}
	return programs, nil
}

// Materials lists the videos of a program in API order.
func (c *Client) Materials(ctx context.Context, programID int) ([]Material, error) {
	id := strconv.Itoa(programID)
	env, err := c.Fetch(ctx, EndpointMaterials, url.Values{"category": {id}}, "materials_"+id)
	if err != nil {
		return nil, err
	}
	materials, err := decodeMaterials(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: materials: %v", ErrUnavailable, err)
	}
	return materials, nil
}

// SearchMaterials runs the literal text search inside l's section.
func (c *Client) SearchMaterials(ctx context.Context, l lang.Language, text string) ([]Material, error) {
	text = strings.TrimSpace(text)
	section := strconv.Itoa(c.Section(l))
	env, err := c.Fetch(ctx, EndpointSearch, url.Values{"section": {section}, "text": {text}}, lang.CacheKey(l, "search", text))
	if err != nil {
		return nil, err
	}
	materials, err := decodeMaterials(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}
	return materials, nil
}
