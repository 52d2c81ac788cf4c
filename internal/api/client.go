// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultHealthTimeout bounds a single liveness probe.
	DefaultHealthTimeout = 10 * time.Second

	// DefaultAskTimeout bounds an ask call. Inference on the backend is slow.
	DefaultAskTimeout = 60 * time.Second

	// DefaultHealthCacheTTL is how long a successful probe is reused.
	DefaultHealthCacheTTL = 30 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024

	healthPath = "/health"
	askPath    = "/ask"
)

// PERFORMANCE: one pooled transport for every client in the process.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// AskEvent describes one finished ask call. Delivered to Options.OnAsk.
type AskEvent struct {
	SessionID  string
	Question   string
	Result     model.Result
	StatusCode int
	Latency    time.Duration
	At         time.Time
}

// Options holds configuration for the backend client.
type Options struct {
	// BaseURL is scheme://host:port of the backend, without a trailing slash.
	BaseURL string

	HealthTimeout  time.Duration
	AskTimeout     time.Duration
	HealthCacheTTL time.Duration

	// Retry applies to health probes only. The zero value disables retries.
	Retry RetryPolicy

	// HTTPClient overrides the pooled default. Its Timeout should be zero;
	// per-call timeouts come from HealthTimeout and AskTimeout.
	HTTPClient *http.Client

	Logger zerolog.Logger

	// OnAsk is called after every ask call, successful or not.
	OnAsk func(AskEvent)

	// now is overridden in tests.
	now func() time.Time
}

// OptionsFromConfig maps the app config onto client options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:        cfg.BaseURL(),
		HealthTimeout:  cfg.HealthTimeout(),
		AskTimeout:     cfg.AskTimeout(),
		HealthCacheTTL: cfg.HealthCacheTTL(),
		Retry: RetryPolicy{
			MaxRetries:  cfg.Health.Retries,
			MaxInterval: time.Duration(cfg.Health.RetryMaxSeconds) * time.Second,
		},
		Logger: zerolog.Nop(),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the question-answering backend.
//
// The Client is safe for concurrent use. The base URL can be swapped at
// runtime with SetBaseURL, which also drops the cached health status.
type Client struct {
	opts  Options
	http  *http.Client
	log   zerolog.Logger
	cache *healthCache

	mu      sync.RWMutex
	baseURL string
}

// NewClient creates a backend client, filling zero options with defaults.
func NewClient(opts Options) *Client {
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	if opts.AskTimeout <= 0 {
		opts.AskTimeout = DefaultAskTimeout
	}
	if opts.HealthCacheTTL < 0 {
		opts.HealthCacheTTL = 0
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: sharedTransport}
	}

	return &Client{
		opts:    opts,
		http:    httpClient,
		log:     opts.Logger.With().Str("component", "api").Logger(),
		cache:   newHealthCache(opts.HealthCacheTTL, opts.now),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// BaseURL returns the current backend base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL points the client at a different backend.
func (c *Client) SetBaseURL(u string) {
	u = strings.TrimRight(u, "/")
	c.mu.Lock()
	changed := c.baseURL != u
	c.baseURL = u
	c.mu.Unlock()
	if changed {
		c.cache.invalidate()
		c.log.Info().Str("base_url", u).Msg("backend address changed")
	}
}

// HealthURL returns the full health endpoint URL.
func (c *Client) HealthURL() string { return c.BaseURL() + healthPath }

// AskURL returns the full ask endpoint URL.
func (c *Client) AskURL() string { return c.BaseURL() + askPath }

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth reports whether the backend is up. A successful probe younger
// than the cache TTL is reused; failures are never cached.
func (c *Client) CheckHealth(ctx context.Context) (*model.HealthStatus, bool) {
	if status, ok := c.cache.get(); ok {
		return status, true
	}
	status, err := c.ProbeHealth(ctx)
	if err != nil {
		return nil, false
	}
	return status, true
}

// ProbeHealth always contacts the backend, applying the retry policy, and
// refreshes the cache on success.
func (c *Client) ProbeHealth(ctx context.Context) (*model.HealthStatus, error) {
	var status *model.HealthStatus
	attempt := 0
	err := c.opts.Retry.Do(ctx, func() error {
		attempt++
		s, err := c.probeOnce(ctx)
		if err != nil {
			c.log.Debug().Int("attempt", attempt).Err(err).Msg("health probe failed")
			return err
		}
		status = s
		return nil
	})
	if err != nil {
		c.log.Warn().Str("url", c.HealthURL()).Int("attempts", attempt).Err(err).Msg("backend unavailable")
		return nil, err
	}

	c.cache.put(status)
	c.log.Info().Int("documents", status.Documents).Msg("backend healthy")
	return cloneHealth(status), nil
}

// InvalidateHealth drops the cached health status.
func (c *Client) InvalidateHealth() {
	c.cache.invalidate()
}

func (c *Client) probeOnce(ctx context.Context) (*model.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.HealthURL(), nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Op: "health", Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError("health", err, c.opts.HealthTimeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, classifyTransportError("health", err, c.opts.HealthTimeout)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{Type: ErrTypeStatus, Op: "health", StatusCode: resp.StatusCode, Message: "unexpected status " + resp.Status}
	}

	status, err := parseHealth(body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeDecode, Op: "health", Message: "failed to decode response", Cause: err}
	}
	status.CheckedAt = c.opts.now()
	return status, nil
}

// parseHealth reads {"documents": N, ...}. A 200 with a JSON object is a
// healthy backend: a missing count is 0, and a count that is not a number
// is 0 with the raw value kept in Extra.
func parseHealth(body []byte) (*model.HealthStatus, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("empty health body")
	}

	status := &model.HealthStatus{Extra: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "documents" {
			if n, ok := documentCount(v); ok {
				status.Documents = n
				continue
			}
		}
		status.Extra[k] = v
	}
	return status, nil
}

// documentCount accepts JSON numbers and numeric strings such as "1696".
func documentCount(v any) (int, bool) {
	var s string
	switch n := v.(type) {
	case nil:
		return 0, true
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	default:
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// =============================================================================
// ASK
// =============================================================================

// Ask sends a question in the given session and returns the normalized
// result. It never panics and never returns a partially filled Result.
func (c *Client) Ask(ctx context.Context, question, sessionID string) (res model.Result) {
	start := c.opts.now()
	question = NormalizeQuestion(question)
	status := 0

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("ask recovered from panic")
			res = model.Failure(fmt.Sprintf("internal error: %v", r))
		}
		c.notify(AskEvent{
			SessionID:  sessionID,
			Question:   question,
			Result:     res,
			StatusCode: status,
			Latency:    c.opts.now().Sub(start),
			At:         start,
		})
	}()

	if question == "" {
		return model.Failure("question is empty")
	}

	payload, code, err := c.doAsk(ctx, question, sessionID)
	status = code
	if err != nil {
		var ce *ClientError
		if errors.As(err, &ce) {
			c.log.Warn().Str("session", sessionID).Str("error_type", ce.Type.String()).Int("status", code).Err(err).Msg("ask failed")
			return model.Failure(ce.UserMessage())
		}
		return model.Failure(err.Error())
	}

	c.log.Info().
		Str("session", sessionID).
		Int("question_len", len([]rune(question))).
		Int("standards", len(payload.Standards)).
		Dur("latency", c.opts.now().Sub(start)).
		Msg("ask answered")
	return model.OK(payload)
}

func (c *Client) doAsk(ctx context.Context, question, sessionID string) (*model.AnswerPayload, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.AskTimeout)
	defer cancel()

	body, err := json.Marshal(model.AskRequest{Question: question, SessionID: sessionID})
	if err != nil {
		return nil, 0, &ClientError{Type: ErrTypeRequest, Op: "ask", Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AskURL(), bytes.NewReader(body))
	if err != nil {
		return nil, 0, &ClientError{Type: ErrTypeRequest, Op: "ask", Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, classifyTransportError("ask", err, c.opts.AskTimeout)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil, resp.StatusCode, &ClientError{Type: ErrTypeStatus, Op: "ask", StatusCode: resp.StatusCode, Message: "unexpected status " + resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, classifyTransportError("ask", err, c.opts.AskTimeout)
	}

	var envelope model.AskResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, resp.StatusCode, &ClientError{Type: ErrTypeDecode, Op: "ask", Message: "failed to decode response", Cause: err}
	}
	// A 200 without an answer object degrades to an empty answer.
	if envelope.Answer == nil {
		envelope.Answer = &model.AnswerPayload{}
	}
	return envelope.Answer, resp.StatusCode, nil
}

func (c *Client) notify(ev AskEvent) {
	if c.opts.OnAsk == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("ask observer panicked")
		}
	}()
	c.opts.OnAsk(ev)
}

// NormalizeQuestion trims the question and converts it to Unicode NFC so the
// backend sees one canonical form for visually identical input.
func NormalizeQuestion(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// =============================================================================
// HELPERS
// =============================================================================

func classifyTransportError(op string, err error, timeout time.Duration) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Op: op, Timeout: timeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Op: op, Timeout: timeout, Message: "request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeRequest, Op: op, Message: "request canceled", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Op: op, Message: "connection failed", Cause: err}
}

func cloneHealth(s *model.HealthStatus) *model.HealthStatus {
	if s == nil {
		return nil
	}
	out := *s
	if s.Extra != nil {
		out.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}
