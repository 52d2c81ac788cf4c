// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/model"
)

// fakeClock is a manually advanced clock for cache tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestClient(t *testing.T, handler http.Handler, mutate ...func(*Options)) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := Options{
		BaseURL:        server.URL,
		HealthTimeout:  2 * time.Second,
		AskTimeout:     2 * time.Second,
		HealthCacheTTL: 30 * time.Second,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewClient(opts), server
}

// blockUntilCanceled simulates a backend that never answers in time.
func blockUntilCanceled(w http.ResponseWriter, r *http.Request) {
	<-r.Context().Done()
}

// =============================================================================
// HEALTH TESTS
// =============================================================================

func TestCheckHealth_Connected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"documents": 1696, "status": "ok"}`)
	}))

	status, ok := client.CheckHealth(context.Background())
	require.True(t, ok)
	require.NotNil(t, status)
	assert.Equal(t, 1696, status.Documents)
	assert.Equal(t, "ok", status.Extra["status"])
	assert.False(t, status.CheckedAt.IsZero())
}

func TestCheckHealth_MissingDocumentsIsZero(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "ok"}`)
	}))

	status, ok := client.CheckHealth(context.Background())
	require.True(t, ok)
	assert.Equal(t, 0, status.Documents)
}

func TestCheckHealth_DocumentCountForms(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  int
		extra bool
	}{
		{"number", `{"documents": 1696}`, 1696, false},
		{"numeric string", `{"documents": "1696"}`, 1696, false},
		{"float", `{"documents": 12.0}`, 12, false},
		{"null", `{"documents": null}`, 0, false},
		{"text", `{"documents": "many"}`, 0, true},
		{"object", `{"documents": {"total": 3}}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))

			status, ok := client.CheckHealth(context.Background())
			require.True(t, ok, "a 200 with a JSON object is healthy")
			assert.Equal(t, tt.want, status.Documents)
			_, kept := status.Extra["documents"]
			assert.Equal(t, tt.extra, kept)
		})
	}
}

func TestCheckHealth_Timeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(blockUntilCanceled), func(o *Options) {
		o.HealthTimeout = 50 * time.Millisecond
	})

	status, ok := client.CheckHealth(context.Background())
	assert.False(t, ok)
	assert.Nil(t, status)

	_, err := client.ProbeHealth(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "want ErrTimeout, got %v", err)
}

func TestCheckHealth_Non200(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, ok := client.CheckHealth(context.Background())
	assert.False(t, ok)

	_, err := client.ProbeHealth(context.Background())
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrTypeStatus, ce.Type)
	assert.Equal(t, http.StatusServiceUnavailable, ce.StatusCode)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestCheckHealth_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>nginx</html>`)
	}))

	_, err := client.ProbeHealth(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCheckHealth_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Options{BaseURL: url, HealthTimeout: time.Second})
	_, err := client.ProbeHealth(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCheckHealth_CachesSuccess(t *testing.T) {
	var hits atomic.Int32
	clock := newFakeClock()
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"documents": 10}`)
	}), func(o *Options) { o.now = clock.Now })

	ctx := context.Background()
	_, ok := client.CheckHealth(ctx)
	require.True(t, ok)
	_, ok = client.CheckHealth(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 1, hits.Load(), "second check should be served from cache")

	clock.Advance(31 * time.Second)
	_, ok = client.CheckHealth(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 2, hits.Load(), "expired cache must re-probe")

	_, err := client.ProbeHealth(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, hits.Load(), "ProbeHealth always reaches the backend")
}

func TestCheckHealth_FailuresNotCached(t *testing.T) {
	var up atomic.Bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"documents": 3}`)
	}))

	_, ok := client.CheckHealth(context.Background())
	require.False(t, ok)

	up.Store(true)
	status, ok := client.CheckHealth(context.Background())
	require.True(t, ok)
	assert.Equal(t, 3, status.Documents)
}

func TestSetBaseURL_InvalidatesCache(t *testing.T) {
	var hits atomic.Int32
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"documents": 1}`)
	}))

	client.CheckHealth(context.Background())
	client.SetBaseURL(server.URL + "/")
	client.CheckHealth(context.Background())
	assert.EqualValues(t, 1, hits.Load(), "same URL modulo slash keeps the cache")

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"documents": 2}`)
	}))
	defer other.Close()

	client.SetBaseURL(other.URL)
	status, ok := client.CheckHealth(context.Background())
	require.True(t, ok)
	assert.Equal(t, 2, status.Documents)
	assert.Equal(t, other.URL+"/ask", client.AskURL())
}

// =============================================================================
// RETRY TESTS
// =============================================================================

func TestProbeHealth_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"documents": 1696}`)
	}), func(o *Options) {
		o.Retry = RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	})

	status, err := client.ProbeHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1696, status.Documents)
	assert.EqualValues(t, 3, hits.Load())
}

func TestProbeHealth_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}), func(o *Options) {
		o.Retry = RetryPolicy{MaxRetries: 5, InitialInterval: time.Millisecond}
	})

	_, err := client.ProbeHealth(context.Background())
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.EqualValues(t, 1, hits.Load())
}

func TestProbeHealth_NoRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.ProbeHealth(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAsk_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req model.AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is the pressure limit?", req.Question)
		assert.Equal(t, "sid-1", req.SessionID)

		io.WriteString(w, `{"answer": {"summary": "Max 1.6 MPa", "details": ["- See clause 4.2"], "standards": [], "note": "✓ Verified"}}`)
	}))

	res := client.Ask(context.Background(), "What is the pressure limit?", "sid-1")
	require.False(t, res.IsError(), res.Error())
	assert.Equal(t, "Max 1.6 MPa", res.Answer.Summary)
	assert.Equal(t, []string{"- See clause 4.2"}, res.Answer.Details)
	assert.Empty(t, res.Answer.Standards)
	assert.Equal(t, "✓ Verified", res.Answer.Note)
}

func TestAsk_Status500(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	res := client.Ask(context.Background(), "q", "sid")
	require.True(t, res.IsError())
	assert.Nil(t, res.Answer)
	assert.Equal(t, "API error: 500", res.Error())
}

func TestAsk_Timeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(blockUntilCanceled), func(o *Options) {
		o.AskTimeout = 50 * time.Millisecond
	})

	res := client.Ask(context.Background(), "q", "sid")
	require.True(t, res.IsError())
	assert.Contains(t, res.Error(), "timed out")
}

func TestAsk_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	res := NewClient(Options{BaseURL: url}).Ask(context.Background(), "q", "sid")
	require.True(t, res.IsError())
	assert.Contains(t, res.Error(), "could not reach backend")
}

func TestAsk_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"answer": {"summary": `)
	}))

	res := client.Ask(context.Background(), "q", "sid")
	require.True(t, res.IsError())
	assert.Contains(t, res.Error(), "malformed response")
}

func TestAsk_MissingAnswerDegradesToEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))

	res := client.Ask(context.Background(), "q", "sid")
	require.False(t, res.IsError())
	assert.Equal(t, "", res.Answer.Summary)
}

func TestAsk_EmptyQuestionSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	res := client.Ask(context.Background(), "   \n", "sid")
	assert.True(t, res.IsError())
	assert.EqualValues(t, 0, hits.Load())
}

func TestAsk_NormalizesQuestion(t *testing.T) {
	var got string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.AskRequest
		json.NewDecoder(r.Body).Decode(&req)
		got = req.Question
		io.WriteString(w, `{"answer": {"summary": "ok"}}`)
	}))

	// "е" + combining diaeresis composes to "ё".
	client.Ask(context.Background(), "  Трубопрове\u0308д  ", "sid")
	assert.Equal(t, "Трубопров\u0451д", got)
}

// Every server behavior must produce exactly one side of the result.
func TestAsk_AlwaysWellFormed(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"ok": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"answer": {"summary": "s"}}`)
		},
		"404": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
		"502": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "\x00\x01not json")
		},
		"wrong types": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"answer": {"summary": 42, "details": "x"}}`)
		},
		"null answer": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"answer": null}`)
		},
		"hijacked": func(w http.ResponseWriter, r *http.Request) {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
		},
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, h)
			res := client.Ask(context.Background(), "q", "sid")
			if res.IsError() {
				assert.Nil(t, res.Answer)
				assert.NotEmpty(t, res.Error())
			} else {
				assert.NotNil(t, res.Answer)
				assert.Empty(t, res.Err)
			}
		})
	}
}

func TestAsk_ObserverReceivesEvents(t *testing.T) {
	var events []AskEvent
	var mu sync.Mutex
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), func(o *Options) {
		o.OnAsk = func(ev AskEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
	})

	client.Ask(context.Background(), "first", "sid-9")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "sid-9", events[0].SessionID)
	assert.Equal(t, "first", events[0].Question)
	assert.Equal(t, http.StatusTeapot, events[0].StatusCode)
	assert.True(t, events[0].Result.IsError())
}

func TestAsk_ObserverPanicDoesNotEscape(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"answer": {"summary": "fine"}}`)
	}), func(o *Options) {
		o.OnAsk = func(AskEvent) { panic("observer bug") }
	})

	res := client.Ask(context.Background(), "q", "sid")
	assert.False(t, res.IsError())
}

// =============================================================================
// OPTIONS
// =============================================================================

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Host = "10.1.2.3"
	cfg.Health.Retries = 2

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "http://10.1.2.3:8001", opts.BaseURL)
	assert.Equal(t, 10*time.Second, opts.HealthTimeout)
	assert.Equal(t, 60*time.Second, opts.AskTimeout)
	assert.Equal(t, 30*time.Second, opts.HealthCacheTTL)
	assert.Equal(t, 2, opts.Retry.MaxRetries)

	client := NewClient(opts)
	assert.Equal(t, "http://10.1.2.3:8001/health", client.HealthURL())
	assert.Equal(t, "http://10.1.2.3:8001/ask", client.AskURL())
}

func TestClientError_UserMessage(t *testing.T) {
	tests := []struct {
		err  *ClientError
		want string
	}{
		{&ClientError{Type: ErrTypeStatus, StatusCode: 500}, "API error: 500"},
		{&ClientError{Type: ErrTypeTimeout, Timeout: 60 * time.Second}, "request timed out after 1m0s"},
		{&ClientError{Type: ErrTypeConnection, Cause: errors.New("refused")}, "could not reach backend: refused"},
		{&ClientError{Type: ErrTypeDecode}, "malformed response from backend"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.UserMessage())
	}
}
