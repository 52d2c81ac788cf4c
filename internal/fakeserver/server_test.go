// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fakeserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/stdqa/internal/api"
)

func newTestClient(t *testing.T, opts Options) (*api.Client, *Server) {
	t.Helper()
	opts.Logger = zerolog.Nop()
	s := New(opts)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	client := api.NewClient(api.Options{
		BaseURL:       srv.URL,
		HealthTimeout: 2 * time.Second,
		AskTimeout:    2 * time.Second,
		Logger:        zerolog.Nop(),
	})
	return client, s
}

func TestHealth(t *testing.T) {
	client, _ := newTestClient(t, Options{})

	status, err := client.ProbeHealth(context.Background())
	if err != nil {
		t.Fatalf("ProbeHealth failed: %v", err)
	}
	if status.Documents != DefaultDocuments {
		t.Errorf("documents = %d, want %d", status.Documents, DefaultDocuments)
	}
}

func TestAsk_CannedAnswer(t *testing.T) {
	client, s := newTestClient(t, Options{})

	res := client.Ask(context.Background(), "How wide must an evacuation exit be?", "sess-1")
	if res.IsError() {
		t.Fatalf("unexpected error: %s", res.Error())
	}
	if len(res.Answer.Standards) != 2 || res.Answer.Standards[0].Section != "4.2.5" {
		t.Errorf("unexpected standards: %+v", res.Answer.Standards)
	}
	if s.SessionQuestions("sess-1") != 1 {
		t.Errorf("session count = %d, want 1", s.SessionQuestions("sess-1"))
	}
}

func TestAsk_Fallback(t *testing.T) {
	answer := Lookup("what colour is the sky")
	if len(answer.Standards) != 0 || answer.Summary == "" {
		t.Errorf("unexpected fallback: %+v", answer)
	}
}

func TestAsk_FailEvery(t *testing.T) {
	client, _ := newTestClient(t, Options{FailEvery: 2})

	first := client.Ask(context.Background(), "rebar cover", "s")
	second := client.Ask(context.Background(), "rebar cover", "s")

	if first.IsError() {
		t.Fatalf("first ask should succeed: %s", first.Error())
	}
	if !second.IsError() || !strings.Contains(second.Error(), "500") {
		t.Errorf("second ask should fail with 500, got %+v", second)
	}
}

func TestAsk_EmptyQuestionRejected(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"  ","session_id":"s"}`))
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}
