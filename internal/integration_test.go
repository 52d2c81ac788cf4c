// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal holds end-to-end tests that run the client packages
// together against the fake backend.
package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/stdqa/internal/api"
	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/export"
	"github.com/jeranaias/stdqa/internal/fakeserver"
	"github.com/jeranaias/stdqa/internal/session"
	"github.com/jeranaias/stdqa/internal/storage"
	"github.com/jeranaias/stdqa/internal/ui/chat"
	"github.com/jeranaias/stdqa/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// switchableBackend serves the fake backend, or 503 on every path while down.
type switchableBackend struct {
	down atomic.Bool
	next http.Handler
}

func (s *switchableBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.down.Load() {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
		return
	}
	s.next.ServeHTTP(w, r)
}

func startBackend(t *testing.T) (*httptest.Server, *switchableBackend) {
	t.Helper()
	sb := &switchableBackend{next: fakeserver.New(fakeserver.Options{Logger: zerolog.Nop()}).Router()}
	srv := httptest.NewServer(sb)
	t.Cleanup(srv.Close)
	return srv, sb
}

func newClient(baseURL string, onAsk func(api.AskEvent)) *api.Client {
	return api.NewClient(api.Options{
		BaseURL:        baseURL,
		HealthTimeout:  2 * time.Second,
		AskTimeout:     2 * time.Second,
		HealthCacheTTL: time.Minute,
		Logger:         zerolog.Nop(),
		OnAsk:          onAsk,
	})
}

func newChatModel(t *testing.T, client *api.Client) chat.Model {
	t.Helper()
	styles.DisableColor()
	cfg := config.Default()
	cfg.UI.GlamourStyle = "notty"

	m := chat.New(chat.Options{
		Config:          cfg,
		Backend:         client,
		Session:         session.NewManager(),
		Theme:           styles.NewTheme("dark"),
		Logger:          zerolog.Nop(),
		ExportDir:       t.TempDir(),
		Clipboard:       func(string) error { return nil },
		ReprobeInterval: time.Millisecond,
		RefreshInterval: -1,
	})
	m.Init()
	return update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(m chat.Model, msg tea.Msg) chat.Model {
	next, _ := m.Update(msg)
	return next.(chat.Model)
}

// =============================================================================
// END-TO-END CHAT TESTS
// =============================================================================

// TestEndToEnd_AskThroughChat drives the chat model with a real client against
// the fake backend: probe, type, submit, answer, export.
func TestEndToEnd_AskThroughChat(t *testing.T) {
	srv, _ := startBackend(t)
	client := newClient(srv.URL, nil)
	m := newChatModel(t, client)
	ctx := context.Background()

	m = update(m, chat.ProbeHealthCmd(ctx, client)())
	if m.State() != chat.StateReady {
		t.Fatalf("state = %v, want ready", m.State())
	}
	if !strings.Contains(m.View(), "Connected, 1696 documents") {
		t.Errorf("header should show the document count:\n%s", m.View())
	}

	question := "How wide must an evacuation exit be?"
	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(question)})
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.State() != chat.StateAwaitingAnswer {
		t.Fatalf("state after submit = %v, want awaiting", m.State())
	}

	m = update(m, chat.AskCmd(ctx, client, question, m.Session().SessionID())())
	if m.State() != chat.StateReady {
		t.Fatalf("state after answer = %v, want ready", m.State())
	}

	turns := m.Session().Transcript()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != question || turns[1].Answer == nil {
		t.Fatalf("unexpected transcript: %+v", turns)
	}
	if turns[1].Answer.Standards[0].Name != "SP 1.13130.2020" {
		t.Errorf("unexpected standard: %+v", turns[1].Answer.Standards[0])
	}

	dir := t.TempDir()
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	path, err := export.ToFile(export.Transcript{
		SessionID: m.Session().SessionID(),
		Backend:   srv.URL,
		StartedAt: m.Session().StartTime(),
		Turns:     turns,
	}, export.NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Clause 4.2.5") {
		t.Errorf("export missing clause:\n%s", data)
	}
}

// TestEndToEnd_BlockedUntilBackendRecovers verifies the blocked diagnostic
// and the manual retry once the backend is back.
func TestEndToEnd_BlockedUntilBackendRecovers(t *testing.T) {
	srv, sb := startBackend(t)
	sb.down.Store(true)
	client := newClient(srv.URL, nil)
	m := newChatModel(t, client)
	ctx := context.Background()

	m = update(m, chat.ProbeHealthCmd(ctx, client)())
	if m.State() != chat.StateBlocked {
		t.Fatalf("state = %v, want blocked", m.State())
	}
	if !strings.Contains(m.View(), "is not responding") {
		t.Errorf("expected diagnostic:\n%s", m.View())
	}

	sb.down.Store(false)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(chat.Model)
	if cmd == nil {
		t.Fatal("retry should start a probe")
	}
	m = update(m, cmd())
	if m.State() != chat.StateReady || !m.InputEnabled() {
		t.Fatalf("state = %v, want ready with input enabled", m.State())
	}
}

// TestEndToEnd_ServerErrorBecomesErrorTurn checks the path from a 500 to the
// "❌ API error: 500" transcript entry.
func TestEndToEnd_ServerErrorBecomesErrorTurn(t *testing.T) {
	s := fakeserver.New(fakeserver.Options{FailEvery: 1, Logger: zerolog.Nop()})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	client := newClient(srv.URL, nil)
	res := client.Ask(context.Background(), "rebar cover", "s-1")
	if !res.IsError() || res.Error() != "API error: 500" {
		t.Fatalf("expected API error, got %+v", res)
	}

	turn := session.AnswerTurn(res)
	if !turn.IsError || turn.Content != "❌ API error: 500" {
		t.Errorf("unexpected error turn: %+v", turn)
	}
}

// =============================================================================
// JOURNAL INTEGRATION
// =============================================================================

func TestEndToEnd_JournalRecordsAsks(t *testing.T) {
	srv, _ := startBackend(t)
	j, err := storage.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	client := newClient(srv.URL, func(ev api.AskEvent) {
		e := storage.Entry{
			At:        ev.At,
			SessionID: ev.SessionID,
			Question:  ev.Question,
			OK:        !ev.Result.IsError(),
			Latency:   ev.Latency,
		}
		if ev.Result.IsError() {
			e.Error = ev.Result.Error()
		} else {
			e.Summary = ev.Result.Answer.Summary
		}
		if err := j.Record(context.Background(), e); err != nil {
			t.Errorf("record: %v", err)
		}
	})

	client.Ask(context.Background(), "stair rise", "s-1")
	client.Ask(context.Background(), "rebar cover", "s-1")

	entries, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Question != "rebar cover" {
		t.Errorf("newest entry = %q, want rebar cover", entries[0].Question)
	}
	if !entries[1].OK || !strings.Contains(entries[1].Summary, "0.22 m") {
		t.Errorf("unexpected entry: %+v", entries[1])
	}
}

// =============================================================================
// CONFIG INTEGRATION
// =============================================================================

func TestConfigLoadSave(t *testing.T) {
	t.Setenv("STDQA_BACKEND_HOST", "")
	t.Setenv("SELECTEL_IP", "")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := config.Default()
	cfg.Backend.Host = "qa.internal"
	cfg.Backend.Port = 9001
	cfg.UI.ShowDetails = false
	if err := config.SaveTOML(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.BaseURL() != "http://qa.internal:9001" {
		t.Errorf("BaseURL() = %q", loaded.BaseURL())
	}
	if loaded.UI.ShowDetails {
		t.Error("show_details should round-trip as false")
	}

	// The client follows a reloaded config without being rebuilt.
	client := newClient(config.Default().BaseURL(), nil)
	client.SetBaseURL(loaded.BaseURL())
	if client.BaseURL() != "http://qa.internal:9001" {
		t.Errorf("client BaseURL() = %q", client.BaseURL())
	}
}
