// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/stdqa/internal/api"
	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/model"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeBackend struct {
	healthErr error
	probes    int
	asked     []string
	sessions  []string
	result    model.Result
}

func (f *fakeBackend) BaseURL() string { return "http://127.0.0.1:8001" }

func (f *fakeBackend) ProbeHealth(ctx context.Context) (*model.HealthStatus, error) {
	f.probes++
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &model.HealthStatus{Documents: 1696}, nil
}

func (f *fakeBackend) Ask(ctx context.Context, question, sessionID string) model.Result {
	f.asked = append(f.asked, question)
	f.sessions = append(f.sessions, sessionID)
	return f.result
}

// scriptedInput replays lines, then reports end of input.
type scriptedInput struct {
	lines []string
}

func (s *scriptedInput) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) Close() error { return nil }

func newTestREPL(t *testing.T, backend *fakeBackend) (*repl, *bytes.Buffer) {
	t.Helper()
	ForceColorsEnabled(false)
	var out bytes.Buffer
	a := newApp(&out, &out)
	a.cfg = config.Default()
	r := a.newREPL(backend, &out)
	r.exportDir = t.TempDir()
	return r, &out
}

func okResult(summary string) model.Result {
	return model.OK(&model.AnswerPayload{
		Summary:   summary,
		Standards: []model.Standard{{Name: "SP 1.13130", Section: "4.2.5"}},
	})
}

// =============================================================================
// REPL TESTS
// =============================================================================

func TestREPL_BackendDownExits(t *testing.T) {
	backend := &fakeBackend{healthErr: &api.ClientError{Type: api.ErrTypeTimeout, Op: "health", Message: "timed out"}}
	r, out := newTestREPL(t, backend)

	err := r.run(context.Background(), &scriptedInput{lines: []string{"hello"}})
	if !isExit(err, 1) {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if len(backend.asked) != 0 {
		t.Error("no question may be sent while the backend is down")
	}
	if !strings.Contains(out.String(), "is not responding") {
		t.Errorf("expected diagnostic, got:\n%s", out.String())
	}
}

func TestREPL_AsksInOneSession(t *testing.T) {
	backend := &fakeBackend{result: okResult("Exits must be 1.2 m wide.")}
	r, out := newTestREPL(t, backend)

	err := r.run(context.Background(), &scriptedInput{lines: []string{"exit width?", "", "and doors?"}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(backend.asked) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(backend.asked))
	}
	if backend.sessions[0] != backend.sessions[1] || backend.sessions[0] == "" {
		t.Errorf("questions must share one session id: %v", backend.sessions)
	}
	if r.session.Len() != 4 {
		t.Errorf("expected 4 turns, got %d", r.session.Len())
	}
	if !strings.Contains(out.String(), "Exits must be 1.2 m wide.") {
		t.Errorf("answer not printed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "2 question(s)") {
		t.Errorf("summary not printed:\n%s", out.String())
	}
}

func TestREPL_ErrorResultKeepsGoing(t *testing.T) {
	backend := &fakeBackend{result: model.Failure("API error: 500")}
	r, out := newTestREPL(t, backend)

	if err := r.run(context.Background(), &scriptedInput{lines: []string{"q1", "q2"}}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(backend.asked) != 2 {
		t.Errorf("expected both questions sent, got %d", len(backend.asked))
	}
	if !strings.Contains(out.String(), "❌ API error: 500") {
		t.Errorf("expected error line:\n%s", out.String())
	}
}

func TestREPL_NewSessionChangesID(t *testing.T) {
	backend := &fakeBackend{result: okResult("ok")}
	r, _ := newTestREPL(t, backend)

	err := r.run(context.Background(), &scriptedInput{lines: []string{"first", "/new", "second", "/quit", "never"}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(backend.asked) != 2 {
		t.Fatalf("expected 2 questions before /quit, got %d", len(backend.asked))
	}
	if backend.sessions[0] == backend.sessions[1] {
		t.Error("/new must start a new session id")
	}
	if r.session.Len() != 2 {
		t.Errorf("transcript should hold only the new session, got %d turns", r.session.Len())
	}
}

func TestREPL_UnknownSlashIsAQuestion(t *testing.T) {
	backend := &fakeBackend{result: okResult("ok")}
	r, _ := newTestREPL(t, backend)
	r.session.Init()

	if quit := r.handleLine(context.Background(), "/etc/fstab format?"); quit {
		t.Fatal("unknown slash command must not quit")
	}
	if len(backend.asked) != 1 || backend.asked[0] != "/etc/fstab format?" {
		t.Errorf("expected the line to be asked, got %v", backend.asked)
	}
}

func TestREPL_HealthIsRateLimited(t *testing.T) {
	backend := &fakeBackend{}
	r, out := newTestREPL(t, backend)
	r.session.Init()

	r.handleLine(context.Background(), "/health")
	r.handleLine(context.Background(), "/health")

	if backend.probes != 1 {
		t.Errorf("expected 1 probe, got %d", backend.probes)
	}
	if !strings.Contains(out.String(), "Please wait a moment") {
		t.Errorf("expected throttle notice:\n%s", out.String())
	}
}

func TestREPL_Export(t *testing.T) {
	backend := &fakeBackend{result: okResult("Exits must be 1.2 m wide.")}
	r, out := newTestREPL(t, backend)
	r.session.Init()

	r.handleLine(context.Background(), "/export")
	if !strings.Contains(out.String(), "Nothing to export") {
		t.Errorf("expected empty notice:\n%s", out.String())
	}

	r.handleLine(context.Background(), "exit width?")
	target := filepath.Join(t.TempDir(), "chat.json")
	r.handleLine(context.Background(), "/export "+target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	if !strings.Contains(string(data), "Exits must be 1.2 m wide.") {
		t.Errorf("export missing answer:\n%s", data)
	}
}

func TestREPL_Copy(t *testing.T) {
	backend := &fakeBackend{result: okResult("Exits must be 1.2 m wide.")}
	r, out := newTestREPL(t, backend)
	r.session.Init()

	var copied string
	r.clipboard = func(s string) error {
		copied = s
		return nil
	}

	r.handleLine(context.Background(), "/copy")
	if copied != "" || !strings.Contains(out.String(), "No answer to copy") {
		t.Error("copy before any answer must be refused")
	}

	r.handleLine(context.Background(), "exit width?")
	r.handleLine(context.Background(), "/copy")
	if !strings.Contains(copied, "Exits must be 1.2 m wide.") || !strings.Contains(copied, "SP 1.13130") {
		t.Errorf("unexpected clipboard text: %q", copied)
	}

	r.clipboard = func(string) error { return errors.New("no clipboard") }
	r.handleLine(context.Background(), "/copy")
	if !strings.Contains(out.String(), "Copy failed: no clipboard") {
		t.Errorf("expected copy failure:\n%s", out.String())
	}
}
