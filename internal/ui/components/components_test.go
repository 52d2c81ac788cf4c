// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stdqa/internal/ui/styles"
)

func testTheme() *styles.Theme {
	styles.DisableColor()
	return styles.NewTheme("dark")
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestConnectionString(t *testing.T) {
	tests := []struct {
		c    Connection
		want string
	}{
		{ConnectionChecking, "CHECKING"},
		{ConnectionUp, "CONNECTED"},
		{ConnectionDown, "DOWN"},
		{Connection(99), "UNKNOWN"},
	}
	for _, tc := range tests {
		if got := tc.c.String(); got != tc.want {
			t.Errorf("Connection(%d).String() = %q, want %q", tc.c, got, tc.want)
		}
	}
}

func TestHeaderStatusText(t *testing.T) {
	h := NewHeader(testTheme())
	h.Address = "10.0.0.5:8001"

	if got := h.StatusText(); !strings.Contains(got, "10.0.0.5:8001") {
		t.Errorf("checking status = %q, want address", got)
	}

	h.SetConnected(1696)
	if got := h.StatusText(); !strings.Contains(got, "Connected, 1696 documents") {
		t.Errorf("connected status = %q", got)
	}

	h.SetDown()
	if got := h.StatusText(); !strings.Contains(got, "not responding") {
		t.Errorf("down status = %q", got)
	}
}

func TestHeaderViewFitsWidth(t *testing.T) {
	h := NewHeader(testTheme())
	h.Address = "10.0.0.5:8001"
	h.SetConnected(12)

	for _, w := range []int{40, 80, 120} {
		h.SetWidth(w)
		view := h.View()
		for _, line := range strings.Split(view, "\n") {
			if lipgloss.Width(line) > w {
				t.Errorf("width %d: line %q is %d wide", w, line, lipgloss.Width(line))
			}
		}
		if !strings.Contains(view, "12 documents") {
			t.Errorf("width %d: view missing status: %q", w, view)
		}
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	if StatusReady.String() != "Ready" {
		t.Errorf("StatusReady = %q", StatusReady.String())
	}
	if Status(42).String() != "Unknown" {
		t.Errorf("unknown status = %q", Status(42).String())
	}
}

func TestStatusBarDropsShortcutsWhenNarrow(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.SetStatus(StatusReady)
	s.Shortcuts = []Shortcut{
		{Key: "enter", Desc: "send"},
		{Key: "ctrl+n", Desc: "new session"},
		{Key: "ctrl+s", Desc: "export"},
	}

	s.SetWidth(120)
	wide := s.View()
	if !strings.Contains(wide, "export") {
		t.Errorf("wide bar should show all shortcuts: %q", wide)
	}

	s.SetWidth(30)
	narrow := s.View()
	if strings.Contains(narrow, "export") {
		t.Errorf("narrow bar should drop trailing shortcuts: %q", narrow)
	}
	if lipgloss.Width(narrow) > 30 {
		t.Errorf("narrow bar is %d wide", lipgloss.Width(narrow))
	}
}

func TestStatusBarToast(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.SetWidth(100)
	s.SetToast("Copied to clipboard")
	if !strings.Contains(s.View(), "Copied to clipboard") {
		t.Error("toast not rendered")
	}
	s.SetToast("")
	if strings.Contains(s.View(), "Copied") {
		t.Error("toast not cleared")
	}
}

// =============================================================================
// SIDE PANEL TESTS
// =============================================================================

func TestSidePanelView(t *testing.T) {
	p := NewSidePanel(testTheme())
	p.SetFields(
		Field{Label: "Backend", Value: "95.163.255.123:8001"},
		Field{Label: "Session", Value: "0f8fad5b..."},
	)
	p.Actions = []Shortcut{{Key: "ctrl+n", Desc: "new session"}}

	view := p.View()
	for _, want := range []string{"Backend", "95.163.255.123:8001", "0f8fad5b...", "new session"} {
		if !strings.Contains(view, want) {
			t.Errorf("side panel missing %q:\n%s", want, view)
		}
	}
	if w := lipgloss.Width(view); w > SidePanelWidth {
		t.Errorf("side panel is %d wide, want <= %d", w, SidePanelWidth)
	}
}

// =============================================================================
// DIAGNOSTIC TESTS
// =============================================================================

func TestDiagnosticBackendDown(t *testing.T) {
	d := NewDiagnostic(testTheme())
	d.BackendDown("95.163.255.123", "8001", "request timed out after 10s")
	d.SetSize(100, 40)

	if d.Command() != "curl http://localhost:8001/health" {
		t.Errorf("Command() = %q", d.Command())
	}

	view := d.View()
	for _, want := range []string{
		"95.163.255.123",
		"8001",
		"curl http://localhost:8001/health",
		"request timed out after 10s",
		"retry",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("diagnostic missing %q:\n%s", want, view)
		}
	}
}

func TestDiagnosticToast(t *testing.T) {
	d := NewDiagnostic(testTheme())
	d.BackendDown("h", "8001", "")
	d.SetToast("Please wait before retrying")
	if !strings.Contains(d.View(), "Please wait before retrying") {
		t.Error("toast not rendered")
	}
}
