// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stdqa/internal/ui/styles"
)

// =============================================================================
// DIAGNOSTIC
// =============================================================================

// Diagnostic is the full-screen box shown instead of the chat when the
// backend cannot be reached.
type Diagnostic struct {
	title   string
	message string
	cause   string
	fields  []Field
	command string
	hints   []string
	actions []Shortcut
	toast   string

	width  int
	height int
	theme  *styles.Theme
}

// NewDiagnostic creates an empty diagnostic.
func NewDiagnostic(theme *styles.Theme) *Diagnostic {
	return &Diagnostic{theme: theme}
}

// BackendDown fills the diagnostic for an unreachable backend at host:port.
// cause is the probe error, may be empty.
func (d *Diagnostic) BackendDown(host, port, cause string) {
	d.title = "Server " + host + " is not responding"
	d.message = "The question-answering backend did not answer its health check, so chat is disabled."
	d.cause = cause
	d.fields = []Field{
		{Label: "Server", Value: host},
		{Label: "Port", Value: port},
	}
	d.command = "curl http://localhost:" + port + "/health"
	d.hints = []string{
		"Run the command above on the server to confirm the service is up",
		"Make sure port " + port + " is open to this machine",
		"Edit the config file or STDQA_BACKEND_HOST to point at another host",
	}
	d.actions = []Shortcut{
		{Key: "r", Desc: "retry"},
		{Key: "q", Desc: "quit"},
	}
}

// SetSize records the screen size used to center the box.
func (d *Diagnostic) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// SetToast shows a short status line under the actions.
func (d *Diagnostic) SetToast(msg string) {
	d.toast = msg
}

// Title returns the headline.
func (d *Diagnostic) Title() string { return d.title }

// Command returns the suggested check command.
func (d *Diagnostic) Command() string { return d.command }

// View renders the box centered on screen.
func (d *Diagnostic) View() string {
	width := d.width
	if width == 0 {
		width = 80
	}
	maxWidth := width - 8
	if maxWidth < 30 {
		maxWidth = 30
	}
	if maxWidth > 80 {
		maxWidth = 80
	}
	textWidth := maxWidth - 6

	var parts []string
	parts = append(parts, d.theme.DiagnosticTitle.Render("❌ "+d.title), "")

	if d.message != "" {
		parts = append(parts, d.theme.DiagnosticBody.Width(textWidth).Render(d.message), "")
	}
	if d.cause != "" {
		parts = append(parts,
			d.theme.Muted.Italic(true).Width(textWidth).Render(d.cause), "")
	}

	if len(d.fields) > 0 || d.command != "" {
		parts = append(parts, d.theme.DiagnosticHint.Bold(true).Render("🔧 For the administrator:"))
		for _, f := range d.fields {
			parts = append(parts, "  "+d.theme.DiagnosticHint.Render(f.Label+": ")+d.theme.Code.Render(f.Value))
		}
		if d.command != "" {
			parts = append(parts, "  "+d.theme.DiagnosticHint.Render("Command: ")+d.theme.Code.Render(d.command))
		}
		parts = append(parts, "")
	}

	for _, h := range d.hints {
		parts = append(parts, d.theme.DiagnosticHint.Width(textWidth).Render("  * "+h))
	}
	if len(d.hints) > 0 {
		parts = append(parts, "")
	}

	if len(d.actions) > 0 {
		var acts []string
		for _, a := range d.actions {
			acts = append(acts, d.theme.ShortcutKey.Render("["+a.Key+"]")+" "+d.theme.ShortcutDesc.Render(a.Desc))
		}
		parts = append(parts, strings.Join(acts, "    "))
	}
	if d.toast != "" {
		parts = append(parts, d.theme.Toast.Render(d.toast))
	}

	box := d.theme.DiagnosticBox.Width(maxWidth).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	if d.height > 0 {
		return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
