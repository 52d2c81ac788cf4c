// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/render"
	"github.com/jeranaias/stdqa/internal/ui/components"
	"github.com/jeranaias/stdqa/internal/ui/styles"
)

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.state {
	case StateUninitialized:
		return m.viewConnecting()
	case StateBlocked:
		return m.diagnostic.View()
	}
	return m.viewChat()
}

func (m Model) viewConnecting() string {
	line := m.spinner.View() + " " +
		m.theme.ThinkingText.Render("Checking backend at "+m.cfg.Address()+"...")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, line)
}

func (m Model) viewChat() string {
	body := m.viewport.View()
	if m.showSidePanel() {
		m.updateSidePanel()
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.sidePanel.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.renderInput(),
		m.statusBar.View(),
	)
}

func (m Model) renderInput() string {
	var line string
	if m.state == StateAwaitingAnswer {
		line = m.spinner.View() + " " +
			m.theme.ThinkingText.Render("Sending request to "+m.cfg.Backend.Host+"...")
	} else {
		line = m.input.View()
	}
	return m.theme.InputContainer.Width(m.width).Render(line)
}

func (m Model) updateSidePanel() {
	m.sidePanel.SetFields(
		components.Field{Label: "Backend", Value: m.cfg.Address()},
		components.Field{Label: "Session", Value: m.session.ShortID()},
		components.Field{Label: "Documents", Value: m.documentsLabel()},
		components.Field{Label: "Turns", Value: strconv.Itoa(m.session.Len())},
	)
}

func (m Model) documentsLabel() string {
	if m.header.Connection != components.ConnectionUp {
		return "-"
	}
	return strconv.Itoa(m.header.Documents)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	turns := m.session.Transcript()
	width := m.viewport.Width

	var parts []string
	if len(turns) == 0 {
		parts = append(parts, m.renderWelcome())
	}
	for i, turn := range turns {
		out, ok := m.rendered[i]
		if !ok {
			out = m.renderTurn(turn, width)
			m.rendered[i] = out
		}
		parts = append(parts, out)
	}
	if m.showHelp {
		parts = append(parts, m.renderHelp())
	}

	m.viewport.SetContent(strings.Join(parts, "\n\n"))
}

func (m *Model) renderTurn(turn model.ChatTurn, width int) string {
	bubbleWidth := width - 2
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	stamp := m.theme.Timestamp.Render(" " + turn.Timestamp.Format("15:04"))

	if turn.Role == model.RoleUser {
		label := m.theme.UserLabel.Render(turn.Role.DisplayName()) + stamp
		return label + "\n" + m.theme.UserBubble.Width(bubbleWidth).Render(turn.Content)
	}

	label := m.theme.AssistantLabel.Render(turn.Role.DisplayName()) + stamp
	switch {
	case turn.IsError:
		return label + "\n" + m.theme.ErrorTurn.Width(bubbleWidth).Render(turn.Content)
	case turn.Answer == nil:
		return label + "\n" + m.theme.AssistantBubble.Width(bubbleWidth).Render(turn.Content)
	}

	view := render.BuildAnswerView(turn.Answer)
	body := m.renderer.Render(render.Markdown(view, m.cfg.UI.ShowDetails))
	out := label + "\n" + m.theme.AssistantBubble.Width(bubbleWidth).Render(body)
	if view.Note != "" {
		note := m.theme.NoteStyle(view.NoteSeverity).
			Width(bubbleWidth).
			Render(styles.NoteIcon(view.NoteSeverity) + " " + view.Note)
		out += "\n" + note
	}
	return out
}

func (m *Model) renderWelcome() string {
	lines := []string{
		m.theme.HeaderTitle.Render("Ask about the standards documentation"),
		m.theme.Muted.Render("Answers cite the standard and clause they come from."),
		m.theme.Muted.Render("Session " + m.session.ShortID()),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHelp() string {
	var rows []string
	rows = append(rows, m.theme.SidePanelTitle.Render("Keys"))
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			rows = append(rows, helpRow(m.theme, b))
		}
	}
	rows = append(rows, "",
		m.theme.SidePanelTitle.Render("Commands"),
		m.theme.Muted.Render("/new  /export  /copy  /health  /help  /quit"),
	)
	return strings.Join(rows, "\n")
}

func helpRow(theme *styles.Theme, b key.Binding) string {
	h := b.Help()
	return "  " + theme.ShortcutKey.Render(padKey(h.Key)) + theme.ShortcutDesc.Render(h.Desc)
}

func padKey(k string) string {
	const col = 12
	if len(k) >= col {
		return k + " "
	}
	return k + strings.Repeat(" ", col-len(k))
}
