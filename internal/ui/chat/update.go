// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/stdqa/internal/api"
	"github.com/jeranaias/stdqa/internal/export"
	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/render"
	"github.com/jeranaias/stdqa/internal/ui/components"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case HealthMsg:
		return m.handleHealth(msg)

	case AnswerMsg:
		return m.handleAnswer(msg)

	case ConfigChangedMsg:
		return m.handleConfigChanged(msg)

	case ConfigWatchErrorMsg:
		m.log.Warn().Err(msg.Err).Msg("config watch error")
		return m, WaitForConfigChange(m.watcher)

	case ExportedMsg:
		if msg.Err != nil {
			m.log.Error().Err(msg.Err).Msg("export failed")
			if errors.Is(msg.Err, export.ErrEmptyTranscript) {
				return m.withToast("Nothing to export yet")
			}
			return m.withToast("Export failed: " + msg.Err.Error())
		}
		m.log.Info().Str("path", msg.Path).Msg("transcript exported")
		return m.withToast("Exported to " + msg.Path)

	case CopiedMsg:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Msg("clipboard copy failed")
			return m.withToast("Clipboard unavailable")
		}
		return m.withToast("Copied last answer to clipboard")

	case refreshTickMsg:
		if m.state != StateReady && m.state != StateAwaitingAnswer {
			return m, nil
		}
		return m, tea.Batch(RefreshHealthCmd(m.ctx, m.backend), refreshTickCmd(m.refresh))

	case clearToastMsg:
		if msg.id == m.toastID {
			m.statusBar.SetToast("")
			m.diagnostic.SetToast("")
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

// Layout heights; keep in sync with View.
const (
	headerHeight    = 2 // title line + bottom border
	inputAreaHeight = 2 // top border + input line
	statusBarHeight = 1
	sidePanelMinW   = 100
)

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := m.width
	if m.showSidePanel() {
		vpWidth -= components.SidePanelWidth
	}
	if vpWidth < 1 {
		vpWidth = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight

	// Input line has Padding(0, 1) and the "> " prompt.
	inputWidth := m.width - 4 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.sidePanel.Height = vpHeight
	m.diagnostic.SetSize(m.width, m.height)

	// Bubble border + padding take 2 columns, keep 2 spare.
	m.renderer.SetWidth(vpWidth - 4)
	m.rendered = make(map[int]string)
	m.refreshViewport()
	return m, nil
}

func (m Model) showSidePanel() bool {
	return m.width >= sidePanelMinW
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateUninitialized:
		if key.Matches(msg, m.keys.QuitBlocked) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case StateBlocked:
		switch {
		case key.Matches(msg, m.keys.QuitBlocked):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Retry):
			return m.reprobe()
		}
		return m, nil

	case StateAwaitingAnswer:
		return m.handleScroll(msg)
	}

	// StateReady
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.NewSession):
		return m.newSession()
	case key.Matches(msg, m.keys.Copy):
		return m.copyLastAnswer()
	case key.Matches(msg, m.keys.Export):
		return m.exportTranscript()
	case key.Matches(msg, m.keys.Refresh):
		return m.reprobe()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown, m.keys.Top, m.keys.Bottom):
		return m.handleScroll(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleScroll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input as a question. Slash commands are handled locally.
func (m Model) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return m, nil
	}

	if strings.HasPrefix(question, "/") {
		if next, cmd, ok := m.handleSlash(question); ok {
			return next, cmd
		}
	}

	m.input.Reset()
	m.session.AppendTurn(model.RoleUser, question)
	m.state = StateAwaitingAnswer
	m.input.Blur()
	m.statusBar.SetStatus(components.StatusAwaiting)
	m.refreshViewport()
	m.viewport.GotoBottom()

	m.log.Debug().Str("session", m.session.SessionID()).Int("len", len(question)).Msg("ask")
	return m, AskCmd(m.ctx, m.backend, question, m.session.SessionID())
}

// handleSlash runs a local command. ok is false for unknown commands, which
// are then sent as ordinary questions.
func (m Model) handleSlash(line string) (tea.Model, tea.Cmd, bool) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/new", "/reset":
		m.input.Reset()
		next, cmd := m.newSession()
		return next, cmd, true
	case "/export":
		m.input.Reset()
		next, cmd := m.exportTranscript()
		return next, cmd, true
	case "/copy":
		m.input.Reset()
		next, cmd := m.copyLastAnswer()
		return next, cmd, true
	case "/health":
		m.input.Reset()
		next, cmd := m.reprobe()
		return next, cmd, true
	case "/help":
		m.input.Reset()
		m.showHelp = !m.showHelp
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil, true
	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit, true
	}
	return m, nil, false
}

func (m Model) newSession() (tea.Model, tea.Cmd) {
	id := m.session.Reset()
	m.log.Info().Str("session", id).Msg("new session")
	m.rendered = make(map[int]string)
	m.refreshViewport()
	m.viewport.GotoTop()
	return m.withToast("New session " + m.session.ShortID())
}

func (m Model) copyLastAnswer() (tea.Model, tea.Cmd) {
	turn, ok := m.session.LastAnswer()
	if !ok {
		return m.withToast("No answer to copy yet")
	}
	text := turn.Content
	if turn.Answer != nil {
		text = render.Plain(render.BuildAnswerView(turn.Answer), true)
	}
	return m, CopyCmd(m.clipboard, text)
}

func (m Model) exportTranscript() (tea.Model, tea.Cmd) {
	if m.session.Len() == 0 {
		return m.withToast("Nothing to export yet")
	}
	t := export.Transcript{
		SessionID: m.session.SessionID(),
		Backend:   m.cfg.Address(),
		StartedAt: m.session.StartTime(),
		Turns:     m.session.Transcript(),
	}
	return m, ExportCmd(t, m.exportDir, m.cfg.UI.ShowDetails)
}

// reprobe starts a fresh health probe, at most once per ReprobeInterval.
func (m Model) reprobe() (tea.Model, tea.Cmd) {
	if m.probing {
		return m, nil
	}
	if !m.limiter.Allow() {
		return m.withToast("Please wait a moment before checking again")
	}
	m.probing = true
	m.log.Info().Str("backend", m.backend.BaseURL()).Msg("re-probing backend")
	return m, ProbeHealthCmd(m.ctx, m.backend)
}

// withToast shows msg in the status bar (or diagnostic) for a few seconds.
func (m Model) withToast(msg string) (tea.Model, tea.Cmd) {
	m.toastID++
	m.statusBar.SetToast(msg)
	m.diagnostic.SetToast(msg)
	return m, clearToastCmd(m.toastID, toastDuration)
}

// =============================================================================
// BACKEND RESULTS
// =============================================================================

func (m Model) handleHealth(msg HealthMsg) (tea.Model, tea.Cmd) {
	m.probing = false

	if msg.Refresh {
		// Periodic check while chatting only updates the header.
		if msg.OK() {
			m.header.SetConnected(msg.Status.Documents)
		} else {
			m.header.SetDown()
		}
		return m, nil
	}

	if msg.OK() {
		m.header.SetConnected(msg.Status.Documents)
		m.log.Info().Int("documents", msg.Status.Documents).Msg("backend healthy")

		if m.state == StateUninitialized || m.state == StateBlocked {
			m.state = StateReady
			m.statusBar.SetStatus(components.StatusReady)
			m.diagnostic.SetToast("")
			m.refreshViewport()
			return m, tea.Batch(m.input.Focus(), refreshTickCmd(m.refresh))
		}
		return m.withToast("Backend OK, " + strconv.Itoa(msg.Status.Documents) + " documents")
	}

	m.header.SetDown()
	m.log.Warn().Err(msg.Err).Str("backend", m.backend.BaseURL()).Msg("backend health check failed")

	cause := ""
	if msg.Err != nil {
		cause = msg.Err.Error()
		var ce *api.ClientError
		if errors.As(msg.Err, &ce) {
			cause = ce.UserMessage()
		}
	}

	switch m.state {
	case StateUninitialized:
		m.state = StateBlocked
		m.statusBar.SetStatus(components.StatusBlocked)
		m.input.Blur()
		m.diagnostic.BackendDown(m.cfg.Backend.Host, m.portString(), cause)
		return m, nil
	case StateBlocked:
		m.diagnostic.BackendDown(m.cfg.Backend.Host, m.portString(), cause)
		return m.withToast("Still not responding")
	}
	// A manual check from Ready never blocks the chat; asks report their
	// own errors.
	return m.withToast("Backend check failed: " + cause)
}

func (m Model) handleAnswer(msg AnswerMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.session.SessionID() {
		m.log.Warn().Str("session", msg.SessionID).Msg("dropping answer for a previous session")
		if m.state != StateAwaitingAnswer {
			return m, nil
		}
		m.state = StateReady
		m.statusBar.SetStatus(components.StatusReady)
		return m, m.input.Focus()
	}

	turn := m.session.AppendAnswer(msg.Result)
	if turn.IsError {
		m.log.Warn().Str("error", msg.Result.Error()).Msg("ask failed")
	}

	m.state = StateReady
	m.statusBar.SetStatus(components.StatusReady)
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, m.input.Focus()
}

func (m Model) handleConfigChanged(msg ConfigChangedMsg) (tea.Model, tea.Cmd) {
	wait := WaitForConfigChange(m.watcher)

	cfg, err := m.reload(msg.Path)
	if err != nil {
		m.log.Error().Err(err).Str("path", msg.Path).Msg("config reload failed")
		next, toast := m.withToast("Config error: " + err.Error())
		return next, tea.Batch(toast, wait)
	}

	oldAddr := m.cfg.Address()
	m.cfg = cfg
	m.backend.SetBaseURL(cfg.BaseURL())
	m.header.Address = cfg.Address()
	m.log.Info().Str("backend", cfg.BaseURL()).Msg("config reloaded")

	if m.state == StateBlocked {
		m.diagnostic.BackendDown(cfg.Backend.Host, m.portString(), "")
		m.probing = true
		next, toast := m.withToast("Config reloaded, checking " + cfg.Address())
		return next, tea.Batch(toast, wait, ProbeHealthCmd(m.ctx, m.backend))
	}

	if cfg.Address() != oldAddr {
		next, toast := m.withToast("Backend changed to " + cfg.Address())
		return next, tea.Batch(toast, wait, RefreshHealthCmd(m.ctx, m.backend))
	}
	return m, wait
}
