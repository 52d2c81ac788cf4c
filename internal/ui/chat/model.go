// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/export"
	"github.com/jeranaias/stdqa/internal/render"
	"github.com/jeranaias/stdqa/internal/session"
	"github.com/jeranaias/stdqa/internal/ui/components"
	"github.com/jeranaias/stdqa/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// State is the view state of the chat.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateAwaitingAnswer
	StateBlocked
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateAwaitingAnswer:
		return "awaiting"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Defaults for Options.
const (
	DefaultReprobeInterval = 2 * time.Second
	DefaultRefreshInterval = 30 * time.Second
	toastDuration          = 4 * time.Second
	inputCharLimit         = 2000
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options wires the chat view to its collaborators.
type Options struct {
	// Context bounds every network call started by the view.
	Context context.Context

	Config  *config.Config
	Backend Backend
	Session *session.Manager
	Theme   *styles.Theme
	Logger  zerolog.Logger

	// Watcher, when set, reloads the backend address on config edits.
	Watcher *config.Watcher
	// Reload reads the config again after a change. Defaults to config.Load.
	Reload func(path string) (*config.Config, error)

	// ExportDir defaults to export.DefaultDir().
	ExportDir string
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error

	// ReprobeInterval limits manual re-probes. Defaults to 2s.
	ReprobeInterval time.Duration
	// RefreshInterval is the header health refresh period while chatting.
	// Negative disables it. Zero means DefaultRefreshInterval.
	RefreshInterval time.Duration
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat view.
type Model struct {
	ctx     context.Context
	cfg     *config.Config
	backend Backend
	session *session.Manager
	theme   *styles.Theme
	log     zerolog.Logger
	keys    KeyMap

	watcher   *config.Watcher
	reload    func(path string) (*config.Config, error)
	exportDir string
	clipboard func(string) error

	state   State
	probing bool
	limiter *rate.Limiter
	refresh time.Duration

	// Widgets
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *render.Renderer

	// Components
	header     *components.Header
	statusBar  *components.StatusBar
	sidePanel  *components.SidePanel
	diagnostic *components.Diagnostic

	// rendered caches turn renders by transcript index for the current
	// width. Reset on resize and on new session.
	rendered map[int]string

	toastID  int
	showHelp bool
	width    int
	height   int
	quitting bool
}

// New creates the chat model. Config, Backend, Session and Theme are
// required.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Reload == nil {
		opts.Reload = config.Load
	}
	if opts.ExportDir == "" {
		opts.ExportDir = export.DefaultDir()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.ReprobeInterval <= 0 {
		opts.ReprobeInterval = DefaultReprobeInterval
	}
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about the standards documentation..."
	ti.Prompt = "> "
	ti.PromptStyle = opts.Theme.InputPrompt
	ti.CharLimit = inputCharLimit
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Theme.Spinner

	m := Model{
		ctx:       opts.Context,
		cfg:       opts.Config,
		backend:   opts.Backend,
		session:   opts.Session,
		theme:     opts.Theme,
		log:       opts.Logger,
		keys:      DefaultKeyMap(),
		watcher:   opts.Watcher,
		reload:    opts.Reload,
		exportDir: opts.ExportDir,
		clipboard: opts.Clipboard,
		state:     StateUninitialized,
		limiter:   rate.NewLimiter(rate.Every(opts.ReprobeInterval), 1),
		refresh:   opts.RefreshInterval,

		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		renderer: render.NewRenderer(opts.Config.UI.GlamourStyle, 76),

		header:     components.NewHeader(opts.Theme),
		statusBar:  components.NewStatusBar(opts.Theme),
		sidePanel:  components.NewSidePanel(opts.Theme),
		diagnostic: components.NewDiagnostic(opts.Theme),
		rendered:   make(map[int]string),
	}
	m.header.Address = m.cfg.Address()
	m.sidePanel.Actions = shortcuts([]key.Binding{m.keys.NewSession, m.keys.Export})
	m.statusBar.Shortcuts = shortcuts(m.keys.ShortHelp())
	return m
}

// Init initializes the session and starts the first health probe.
func (m Model) Init() tea.Cmd {
	if m.session.Init() {
		m.log.Info().Str("session", m.session.SessionID()).Msg("session started")
	}
	return tea.Batch(
		ProbeHealthCmd(m.ctx, m.backend),
		m.spinner.Tick,
		WaitForConfigChange(m.watcher),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current view state.
func (m Model) State() State {
	return m.state
}

// Session returns the session manager.
func (m Model) Session() *session.Manager {
	return m.session
}

// InputValue returns the text in the input field.
func (m Model) InputValue() string {
	return m.input.Value()
}

// InputEnabled reports whether the chat input accepts text.
func (m Model) InputEnabled() bool {
	return m.state == StateReady
}

// Toast returns the transient status message, if any.
func (m Model) Toast() string {
	return m.statusBar.Toast
}

// Config returns the active configuration.
func (m Model) Config() *config.Config {
	return m.cfg
}

func (m Model) portString() string {
	return strconv.Itoa(m.cfg.Backend.Port)
}
