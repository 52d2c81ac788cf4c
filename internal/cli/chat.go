// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-oriented chat for terminals where the full-screen UI is
// unwanted (screen readers, tmux logs, slow links).
//
// Slash commands:
//   /new, /reset        Start a new session
//   /health             Check the backend again
//   /export [path]      Save the transcript (.md or .json)
//   /copy               Copy the last answer to the clipboard
//   /help, /?           Show commands
//   /quit, /exit, /q    Leave
//
// Input history is kept in ~/.stdqa/chat_history with 0600 permissions.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/export"
	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/render"
	"github.com/jeranaias/stdqa/internal/session"
)

// reprobeInterval limits /health to one probe per interval.
const reprobeInterval = 2 * time.Second

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of user input.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// historyLiner provides input history and line editing.
type historyLiner struct {
	line        *liner.State
	historyFile string
}

func newHistoryLiner() *historyLiner {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	h := &historyLiner{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	if f, err := os.Open(h.historyFile); err == nil {
		h.line.ReadHistory(f)
		f.Close()
	}
	return h
}

// Prompt reads a line and adds non-empty input to the history.
func (h *historyLiner) Prompt(prompt string) (string, error) {
	input, err := h.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		h.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history and restores the terminal.
func (h *historyLiner) Close() error {
	if err := os.MkdirAll(filepath.Dir(h.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(h.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			h.line.WriteHistory(f)
			f.Close()
		}
	}
	return h.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// repl is one interactive chat. It owns its session.
type repl struct {
	cfg       *config.Config
	backend   Backend
	session   *session.Manager
	answers   *answerWriter
	limiter   *rate.Limiter
	clipboard func(string) error
	exportDir string
	out       io.Writer
}

// Backend is the part of api.Client the REPL needs.
type Backend interface {
	BaseURL() string
	ProbeHealth(ctx context.Context) (*model.HealthStatus, error)
	Ask(ctx context.Context, question, sessionID string) model.Result
}

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat line by line without the full-screen UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.newREPL(a.newClient(), cmd.OutOrStdout())
			line := newHistoryLiner()
			defer line.Close()
			return r.run(cmd.Context(), line)
		},
	}
}

func (a *app) newREPL(backend Backend, out io.Writer) *repl {
	return &repl{
		cfg:       a.cfg,
		backend:   backend,
		session:   session.NewManager(),
		answers:   a.newAnswerWriter(out),
		limiter:   rate.NewLimiter(rate.Every(reprobeInterval), 1),
		clipboard: clipboard.WriteAll,
		exportDir: export.DefaultDir(),
		out:       out,
	}
}

// run probes the backend and, if it answers, reads questions until the user
// quits or input ends.
func (r *repl) run(ctx context.Context, in lineReader) error {
	status, err := r.backend.ProbeHealth(ctx)
	if err != nil {
		r.printDown(err)
		return exitCode(1)
	}
	r.session.Init()
	fmt.Fprintln(r.out, paint(passStyle, fmt.Sprintf("✅ Connected, %d documents", status.Documents)))
	fmt.Fprintf(r.out, "Session %s. Type /help for commands.\n\n", r.session.ShortID())

	for {
		input, err := in.Prompt(paint(promptStyle, "stdqa> "))
		if err != nil {
			// Ctrl+C, Ctrl+D and closed stdin all end the chat.
			fmt.Fprintln(r.out)
			r.printSummary()
			return nil
		}
		if quit := r.handleLine(ctx, input); quit {
			r.printSummary()
			return nil
		}
	}
}

// handleLine processes one line of input and reports whether to quit.
func (r *repl) handleLine(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if strings.HasPrefix(input, "/") {
		if quit, handled := r.command(ctx, input); handled {
			return quit
		}
	}
	r.ask(ctx, input)
	return false
}

func (r *repl) ask(ctx context.Context, question string) {
	r.session.AppendTurn(model.RoleUser, question)
	fmt.Fprintln(r.out, paint(hintStyle, "Sending request to "+r.cfg.Backend.Host+"..."))
	res := r.backend.Ask(ctx, question, r.session.SessionID())
	r.session.AppendAnswer(res)
	r.answers.Print(res)
	fmt.Fprintln(r.out)
}

// command runs a slash command. Unknown commands are not handled and are
// sent as questions.
func (r *repl) command(ctx context.Context, input string) (quit, handled bool) {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		return true, true
	case "/new", "/reset":
		r.session.Reset()
		fmt.Fprintf(r.out, "New session %s.\n", r.session.ShortID())
	case "/health":
		r.reprobe(ctx)
	case "/export":
		path := ""
		if len(fields) > 1 {
			path = fields[1]
		}
		r.export(path)
	case "/copy":
		r.copyLastAnswer()
	case "/help", "/?":
		r.printHelp()
	default:
		return false, false
	}
	return false, true
}

func (r *repl) reprobe(ctx context.Context) {
	if !r.limiter.Allow() {
		fmt.Fprintln(r.out, paint(warnStyle, "Please wait a moment before checking again"))
		return
	}
	status, err := r.backend.ProbeHealth(ctx)
	if err != nil {
		fmt.Fprintln(r.out, paint(failStyle, "❌ "+userMessage(err)))
		return
	}
	fmt.Fprintln(r.out, paint(passStyle, fmt.Sprintf("✅ Connected, %d documents", status.Documents)))
}

func (r *repl) transcript() export.Transcript {
	return export.Transcript{
		SessionID: r.session.SessionID(),
		Backend:   r.cfg.Address(),
		StartedAt: r.session.StartTime(),
		Turns:     r.session.Transcript(),
	}
}

func (r *repl) export(path string) {
	if r.session.Len() == 0 {
		fmt.Fprintln(r.out, "Nothing to export yet.")
		return
	}
	opts := export.DefaultOptions()
	opts.OutputDir = r.exportDir
	opts.IncludeDetails = r.cfg.UI.ShowDetails

	var err error
	if path == "" {
		path, err = export.ToFile(r.transcript(), export.NewMarkdownExporter(opts), opts)
	} else {
		err = export.ToPath(r.transcript(), export.ForPath(path, opts), path)
	}
	if err != nil {
		fmt.Fprintln(r.out, paint(failStyle, "Export failed: "+err.Error()))
		return
	}
	fmt.Fprintln(r.out, "Saved "+path)
}

func (r *repl) copyLastAnswer() {
	turn, ok := r.session.LastAnswer()
	if !ok {
		fmt.Fprintln(r.out, "No answer to copy yet.")
		return
	}
	text := render.Plain(render.BuildAnswerView(turn.Answer), true)
	if err := r.clipboard(text); err != nil {
		fmt.Fprintln(r.out, paint(failStyle, "Copy failed: "+err.Error()))
		return
	}
	fmt.Fprintln(r.out, "Copied the last answer.")
}

func (r *repl) printDown(err error) {
	fmt.Fprintln(r.out, paint(failStyle, "❌ Backend "+r.cfg.Address()+" is not responding"))
	fmt.Fprintln(r.out, "   "+userMessage(err))
	fmt.Fprintln(r.out, paint(hintStyle, fmt.Sprintf("Ask the administrator to check: curl %s/health", r.backend.BaseURL())))
}

func (r *repl) printHelp() {
	rows := [][2]string{
		{"/new", "Start a new session"},
		{"/health", "Check the backend again"},
		{"/export [path]", "Save the transcript (.md or .json)"},
		{"/copy", "Copy the last answer"},
		{"/quit", "Leave"},
	}
	for _, row := range rows {
		fmt.Fprintln(r.out, field(row[0], row[1]))
	}
}

func (r *repl) printSummary() {
	questions := 0
	for _, t := range r.session.Transcript() {
		if t.Role == model.RoleUser {
			questions++
		}
	}
	fmt.Fprintf(r.out, "Goodbye. %d question(s) in %s.\n", questions, r.session.Duration().Round(time.Second))
}
