// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/stdqa/internal/api"
	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/export"
	"github.com/jeranaias/stdqa/internal/model"
)

// Backend is the part of api.Client the chat view needs.
type Backend interface {
	BaseURL() string
	SetBaseURL(u string)
	ProbeHealth(ctx context.Context) (*model.HealthStatus, error)
	CheckHealth(ctx context.Context) (*model.HealthStatus, bool)
	Ask(ctx context.Context, question, sessionID string) model.Result
}

// =============================================================================
// BACKEND COMMANDS
// =============================================================================

// ProbeHealthCmd creates a command that runs a fresh health probe.
func ProbeHealthCmd(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		status, err := b.ProbeHealth(ctx)
		return HealthMsg{Status: status, Err: err}
	}
}

// RefreshHealthCmd creates a command for the periodic check made while
// chatting. It may be served from the health cache.
func RefreshHealthCmd(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		status, ok := b.CheckHealth(ctx)
		if !ok {
			return HealthMsg{Err: api.ErrUnavailable, Refresh: true}
		}
		return HealthMsg{Status: status, Refresh: true}
	}
}

// AskCmd creates a command that sends one question. The result is always
// well formed; failures arrive as error results, never as panics.
func AskCmd(ctx context.Context, b Backend, question, sessionID string) tea.Cmd {
	return func() tea.Msg {
		return AnswerMsg{
			SessionID: sessionID,
			Question:  question,
			Result:    b.Ask(ctx, question, sessionID),
		}
	}
}

// =============================================================================
// CONFIG WATCH
// =============================================================================

// WaitForConfigChange blocks until the watcher reports a change or an error.
// It returns nil once the watcher is closed.
func WaitForConfigChange(w *config.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case path := <-w.Changes():
			return ConfigChangedMsg{Path: path}
		case err := <-w.Errors():
			return ConfigWatchErrorMsg{Err: err}
		case <-w.Done():
			return nil
		}
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// ExportCmd writes the transcript as Markdown under dir.
func ExportCmd(t export.Transcript, dir string, showDetails bool) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		opts.OutputDir = dir
		opts.IncludeDetails = showDetails
		path, err := export.ToFile(t, export.NewMarkdownExporter(opts), opts)
		return ExportedMsg{Path: path, Err: err}
	}
}

// CopyCmd copies text with the given clipboard writer.
func CopyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return CopiedMsg{Err: write(text)}
	}
}

// =============================================================================
// TIMERS
// =============================================================================

func refreshTickCmd(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func clearToastCmd(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearToastMsg{id: id}
	})
}
