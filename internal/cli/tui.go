// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/session"
	"github.com/jeranaias/stdqa/internal/ui/chat"
	"github.com/jeranaias/stdqa/internal/ui/styles"
)

// errNoTerminal is returned when the full-screen UI is started without a TTY.
var errNoTerminal = errors.New("the chat UI needs a terminal; use \"stdqa chat\" or \"stdqa ask\" instead")

// runTUI starts the full-screen chat and blocks until the user quits.
func (a *app) runTUI(ctx context.Context) error {
	if !IsTTY() || !IsStdoutTTY() {
		return errNoTerminal
	}

	theme := styles.NewTheme(a.cfg.UI.Theme)
	if a.noColor {
		styles.DisableColor()
	}

	var watcher *config.Watcher
	if path := a.watchPath(); path != "" {
		w, err := config.Watch(path, config.DefaultDebounce)
		if err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("config watch disabled")
		} else {
			watcher = w
			defer w.Close()
		}
	}

	m := chat.New(chat.Options{
		Context: ctx,
		Config:  a.cfg,
		Backend: a.newClient(),
		Session: session.NewManager(),
		Theme:   theme,
		Logger:  a.log,
		Watcher: watcher,
		Reload:  a.loadConfig,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(chat.Model); ok {
		a.log.Info().
			Str("session", fm.Session().SessionID()).
			Int("turns", fm.Session().Len()).
			Dur("duration", fm.Session().Duration()).
			Msg("chat closed")
	}
	return nil
}

// watchPath is the config file to watch for edits: the loaded file, or the
// default location when its directory exists so a new file is picked up.
func (a *app) watchPath() string {
	if p := a.cfg.Path(); p != "" {
		return p
	}
	p, err := a.targetConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(filepath.Dir(p)); err != nil {
		return ""
	}
	return p
}
