// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/stdqa/internal/api"
	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/logging"
	"github.com/jeranaias/stdqa/internal/storage"
)

// Build information, set with -ldflags at release time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationConfig marks commands that still run when the config is invalid.
const (
	annotationConfig = "config"
	configOptional   = "optional"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// ExitError carries a process exit code. The command has already reported
// the failure, so Execute prints nothing more for it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func exitCode(code int) error {
	return &ExitError{Code: code}
}

// =============================================================================
// APP
// =============================================================================

// app holds what every command shares: flags, config, logger and journal.
type app struct {
	configPath string
	host       string
	port       int
	noColor    bool
	logLevel   string

	cfg    *config.Config
	cfgErr error

	log       zerolog.Logger
	logCloser io.Closer
	journal   *storage.Journal

	out    io.Writer
	errOut io.Writer
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		log:    zerolog.Nop(),
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stdqa",
		Short: "Terminal client for the standards Q&A service",
		Long: `stdqa asks questions about the standards documentation served by a
remote Q&A backend and shows the answers with the standards they cite.

Run without a command to open the full-screen chat.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetVersionTemplate("stdqa {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.stdqa/config.toml)")
	pf.StringVar(&a.host, "host", "", "backend host, overrides config and environment")
	pf.IntVar(&a.port, "port", 0, "backend port, overrides config and environment")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error or disabled")

	root.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newStatusCommand(a),
		newDoctorCommand(a),
		newJournalCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	err := newRootCommand(a).ExecuteContext(ctx)
	a.teardown()
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// =============================================================================
// SETUP
// =============================================================================

func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor {
		ForceColorsEnabled(false)
	}
	lipgloss.SetColorProfile(GetColorProfile())

	a.cfg, a.cfgErr = a.loadConfig(a.configPath)
	if a.cfgErr != nil {
		if cmd.Annotations[annotationConfig] != configOptional {
			return a.cfgErr
		}
		a.cfg = config.Default()
		a.cfg.ApplyEnvOverrides()
		a.applyFlags(a.cfg)
	}

	a.log, a.logCloser = logging.New(logging.OptionsFromConfig(a.cfg))
	a.log.Debug().Str("command", cmd.CommandPath()).Str("backend", a.cfg.Address()).Msg("starting")

	if a.cfg.Journal.Enabled {
		j, err := storage.Open(a.cfg.JournalPath())
		if err != nil {
			a.log.Warn().Err(err).Msg("ask journal disabled")
			fmt.Fprintf(a.errOut, "Warning: ask journal disabled: %v\n", err)
		} else {
			a.journal = j
		}
	}
	return nil
}

// teardown releases what setup opened. Cobra skips post-run hooks when a
// command fails, so Execute calls this directly.
func (a *app) teardown() {
	if a.journal != nil {
		a.journal.Close()
		a.journal = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// loadConfig reads the config at path and applies the command-line flags.
func (a *app) loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.host != "" {
		cfg.Backend.Host = a.host
	}
	if a.port != 0 {
		cfg.Backend.Port = a.port
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// newClient builds a backend client for the active config. Ask calls are
// recorded in the journal when it is enabled.
func (a *app) newClient() *api.Client {
	opts := api.OptionsFromConfig(a.cfg)
	opts.Logger = a.log
	if a.journal != nil {
		opts.OnAsk = a.recordAsk
	}
	return api.NewClient(opts)
}

func (a *app) recordAsk(ev api.AskEvent) {
	e := storage.Entry{
		At:         ev.At,
		SessionID:  ev.SessionID,
		Question:   ev.Question,
		OK:         !ev.Result.IsError(),
		StatusCode: ev.StatusCode,
		Latency:    ev.Latency,
	}
	if ev.Result.IsError() {
		e.Error = ev.Result.Error()
	} else {
		e.Summary = ev.Result.Answer.Summary
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.journal.Record(ctx, e); err != nil {
		a.log.Warn().Err(err).Msg("journal record failed")
	}
}
