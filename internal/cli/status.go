// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/stdqa/internal/api"
)

// StatusOutput is the --json shape of the status command.
type StatusOutput struct {
	Backend   string `json:"backend"`
	OK        bool   `json:"ok"`
	Documents int    `json:"documents,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	Config    string `json:"config,omitempty"`
}

func newStatusCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s", "health"},
		Short:   "Check that the backend is up",
		Long:    "Status probes the backend health endpoint and exits 1 if it is not responding.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(cmd, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}

func (a *app) runStatus(cmd *cobra.Command, jsonOut bool) error {
	client := a.newClient()

	start := time.Now()
	status, err := client.ProbeHealth(cmd.Context())
	out := StatusOutput{
		Backend:   client.BaseURL(),
		OK:        err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
		Config:    a.cfg.Path(),
	}
	if err == nil {
		out.Documents = status.Documents
	} else {
		out.Error = userMessage(err)
	}

	if jsonOut {
		if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
			return werr
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, paint(titleStyle, "stdqa status"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, field("Backend", out.Backend))
		if out.OK {
			fmt.Fprintln(w, field("Status", paint(passStyle, "✅ Connected")))
			fmt.Fprintln(w, field("Documents", strconv.Itoa(out.Documents)))
		} else {
			fmt.Fprintln(w, field("Status", paint(failStyle, "❌ Not responding")))
			fmt.Fprintln(w, field("Error", out.Error))
		}
		fmt.Fprintln(w, field("Latency", fmt.Sprintf("%dms", out.LatencyMS)))
		configPath := out.Config
		if configPath == "" {
			configPath = "(defaults)"
		}
		fmt.Fprintln(w, field("Config", configPath))
	}

	if err != nil {
		return exitCode(1)
	}
	return nil
}

// userMessage turns a client error into the text shown to users.
func userMessage(err error) string {
	var ce *api.ClientError
	if errors.As(err, &ce) {
		return ce.UserMessage()
	}
	return err.Error()
}
