// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot question command.
//
// Examples:
//   stdqa ask "What is the minimum cover for rebar in slabs?"
//   echo "fire exits width" | stdqa ask -
//   stdqa ask --json "fire exits width" | jq .answer.standards
//
// Exit codes:
//   0   Answer received
//   1   The ask call failed

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/stdqa/internal/api"
	"github.com/jeranaias/stdqa/internal/session"
)

type askOptions struct {
	json      bool
	sessionID string
	noDetails bool
}

func newAskCommand(a *app) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Long: `Ask sends a single question to the backend and prints the answer.
Use "-" as the question to read it from standard input.`,
		Example: `  stdqa ask "What is the minimum cover for rebar in slabs?"
  stdqa ask --json "fire exits width"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return a.runAsk(cmd, question, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session id to continue (default: a new session)")
	cmd.Flags().BoolVar(&opts.noDetails, "no-details", false, "omit the key facts list")
	return cmd
}

// readQuestion joins the arguments, or reads stdin when the only argument
// is "-".
func readQuestion(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read question from stdin: %w", err)
		}
		args = []string{string(data)}
	}
	question := api.NormalizeQuestion(strings.Join(args, " "))
	if question == "" {
		return "", fmt.Errorf("question is empty")
	}
	return question, nil
}

func (a *app) runAsk(cmd *cobra.Command, question string, opts askOptions) error {
	sessionID := opts.sessionID
	if sessionID == "" {
		sessionID = session.NewUUID()
	}

	client := a.newClient()
	res := client.Ask(cmd.Context(), question, sessionID)

	if opts.json {
		out := AskOutput{
			SessionID: sessionID,
			Question:  question,
			OK:        !res.IsError(),
			Answer:    res.Answer,
			Error:     res.Err,
		}
		if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		w := a.newAnswerWriter(cmd.OutOrStdout())
		if opts.noDetails {
			w.showDetails = false
		}
		w.Print(res)
	}

	if res.IsError() {
		return exitCode(1)
	}
	return nil
}
