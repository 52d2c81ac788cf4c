// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/stdqa/internal/storage"
	"github.com/jeranaias/stdqa/internal/util"
)

// JournalRow is the --json shape of one journal entry.
type JournalRow struct {
	At         time.Time `json:"at"`
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
}

func newJournalCommand(a *app) *cobra.Command {
	var (
		limit     int
		jsonOut   bool
		pruneDays int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent questions from the local ask journal",
		Long: `Journal lists the most recent ask calls recorded on this machine.

The journal is off by default. Enable it with [journal] enabled = true in the
config file or STDQA_JOURNAL=1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, closeFn, err := a.openJournal()
			if err != nil {
				return err
			}
			if j == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "The ask journal is disabled. Set [journal] enabled = true or STDQA_JOURNAL=1.")
				return nil
			}
			defer closeFn()

			if pruneDays > 0 {
				n, err := j.Prune(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %d days.\n", n, pruneDays)
				return nil
			}

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), journalRows(entries))
			}
			printJournal(cmd, entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print entries as JSON")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "delete entries older than this many days")
	return cmd
}

// openJournal returns the journal opened by setup. With recording disabled
// it still opens an existing database so old entries stay listable.
// A nil journal means there is none.
func (a *app) openJournal() (*storage.Journal, func(), error) {
	if a.journal != nil {
		return a.journal, func() {}, nil
	}
	path := a.cfg.JournalPath()
	if _, err := os.Stat(path); err != nil {
		return nil, nil, nil
	}
	j, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return j, func() { j.Close() }, nil
}

func journalRows(entries []storage.Entry) []JournalRow {
	rows := make([]JournalRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, JournalRow{
			At:         e.At,
			SessionID:  e.SessionID,
			Question:   e.Question,
			OK:         e.OK,
			Error:      e.Error,
			Summary:    e.Summary,
			StatusCode: e.StatusCode,
			LatencyMS:  e.Latency.Milliseconds(),
		})
	}
	return rows
}

func printJournal(cmd *cobra.Command, entries []storage.Entry) {
	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries yet.")
		return
	}
	for _, e := range entries {
		mark := paint(passStyle, "✓")
		outcome := util.TruncateRunes(util.CollapseWhitespace(e.Summary), 60)
		if !e.OK {
			mark = paint(failStyle, "✗")
			outcome = util.CollapseWhitespace(e.Error)
		}
		fmt.Fprintf(w, "%s %s  %s  %s\n",
			mark,
			e.At.Local().Format("2006-01-02 15:04"),
			util.ShortPrefix(e.SessionID, 8),
			util.TruncateRunes(util.CollapseWhitespace(e.Question), 60),
		)
		fmt.Fprintf(w, "    %s (%dms)\n", outcome, e.Latency.Milliseconds())
	}
}
