// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfig: configOptional},
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "stdqa %s\n", Version)
			fmt.Fprintln(w, field("Commit", GitCommit))
			fmt.Fprintln(w, field("Built", BuildDate))
			fmt.Fprintln(w, field("Go", runtime.Version()))
			fmt.Fprintln(w, field("Platform", runtime.GOOS+"/"+runtime.GOARCH))
		},
	}
}
