// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - diagnostics for a client that cannot reach its backend.
//
// Checks performed, concurrently:
//   1. Config Valid      - the config file parses and validates
//   2. Backend Resolves  - the backend host name resolves
//   3. Port Reachable    - a TCP connection to host:port succeeds
//   4. Health Endpoint   - GET /health answers with a document count
//   5. Config Writable   - the config directory accepts new files
//   6. Ask Journal       - the journal database opens (when enabled)
//
// Exit codes:
//   0   No check failed
//   1   One or more checks failed

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/storage"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the styled marker for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return paint(passStyle, "[OK]")
	case CheckWarn:
		return paint(warnStyle, "[!!]")
	case CheckFail:
		return paint(failStyle, "[FAIL]")
	default:
		return "?"
	}
}

// MarshalText makes the status readable in --json output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HealthCheck is the result of one diagnostic.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// Render formats the check for terminal output.
func (c HealthCheck) Render() string {
	out := c.Status.Symbol() + " " + c.Name + ": " + c.Message
	if c.Status != CheckPass && c.Fix != "" {
		out += "\n" + paint(hintStyle, "-> "+c.Fix)
	}
	return out
}

type checkFunc func(ctx context.Context) HealthCheck

// =============================================================================
// COMMAND
// =============================================================================

const checkTimeout = 5 * time.Second

func newDoctorCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:         "doctor",
		Aliases:     []string{"diag"},
		Short:       "Diagnose connection and configuration problems",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfig: configOptional},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(cmd, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the results as JSON")
	return cmd
}

func (a *app) runDoctor(cmd *cobra.Command, jsonOut bool) error {
	results := runChecks(cmd.Context(), a.doctorChecks())

	failed := 0
	for _, r := range results {
		if r.Status == CheckFail {
			failed++
		}
	}

	w := cmd.OutOrStdout()
	if jsonOut {
		if err := writeJSON(w, results); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, paint(titleStyle, "stdqa doctor"))
		fmt.Fprintln(w)
		for _, r := range results {
			fmt.Fprintln(w, r.Render())
		}
		fmt.Fprintln(w)
		if failed == 0 {
			fmt.Fprintln(w, paint(passStyle, "All checks passed."))
		} else {
			fmt.Fprintln(w, paint(failStyle, fmt.Sprintf("%d check(s) failed.", failed)))
		}
	}

	if failed > 0 {
		return exitCode(1)
	}
	return nil
}

// runChecks runs every check concurrently and returns the results in the
// order the checks were given.
func runChecks(ctx context.Context, checks []checkFunc) []HealthCheck {
	results := make([]HealthCheck, len(checks))
	eg, ctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		eg.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			results[i] = check(cctx)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (a *app) doctorChecks() []checkFunc {
	return []checkFunc{
		a.checkConfig,
		a.checkResolve,
		a.checkPort,
		a.checkHealth,
		checkConfigWritable,
		a.checkJournal,
	}
}

// =============================================================================
// CHECKS
// =============================================================================

func (a *app) checkConfig(ctx context.Context) HealthCheck {
	c := HealthCheck{Name: "Config Valid"}
	switch {
	case a.cfgErr != nil:
		c.Status = CheckFail
		c.Message = a.cfgErr.Error()
		c.Fix = "Edit the config file or run: stdqa config init --force"
	case a.cfg.Path() == "":
		c.Status = CheckWarn
		c.Message = "No config file, using defaults and environment"
		c.Fix = "stdqa config init"
	default:
		c.Status = CheckPass
		c.Message = a.cfg.Path()
	}
	return c
}

func (a *app) checkResolve(ctx context.Context) HealthCheck {
	c := HealthCheck{Name: "Backend Resolves"}
	host := a.cfg.Backend.Host
	if ip := net.ParseIP(host); ip != nil {
		c.Status = CheckPass
		c.Message = host + " is an IP address"
		return c
	}
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		c.Status = CheckFail
		c.Message = fmt.Sprintf("cannot resolve %s: %v", host, err)
		c.Fix = "Check STDQA_BACKEND_HOST or [backend].host"
		return c
	}
	c.Status = CheckPass
	c.Message = fmt.Sprintf("%s -> %s", host, addrs[0])
	return c
}

func (a *app) checkPort(ctx context.Context) HealthCheck {
	c := HealthCheck{Name: "Port Reachable"}
	addr := net.JoinHostPort(a.cfg.Backend.Host, strconv.Itoa(a.cfg.Backend.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.Status = CheckFail
		c.Message = fmt.Sprintf("cannot connect to %s: %v", addr, err)
		c.Fix = fmt.Sprintf("Ask the administrator whether the service on port %d is running", a.cfg.Backend.Port)
		return c
	}
	conn.Close()
	c.Status = CheckPass
	c.Message = addr + " accepts connections"
	return c
}

func (a *app) checkHealth(ctx context.Context) HealthCheck {
	c := HealthCheck{Name: "Health Endpoint"}
	client := a.newClient()
	status, err := client.ProbeHealth(ctx)
	if err != nil {
		c.Status = CheckFail
		c.Message = userMessage(err)
		c.Fix = fmt.Sprintf("curl %s/health", client.BaseURL())
		return c
	}
	c.Status = CheckPass
	c.Message = fmt.Sprintf("%d documents", status.Documents)
	return c
}

func checkConfigWritable(ctx context.Context) HealthCheck {
	c := HealthCheck{Name: "Config Writable"}
	dir, err := config.ConfigDir()
	if err != nil {
		c.Status = CheckFail
		c.Message = err.Error()
		return c
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		c.Status = CheckFail
		c.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		c.Fix = "Set STDQA_HOME to a writable directory"
		return c
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		c.Status = CheckFail
		c.Message = fmt.Sprintf("%s is not writable: %v", dir, err)
		c.Fix = "Set STDQA_HOME to a writable directory"
		return c
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	c.Status = CheckPass
	c.Message = dir
	return c
}

func (a *app) checkJournal(ctx context.Context) HealthCheck {
	c := HealthCheck{Name: "Ask Journal"}
	if !a.cfg.Journal.Enabled {
		c.Status = CheckPass
		c.Message = "disabled"
		return c
	}

	j := a.journal
	if j == nil {
		opened, err := storage.Open(a.cfg.JournalPath())
		if err != nil {
			c.Status = CheckFail
			c.Message = err.Error()
			c.Fix = "Check [journal].path or disable the journal"
			return c
		}
		defer opened.Close()
		j = opened
	}
	n, err := j.Count(ctx)
	if err != nil {
		c.Status = CheckFail
		c.Message = err.Error()
		return c
	}
	c.Status = CheckPass
	c.Message = fmt.Sprintf("%s (%d entries)", j.Path(), n)
	return c
}
