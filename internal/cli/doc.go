// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the stdqa command line.
//
// With no command the full-screen chat starts. The other commands reuse the
// same client core for scripted and line-oriented use:
//
//	stdqa                    Full-screen chat
//	stdqa chat               Line-by-line chat with input history
//	stdqa ask <question>     One question, answer on stdout (--json)
//	stdqa status             Probe the backend, exit 1 when down
//	stdqa doctor             Connection and configuration checks
//	stdqa journal            Recent asks from the local journal
//	stdqa config show|init|path
//	stdqa version
//
// Global flags: --config, --host, --port, --no-color, --log-level.
package cli
