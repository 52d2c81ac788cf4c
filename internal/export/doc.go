// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to disk.
//
// # Key Types
//
//   - Transcript: session id, backend address and the ordered turns
//   - Exporter: turns a Transcript into bytes (Markdown or JSON)
//   - Options: output directory and formatting switches
//
// # Usage
//
//	t := export.Transcript{
//	    SessionID: mgr.SessionID(),
//	    Backend:   cfg.Address(),
//	    Turns:     mgr.Transcript(),
//	}
//	path, err := export.ToFile(t, export.NewMarkdownExporter(nil), nil)
//
// Files are written atomically with 0600 permissions. Exporting an empty
// transcript is an error.
package export
