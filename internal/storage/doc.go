// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the optional ask journal for stdqa.
//
// The journal is a small SQLite database recording one row per ask call:
// when it happened, which session asked, the question, whether it succeeded
// and how long it took. Transcripts themselves are never stored.
//
// # Key Types
//
//   - Journal: handle to the database
//   - Entry: one recorded ask
//
// # Usage
//
//	j, err := storage.Open(cfg.JournalPath())
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	err = j.Record(ctx, entry)
//	recent, err := j.Recent(ctx, 20)
package storage
