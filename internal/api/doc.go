// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the standards question-answering
// backend.
//
// The backend exposes two endpoints under one base URL:
//
//	GET  {base}/health  -> {"documents": 1696, ...}
//	POST {base}/ask     -> {"answer": {"summary": ..., "details": [...], "standards": [...], "note": ...}}
//
// # Usage
//
//	client := api.NewClient(api.OptionsFromConfig(cfg))
//	if status, ok := client.CheckHealth(ctx); ok {
//	    fmt.Println("documents:", status.Documents)
//	}
//	res := client.Ask(ctx, "What is the pressure limit?", sessionID)
//	if res.IsError() {
//	    fmt.Println("❌", res.Error())
//	}
//
// Ask never returns a Go error: every outcome, including timeouts and
// malformed bodies, is folded into a model.Result. Health probes return
// typed *ClientError values from ProbeHealth; CheckHealth collapses them
// into a boolean and serves recent successes from a short-lived cache.
package api
