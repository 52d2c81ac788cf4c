// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// HealthStatus is the parsed body of GET /health.
// Fields other than the document count are kept in Extra.
type HealthStatus struct {
	Documents int            `json:"documents"`
	Extra     map[string]any `json:"-"`
	CheckedAt time.Time      `json:"-"`
}
