// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"sync"
	"time"

	"github.com/jeranaias/stdqa/internal/model"
)

// healthCache holds the last successful health status for a short TTL.
// A TTL of zero disables caching.
type healthCache struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	status *model.HealthStatus
	at     time.Time
}

func newHealthCache(ttl time.Duration, now func() time.Time) *healthCache {
	return &healthCache{ttl: ttl, now: now}
}

func (h *healthCache) get() (*model.HealthStatus, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ttl <= 0 || h.status == nil {
		return nil, false
	}
	if h.now().Sub(h.at) >= h.ttl {
		h.status = nil
		return nil, false
	}
	return cloneHealth(h.status), true
}

func (h *healthCache) put(s *model.HealthStatus) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = cloneHealth(s)
	h.at = h.now()
}

func (h *healthCache) invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = nil
}
