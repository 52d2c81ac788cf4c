// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is a bounded exponential backoff for health probes.
// The zero value performs exactly one attempt.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// InitialInterval defaults to 500ms.
	InitialInterval time.Duration
	// MaxInterval caps a single wait. Defaults to 10s.
	MaxInterval time.Duration
	// Notify, if set, is called before each wait.
	Notify func(err error, wait time.Duration)
}

// Enabled reports whether the policy retries at all.
func (p RetryPolicy) Enabled() bool {
	return p.MaxRetries > 0
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	eb.MaxInterval = 10 * time.Second
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	// The attempt count bounds the loop, not wall time.
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.MaxRetries)), ctx)
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// policy is exhausted. The last error is returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	if !p.Enabled() {
		return op()
	}

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		var ce *ClientError
		if errors.As(err, &ce) && !ce.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(wrapped, p.backOff(ctx), p.Notify)
}
