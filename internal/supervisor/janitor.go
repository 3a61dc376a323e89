// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package supervisor

import (
	"context"
	"time"
)

// Pruner is the slice of the cache the janitor needs.
type Pruner interface {
	Prune()
}

// CacheJanitor periodically evicts expired cache entries so an idle cache
// does not hold stale responses until the next Get touches them.
type CacheJanitor struct {
	cache    Pruner
	interval time.Duration
}

// NewCacheJanitor builds a janitor pruning at the given interval.
func NewCacheJanitor(cache Pruner, interval time.Duration) *CacheJanitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitor{cache: cache, interval: interval}
}

// Serve implements suture.Service.
func (j *CacheJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.cache.Prune()
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (j *CacheJanitor) String() string {
	return "cache-janitor"
}
