// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PruneEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter("global", 1, 1)
	start := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	limiter.allow("10.0.0.1", start)
	limiter.allow("10.0.0.2", start.Add(2*time.Minute))

	evicted := limiter.prune(start.Add(4*time.Minute), 3*time.Minute)

	assert.Equal(t, 1, evicted)
	assert.NotContains(t, limiter.clients, "10.0.0.1")
	assert.Contains(t, limiter.clients, "10.0.0.2")
}

func TestRateLimiter_EvictedClientStartsWithFullBucket(t *testing.T) {
	limiter := NewRateLimiter("collaborators", 0.0001, 1)
	start := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	assert.True(t, limiter.allow("10.0.0.1", start))
	assert.False(t, limiter.allow("10.0.0.1", start))

	limiter.prune(start.Add(time.Hour), time.Minute)

	assert.True(t, limiter.allow("10.0.0.1", start.Add(time.Hour)))
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	assert.Equal(t, 1, NewRateLimiter("global", 50, 100).retryAfterSeconds())
	assert.Equal(t, 2, NewRateLimiter("collaborators", 0.5, 5).retryAfterSeconds())
	assert.Equal(t, 1, NewRateLimiter("off", 0, 0).retryAfterSeconds())
}
