// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-companion-auth.
//
// go-companion-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChallengeCache_PutAndTake(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryChallengeCache()

	session := &webauthn.SessionData{Challenge: "challenge-1"}
	require.NoError(t, cache.Put(ctx, "alice", session))
	assert.Equal(t, 1, cache.Count())

	got, err := cache.TakeAndClear(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "challenge-1", got.Challenge)
	assert.Equal(t, 0, cache.Count())
}

func TestMemoryChallengeCache_SingleUse(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryChallengeCache()

	require.NoError(t, cache.Put(ctx, "alice", &webauthn.SessionData{Challenge: "c1"}))

	_, err := cache.TakeAndClear(ctx, "alice")
	require.NoError(t, err)

	// A challenge can be taken exactly once
	_, err = cache.TakeAndClear(ctx, "alice")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestMemoryChallengeCache_Missing(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryChallengeCache()

	_, err := cache.TakeAndClear(ctx, "nobody")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestMemoryChallengeCache_PutReplaces(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryChallengeCache()

	require.NoError(t, cache.Put(ctx, "alice", &webauthn.SessionData{Challenge: "old"}))
	require.NoError(t, cache.Put(ctx, "alice", &webauthn.SessionData{Challenge: "new"}))
	assert.Equal(t, 1, cache.Count())

	got, err := cache.TakeAndClear(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Challenge)
}

func TestMemoryChallengeCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryChallengeCacheWithTTL(10 * time.Millisecond)

	require.NoError(t, cache.Put(ctx, "alice", &webauthn.SessionData{Challenge: "c1"}))
	time.Sleep(20 * time.Millisecond)

	_, err := cache.TakeAndClear(ctx, "alice")
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	// An expired take still clears the entry
	assert.Equal(t, 0, cache.Count())
}

func TestMemoryChallengeCache_Cleanup(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryChallengeCacheWithTTL(10 * time.Millisecond)

	require.NoError(t, cache.Put(ctx, "alice", &webauthn.SessionData{Challenge: "c1"}))
	require.NoError(t, cache.Put(ctx, "bob", &webauthn.SessionData{Challenge: "c2"}))

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cache.Put(ctx, "carol", &webauthn.SessionData{Challenge: "c3"}))

	removed := cache.Cleanup()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, cache.Count())
}

func TestMemoryChallengeCache_ConcurrentTake(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryChallengeCache()

	require.NoError(t, cache.Put(ctx, "alice", &webauthn.SessionData{Challenge: "c1"}))

	// Many goroutines race to take the same challenge; exactly one wins.
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.TakeAndClear(ctx, "alice"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}
