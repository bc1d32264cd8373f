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
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ChallengeCache holds the pending WebAuthn ceremony state between the
// begin and finish halves of a ceremony. At most one challenge is
// outstanding per key; a new begin replaces any pending challenge.
type ChallengeCache interface {
	// Put stores the pending ceremony state for a key, replacing any
	// existing entry.
	Put(ctx context.Context, key string, session *webauthn.SessionData) error

	// TakeAndClear atomically removes and returns the pending ceremony
	// state for a key. Returns ErrChallengeNotFound when no challenge is
	// pending or the pending challenge has expired. A challenge can be
	// taken exactly once.
	TakeAndClear(ctx context.Context, key string) (*webauthn.SessionData, error)
}

// DefaultChallengeTTL bounds how long a begun ceremony can be finished.
// It matches the default ceremony timeout presented to the client.
const DefaultChallengeTTL = 2 * time.Minute

type challengeEntry struct {
	session   *webauthn.SessionData
	createdAt time.Time
}

// MemoryChallengeCache is an in-memory implementation of ChallengeCache.
// This is intended for development and testing only.
type MemoryChallengeCache struct {
	mu      sync.Mutex
	entries map[string]*challengeEntry
	ttl     time.Duration
}

// NewMemoryChallengeCache creates a new in-memory challenge cache.
func NewMemoryChallengeCache() *MemoryChallengeCache {
	return NewMemoryChallengeCacheWithTTL(DefaultChallengeTTL)
}

// NewMemoryChallengeCacheWithTTL creates a new in-memory challenge cache
// with a custom TTL.
func NewMemoryChallengeCacheWithTTL(ttl time.Duration) *MemoryChallengeCache {
	return &MemoryChallengeCache{
		entries: make(map[string]*challengeEntry),
		ttl:     ttl,
	}
}

// Put stores the pending ceremony state for a key, replacing any existing
// entry.
func (c *MemoryChallengeCache) Put(ctx context.Context, key string, session *webauthn.SessionData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &challengeEntry{
		session:   session,
		createdAt: time.Now(),
	}
	return nil
}

// TakeAndClear atomically removes and returns the pending ceremony state.
// The lookup and delete happen under one lock so concurrent callers for
// the same key see exactly one winner.
func (c *MemoryChallengeCache) TakeAndClear(ctx context.Context, key string) (*webauthn.SessionData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	delete(c.entries, key)

	if time.Since(entry.createdAt) > c.ttl {
		return nil, ErrChallengeNotFound
	}
	return entry.session, nil
}

// Cleanup removes expired challenges and returns how many were removed.
func (c *MemoryChallengeCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.createdAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of pending challenges.
func (c *MemoryChallengeCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all pending challenges.
func (c *MemoryChallengeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*challengeEntry)
}
