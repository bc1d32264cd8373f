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
	"crypto/subtle"
	"sync"
)

// RefreshTokenStore tracks the single currently-valid refresh token per
// principal. Storing a new token replaces the old one, which is how
// rotation revokes the previous token.
type RefreshTokenStore interface {
	// Store records the current refresh token for a principal, replacing
	// any previously stored token.
	Store(ctx context.Context, principalID, token string) error

	// Validate reports whether the given token is the currently stored
	// token for the principal. Any mismatch, including no stored token,
	// returns false.
	Validate(ctx context.Context, principalID, token string) (bool, error)

	// Invalidate removes the stored token for a principal. Removing a
	// token that does not exist is not an error.
	Invalidate(ctx context.Context, principalID string) error

	// Sweep removes stored tokens the valid func rejects and returns how
	// many were removed. The caller supplies token verification.
	Sweep(ctx context.Context, valid func(token string) bool) (int, error)
}

// MemoryRefreshTokenStore is an in-memory implementation of
// RefreshTokenStore. This is intended for development and testing only.
type MemoryRefreshTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryRefreshTokenStore creates a new in-memory refresh token store.
func NewMemoryRefreshTokenStore() *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{
		tokens: make(map[string]string),
	}
}

// Store records the current refresh token for a principal.
func (s *MemoryRefreshTokenStore) Store(ctx context.Context, principalID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[principalID] = token
	return nil
}

// Validate reports whether the given token is the currently stored token.
// The comparison is constant-time.
func (s *MemoryRefreshTokenStore) Validate(ctx context.Context, principalID, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.tokens[principalID]
	if !ok {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}

// Invalidate removes the stored token for a principal.
func (s *MemoryRefreshTokenStore) Invalidate(ctx context.Context, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, principalID)
	return nil
}

// Sweep removes stored tokens the valid func rejects.
func (s *MemoryRefreshTokenStore) Sweep(ctx context.Context, valid func(token string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for principalID, token := range s.tokens {
		if !valid(token) {
			delete(s.tokens, principalID)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored tokens.
func (s *MemoryRefreshTokenStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Clear removes all stored tokens.
func (s *MemoryRefreshTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}
