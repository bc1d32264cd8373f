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

package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(&Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	})
	require.NoError(t, err)
	return issuer
}

func TestNewIssuer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: "config is required",
		},
		{
			name:    "missing access secret",
			config:  &Config{RefreshSecret: []byte("r")},
			wantErr: "access secret is required",
		},
		{
			name:    "missing refresh secret",
			config:  &Config{AccessSecret: []byte("a")},
			wantErr: "refresh secret is required",
		},
		{
			name: "identical secrets",
			config: &Config{
				AccessSecret:  []byte("same"),
				RefreshSecret: []byte("same"),
			},
			wantErr: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIssuer(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIssuer_Defaults(t *testing.T) {
	issuer := newTestIssuer(t)
	assert.Equal(t, 15*time.Minute, issuer.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, issuer.RefreshTTL())
}

func TestIssuer_AccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	p := principal.Principal{ID: "parent-1", DisplayName: "alice", Role: principal.RoleParent}

	tokenString, err := issuer.IssueAccessToken(p)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := issuer.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "parent-1", claims.Subject)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, principal.RoleParent, claims.Role)
	assert.Equal(t, p, claims.Principal())
}

func TestIssuer_RefreshTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	p := principal.Principal{ID: "child-1", DisplayName: "Sam", Role: principal.RoleChild}

	tokenString, err := issuer.IssueRefreshToken(p)
	require.NoError(t, err)

	claims, err := issuer.VerifyRefreshToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "child-1", claims.Subject)
	assert.Equal(t, principal.RoleChild, claims.Role)
}

func TestIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	issuer := newTestIssuer(t)
	p := principal.Principal{ID: "parent-1", DisplayName: "alice", Role: principal.RoleParent}

	access, err := issuer.IssueAccessToken(p)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefreshToken(p)
	require.NoError(t, err)

	// An access token must not verify as a refresh token and vice versa
	_, err = issuer.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuer_ExpiredToken(t *testing.T) {
	issuer, err := NewIssuer(&Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     -time.Minute,
	})
	require.NoError(t, err)

	p := principal.Principal{ID: "parent-1", DisplayName: "alice", Role: principal.RoleParent}
	tokenString, err := issuer.IssueAccessToken(p)
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuer_GarbageToken(t *testing.T) {
	issuer := newTestIssuer(t)

	_, err := issuer.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.VerifyRefreshToken("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuer_TamperedToken(t *testing.T) {
	issuer := newTestIssuer(t)
	p := principal.Principal{ID: "parent-1", DisplayName: "alice", Role: principal.RoleParent}

	tokenString, err := issuer.IssueAccessToken(p)
	require.NoError(t, err)

	tampered := tokenString[:len(tokenString)-2] + "xx"
	_, err = issuer.VerifyAccessToken(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuer_TokensAreUnique(t *testing.T) {
	issuer := newTestIssuer(t)
	p := principal.Principal{ID: "parent-1", DisplayName: "alice", Role: principal.RoleParent}

	// Tokens minted within the same second must still differ, or refresh
	// rotation could reissue the exact token it just rotated out.
	first, err := issuer.IssueRefreshToken(p)
	require.NoError(t, err)
	second, err := issuer.IssueRefreshToken(p)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := issuer.VerifyRefreshToken(second)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}
