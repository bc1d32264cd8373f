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

package principal

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParent_WebAuthnUser(t *testing.T) {
	parent := &Parent{
		ID:       "parent-1",
		Username: "alice@example.com",
	}

	// The user handle is derived from the username so that registration
	// can begin before the account record exists.
	assert.Equal(t, []byte("alice@example.com"), parent.WebAuthnID())
	assert.Equal(t, "alice@example.com", parent.WebAuthnName())
	assert.Equal(t, "alice@example.com", parent.WebAuthnDisplayName())
	assert.Empty(t, parent.WebAuthnCredentials())
}

func TestParent_CredentialManagement(t *testing.T) {
	parent := &Parent{ID: "parent-1", Username: "alice@example.com"}

	cred := &Credential{
		CredentialID: base64.RawURLEncoding.EncodeToString([]byte("cred-1")),
		PublicKey:    []byte{0x01, 0x02},
		SignCount:    0,
	}
	parent.AddCredential(cred)

	require.Len(t, parent.Credentials, 1)
	assert.Len(t, parent.WebAuthnCredentials(), 1)
	assert.Len(t, parent.ExcludeList(), 1)
	assert.EqualValues(t, []byte("cred-1"), parent.ExcludeList()[0].CredentialID)

	// Update the sign counter
	updated := *cred
	updated.SignCount = 5
	parent.UpdateCredential(&updated)
	assert.Equal(t, uint32(5), parent.Credentials[0].SignCount)

	found := parent.FindCredential(cred.CredentialID)
	require.NotNil(t, found)
	assert.Equal(t, uint32(5), found.SignCount)

	assert.Nil(t, parent.FindCredential("missing"))
}

func TestCredential_WebAuthnRoundTrip(t *testing.T) {
	wc := &webauthn.Credential{
		ID:              []byte("raw-credential-id"),
		PublicKey:       []byte{0xA0, 0xA1},
		AttestationType: "none",
		Authenticator: webauthn.Authenticator{
			SignCount: 7,
		},
	}

	cred := FromWebAuthnCredential(wc)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(wc.ID), cred.CredentialID)
	assert.Equal(t, []byte("raw-credential-id"), cred.RawID())
	assert.False(t, cred.CreatedAt.IsZero())

	back := cred.ToWebAuthn()
	assert.Equal(t, wc.ID, back.ID)
	assert.Equal(t, wc.PublicKey, back.PublicKey)
	assert.Equal(t, uint32(7), back.Authenticator.SignCount)
}

func TestChild_PIN(t *testing.T) {
	hash, err := HashPIN("1234")
	require.NoError(t, err)

	child := &Child{
		ID:      "child-1",
		Name:    "Sam",
		PINHash: hash,
	}

	assert.True(t, child.CheckPIN("1234"))
	assert.False(t, child.CheckPIN("4321"))
	assert.False(t, child.CheckPIN(""))
}

func TestChild_PINHashNeverSerialized(t *testing.T) {
	hash, err := HashPIN("1234")
	require.NoError(t, err)

	child := &Child{ID: "child-1", Name: "Sam", PINHash: hash}

	data, err := json.Marshal(child)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "PINHash")
	assert.NotContains(t, string(data), base64.StdEncoding.EncodeToString(hash))
}

func TestPrincipal_Projection(t *testing.T) {
	parent := &Parent{ID: "p1", Username: "alice@example.com"}
	pp := parent.Principal()
	assert.Equal(t, "p1", pp.ID)
	assert.Equal(t, "alice@example.com", pp.DisplayName)
	assert.Equal(t, RoleParent, pp.Role)

	child := &Child{ID: "c1", Name: "Sam"}
	cp := child.Principal()
	assert.Equal(t, "c1", cp.ID)
	assert.Equal(t, "Sam", cp.DisplayName)
	assert.Equal(t, RoleChild, cp.Role)
}
