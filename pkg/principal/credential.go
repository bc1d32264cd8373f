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
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Credential is a passkey enrolled for a parent account.
type Credential struct {
	// CredentialID is the authenticator-assigned credential identifier,
	// base64url encoded as the client reports it.
	CredentialID string `json:"credential_id"`

	// PublicKey is the credential's public key in COSE format.
	PublicKey []byte `json:"public_key"`

	// AttestationType indicates the type of attestation used at enrollment.
	AttestationType string `json:"attestation_type"`

	// Transport lists the transports supported by the authenticator.
	Transport []protocol.AuthenticatorTransport `json:"transport,omitempty"`

	// SignCount is the signature counter reported by the authenticator.
	// Expected to be non-decreasing across assertions.
	SignCount uint32 `json:"sign_count"`

	// CloneWarning records that an assertion arrived with a counter at or
	// below the stored value, which can indicate a cloned authenticator.
	CloneWarning bool `json:"clone_warning"`

	// CreatedAt is when the credential was enrolled.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the credential last completed a login.
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// RawID returns the decoded credential ID bytes.
func (c *Credential) RawID() []byte {
	raw, err := base64.RawURLEncoding.DecodeString(c.CredentialID)
	if err != nil {
		return nil
	}
	return raw
}

// ToWebAuthn converts the credential to the go-webauthn library's type.
func (c *Credential) ToWebAuthn() webauthn.Credential {
	return webauthn.Credential{
		ID:              c.RawID(),
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       c.Transport,
		Authenticator: webauthn.Authenticator{
			SignCount:    c.SignCount,
			CloneWarning: c.CloneWarning,
		},
	}
}

// FromWebAuthnCredential creates a Credential from the go-webauthn type
// returned by a successful registration ceremony.
func FromWebAuthnCredential(wc *webauthn.Credential) *Credential {
	return &Credential{
		CredentialID:    base64.RawURLEncoding.EncodeToString(wc.ID),
		PublicKey:       wc.PublicKey,
		AttestationType: wc.AttestationType,
		Transport:       wc.Transport,
		SignCount:       wc.Authenticator.SignCount,
		CloneWarning:    wc.Authenticator.CloneWarning,
		CreatedAt:       time.Now().UTC(),
	}
}
