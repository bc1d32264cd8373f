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

// Package principal defines the account model for the learning companion:
// parents who authenticate with passkeys and children who authenticate with
// a short PIN. Both project into a common Principal used for token issuance.
package principal

import (
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Role identifies the kind of account a principal represents.
type Role string

const (
	// RoleParent is a parent account authenticated via WebAuthn.
	RoleParent Role = "parent"

	// RoleChild is a child account authenticated via PIN.
	RoleChild Role = "child"
)

// Principal is the common projection of a parent or child used for
// token issuance and request authorization.
type Principal struct {
	// ID is the stable account identifier (token subject).
	ID string `json:"id"`

	// DisplayName is the human-readable name of the account.
	DisplayName string `json:"name"`

	// Role is the account kind.
	Role Role `json:"role"`
}

// Parent is a parent account. Parents own passkey credentials and are the
// WebAuthn user for registration and login ceremonies.
type Parent struct {
	// ID is the account identifier used as the token subject and as the
	// refresh token store key.
	ID string `json:"id"`

	// Username is the login name. It doubles as the WebAuthn user handle
	// so that registration can begin before the account record exists.
	Username string `json:"username"`

	// Credentials are the passkeys enrolled for this parent.
	Credentials []*Credential `json:"credentials"`

	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// WebAuthnID returns the WebAuthn user handle.
func (p *Parent) WebAuthnID() []byte {
	return []byte(p.Username)
}

// WebAuthnName returns the username.
func (p *Parent) WebAuthnName() string {
	return p.Username
}

// WebAuthnDisplayName returns the name shown by the authenticator UI.
func (p *Parent) WebAuthnDisplayName() string {
	return p.Username
}

// WebAuthnCredentials returns the enrolled credentials in the form the
// go-webauthn library expects.
func (p *Parent) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, len(p.Credentials))
	for i, c := range p.Credentials {
		creds[i] = c.ToWebAuthn()
	}
	return creds
}

// AddCredential appends a newly enrolled credential.
func (p *Parent) AddCredential(cred *Credential) {
	p.Credentials = append(p.Credentials, cred)
}

// UpdateCredential replaces the stored credential with the same ID.
func (p *Parent) UpdateCredential(cred *Credential) {
	for i, c := range p.Credentials {
		if c.CredentialID == cred.CredentialID {
			p.Credentials[i] = cred
			return
		}
	}
}

// FindCredential returns the enrolled credential with the given base64url
// credential ID, or nil if no such credential exists.
func (p *Parent) FindCredential(credentialID string) *Credential {
	for _, c := range p.Credentials {
		if c.CredentialID == credentialID {
			return c
		}
	}
	return nil
}

// ExcludeList returns credential descriptors for all enrolled credentials,
// used to prevent re-registering the same authenticator.
func (p *Parent) ExcludeList() []protocol.CredentialDescriptor {
	list := make([]protocol.CredentialDescriptor, len(p.Credentials))
	for i, c := range p.Credentials {
		list[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: c.RawID(),
			Transport:    c.Transport,
		}
	}
	return list
}

// Principal returns the common projection for token issuance.
func (p *Parent) Principal() Principal {
	return Principal{
		ID:          p.ID,
		DisplayName: p.Username,
		Role:        RoleParent,
	}
}
