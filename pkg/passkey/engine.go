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

// Package passkey wraps the go-webauthn library behind a small ceremony
// engine. The engine is stateless: challenge persistence between the begin
// and finish halves of a ceremony is the caller's responsibility.
package passkey

import (
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Sentinel errors for ceremony outcomes.
var (
	// ErrNoCredentials is returned when a login is begun for a user with
	// no enrolled credentials.
	ErrNoCredentials = errors.New("user has no registered credentials")

	// ErrVerificationFailed is returned when an attestation or assertion
	// fails cryptographic verification.
	ErrVerificationFailed = errors.New("verification failed")
)

// Engine performs WebAuthn registration and authentication ceremonies.
type Engine struct {
	webauthn *webauthn.WebAuthn
	config   *Config
}

// NewEngine creates a new ceremony engine with the given configuration.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	wa, err := webauthn.New(config.ToWebAuthnConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn instance: %w", err)
	}

	return &Engine{
		webauthn: wa,
		config:   config,
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// BeginRegistration starts a registration ceremony for the user.
// The exclusions list prevents re-enrolling an already registered
// authenticator.
func (e *Engine) BeginRegistration(user webauthn.User, exclusions []protocol.CredentialDescriptor) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	options, session, err := e.webauthn.BeginRegistration(user,
		webauthn.WithExclusions(exclusions),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("begin registration: %w", err)
	}
	return options, session, nil
}

// FinishRegistration verifies an attestation response against the pending
// session and returns the newly created credential.
func (e *Engine) FinishRegistration(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	credential, err := e.webauthn.CreateCredential(user, session, response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return credential, nil
}

// BeginLogin starts an authentication ceremony for the user. The resulting
// options carry an allow-list of the user's enrolled credentials.
func (e *Engine) BeginLogin(user webauthn.User) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	if len(user.WebAuthnCredentials()) == 0 {
		return nil, nil, ErrNoCredentials
	}

	options, session, err := e.webauthn.BeginLogin(user)
	if err != nil {
		return nil, nil, fmt.Errorf("begin login: %w", err)
	}
	return options, session, nil
}

// FinishLogin verifies an assertion response against the pending session
// and returns the credential that produced it, with its updated sign
// counter and clone warning state.
func (e *Engine) FinishLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error) {
	credential, err := e.webauthn.ValidateLogin(user, session, response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return credential, nil
}
