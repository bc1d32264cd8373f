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

// Package auth implements the authentication flows of the learning
// companion: passkey registration and login for parents, PIN login for
// children, and refresh token rotation for both.
package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/jeremyhahn/go-companion-auth/pkg/metrics"
	"github.com/jeremyhahn/go-companion-auth/pkg/passkey"
	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
	"github.com/jeremyhahn/go-companion-auth/pkg/token"
)

// LoginResult is returned by flows that establish a new session.
type LoginResult struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	User         principal.Principal `json:"user"`
}

// TokenPair is returned by refresh token rotation.
type TokenPair struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	User         principal.Principal `json:"user"`
}

// Service orchestrates the authentication flows.
type Service struct {
	engine     *passkey.Engine
	parents    principal.ParentStore
	children   principal.ChildStore
	issuer     *token.Issuer
	challenges ChallengeCache
	refresh    RefreshTokenStore
	logger     *slog.Logger
}

// ServiceParams contains dependencies for creating an auth service.
type ServiceParams struct {
	// Engine performs WebAuthn ceremonies (required).
	Engine *passkey.Engine

	// ParentStore is the parent account persistence layer (required).
	ParentStore principal.ParentStore

	// ChildStore is the child account persistence layer (required).
	ChildStore principal.ChildStore

	// Issuer creates and verifies tokens (required).
	Issuer *token.Issuer

	// ChallengeCache holds pending ceremony state (required).
	ChallengeCache ChallengeCache

	// RefreshTokenStore tracks the current refresh token per principal
	// (required).
	RefreshTokenStore RefreshTokenStore

	// Logger is an optional structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewService creates a new auth service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if params.ParentStore == nil {
		return nil, fmt.Errorf("parent store is required")
	}
	if params.ChildStore == nil {
		return nil, fmt.Errorf("child store is required")
	}
	if params.Issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if params.ChallengeCache == nil {
		return nil, fmt.Errorf("challenge cache is required")
	}
	if params.RefreshTokenStore == nil {
		return nil, fmt.Errorf("refresh token store is required")
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		engine:     params.Engine,
		parents:    params.ParentStore,
		children:   params.ChildStore,
		issuer:     params.Issuer,
		challenges: params.ChallengeCache,
		refresh:    params.RefreshTokenStore,
		logger:     logger,
	}, nil
}

// BeginRegistration starts a passkey registration ceremony for a username.
// The username does not need an existing account; the account is created
// when the ceremony completes. Any pending challenge for the username is
// replaced.
func (s *Service) BeginRegistration(ctx context.Context, username string) (*protocol.CredentialCreation, error) {
	// An existing parent contributes an exclude list so the same
	// authenticator cannot be enrolled twice.
	user, exclusions := s.registrationUser(ctx, username)

	options, session, err := s.engine.BeginRegistration(user, exclusions)
	if err != nil {
		return nil, WrapError("begin registration", err)
	}

	if err := s.challenges.Put(ctx, username, session); err != nil {
		return nil, WrapError("store challenge", err)
	}

	return options, nil
}

// FinishRegistration completes a passkey registration ceremony. The
// challenge is consumed regardless of the outcome, so a failed attempt
// requires starting over. On success the parent account is created if it
// does not already exist and the new credential is enrolled.
func (s *Service) FinishRegistration(ctx context.Context, username string, response io.Reader) (*principal.Parent, error) {
	session, err := s.challenges.TakeAndClear(ctx, username)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowRegister, metrics.StatusFailure)
		return nil, WrapError("take challenge", err)
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(response)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowRegister, metrics.StatusFailure)
		return nil, NewError("parse attestation", ErrMalformedResponse)
	}

	user, _ := s.registrationUser(ctx, username)
	credential, err := s.engine.FinishRegistration(user, *session, parsed)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowRegister, metrics.StatusFailure)
		return nil, WrapError("verify attestation", err)
	}

	parent, err := s.parents.FindOrCreate(ctx, username)
	if err != nil {
		return nil, WrapError("find or create parent", err)
	}

	parent.AddCredential(principal.FromWebAuthnCredential(credential))
	if err := s.parents.Save(ctx, parent); err != nil {
		return nil, WrapError("save parent", err)
	}

	metrics.RecordAuthAttempt(metrics.FlowRegister, metrics.StatusSuccess)
	s.logger.Info("passkey registered",
		"username", username,
		"credentials", len(parent.Credentials))

	return parent, nil
}

// BeginLogin starts a passkey login ceremony for an existing parent. Any
// pending challenge for the username is replaced.
func (s *Service) BeginLogin(ctx context.Context, username string) (*protocol.CredentialAssertion, error) {
	parent, err := s.parents.GetByUsername(ctx, username)
	if err != nil {
		return nil, WrapError("get parent", err)
	}

	options, session, err := s.engine.BeginLogin(parent)
	if err != nil {
		return nil, WrapError("begin login", err)
	}

	if err := s.challenges.Put(ctx, username, session); err != nil {
		return nil, WrapError("store challenge", err)
	}

	return options, nil
}

// FinishLogin completes a passkey login ceremony. On success the
// credential's sign counter is persisted and a token pair is issued. The
// refresh token becomes the principal's single valid refresh token.
func (s *Service) FinishLogin(ctx context.Context, username string, response io.Reader) (*LoginResult, error) {
	session, err := s.challenges.TakeAndClear(ctx, username)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowLogin, metrics.StatusFailure)
		return nil, WrapError("take challenge", err)
	}

	parent, err := s.parents.GetByUsername(ctx, username)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowLogin, metrics.StatusFailure)
		return nil, WrapError("get parent", err)
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(response)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowLogin, metrics.StatusFailure)
		return nil, NewError("parse assertion", ErrMalformedResponse)
	}

	credential, err := s.engine.FinishLogin(parent, *session, parsed)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowLogin, metrics.StatusFailure)
		return nil, WrapError("verify assertion", err)
	}

	if err := s.persistCounter(ctx, parent, credential); err != nil {
		return nil, err
	}

	result, err := s.issueSession(ctx, parent.Principal())
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthAttempt(metrics.FlowLogin, metrics.StatusSuccess)
	s.logger.Info("parent logged in", "username", username)

	return result, nil
}

// LoginChild authenticates a child by ID and PIN. On success a token pair
// is issued with role child; the returned user carries no PIN material.
func (s *Service) LoginChild(ctx context.Context, childID, pin string) (*LoginResult, error) {
	child, err := s.children.GetByID(ctx, childID)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowChildLogin, metrics.StatusFailure)
		return nil, WrapError("get child", err)
	}

	if !child.CheckPIN(pin) {
		metrics.RecordAuthAttempt(metrics.FlowChildLogin, metrics.StatusFailure)
		return nil, NewError("check pin", ErrInvalidPIN)
	}

	result, err := s.issueSession(ctx, child.Principal())
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthAttempt(metrics.FlowChildLogin, metrics.StatusSuccess)
	s.logger.Info("child logged in", "child_id", childID)

	return result, nil
}

// Refresh rotates a refresh token: the presented token must verify and
// match the stored token for its principal, the principal must still
// exist, and on success a fresh pair is issued with the new refresh token
// replacing the old one. A valid-but-unrecognized token invalidates the
// stored token for that principal, forcing a full re-login.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.FlowRefresh, metrics.StatusFailure)
		return nil, WrapError("verify refresh token", err)
	}

	principalID := claims.Subject

	ok, err := s.refresh.Validate(ctx, principalID, refreshToken)
	if err != nil {
		return nil, WrapError("validate refresh token", err)
	}
	if !ok {
		// Possible replay of a rotated token. Kill the active session.
		if err := s.refresh.Invalidate(ctx, principalID); err != nil {
			s.logger.Warn("failed to invalidate refresh token",
				"principal_id", principalID, "error", err)
		}
		metrics.RecordAuthAttempt(metrics.FlowRefresh, metrics.StatusFailure)
		return nil, NewError("validate refresh token", ErrRefreshTokenNotRecognized)
	}

	p, err := s.resolvePrincipal(ctx, principalID)
	if err != nil {
		if err := s.refresh.Invalidate(ctx, principalID); err != nil {
			s.logger.Warn("failed to invalidate refresh token",
				"principal_id", principalID, "error", err)
		}
		metrics.RecordAuthAttempt(metrics.FlowRefresh, metrics.StatusFailure)
		return nil, NewError("resolve principal", ErrPrincipalNotFound)
	}

	result, err := s.issueSession(ctx, p)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthAttempt(metrics.FlowRefresh, metrics.StatusSuccess)
	metrics.RecordRefreshRotation()

	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}, nil
}

// Logout invalidates the stored refresh token for a principal. The access
// token remains valid until it expires.
func (s *Service) Logout(ctx context.Context, principalID string) error {
	return WrapError("logout", s.refresh.Invalidate(ctx, principalID))
}

// CreateChild creates a child account under a parent. The PIN is stored
// only as a bcrypt hash.
func (s *Service) CreateChild(ctx context.Context, parentID, name string, age int, gradeLevel, pin string) (*principal.Child, error) {
	if _, err := s.parents.GetByID(ctx, parentID); err != nil {
		return nil, WrapError("get parent", err)
	}

	hash, err := principal.HashPIN(pin)
	if err != nil {
		return nil, WrapError("hash pin", err)
	}

	child := &principal.Child{
		ParentID:   parentID,
		Name:       name,
		Age:        age,
		GradeLevel: gradeLevel,
		PINHash:    hash,
	}
	if err := s.children.Create(ctx, child); err != nil {
		return nil, WrapError("create child", err)
	}

	s.logger.Info("child created", "parent_id", parentID, "child_id", child.ID)
	return child, nil
}

// ListChildren returns the children belonging to a parent.
func (s *Service) ListChildren(ctx context.Context, parentID string) ([]*principal.Child, error) {
	children, err := s.children.ListByParent(ctx, parentID)
	if err != nil {
		return nil, WrapError("list children", err)
	}
	return children, nil
}

// SweepExpiredTokens removes stored refresh tokens that no longer verify
// and returns how many were removed.
func (s *Service) SweepExpiredTokens(ctx context.Context) int {
	removed, err := s.refresh.Sweep(ctx, func(tok string) bool {
		_, err := s.issuer.VerifyRefreshToken(tok)
		return err == nil
	})
	if err != nil {
		s.logger.Warn("refresh token sweep failed", "error", err)
		return 0
	}

	if removed > 0 {
		metrics.RecordTokensSwept(removed)
		s.logger.Info("swept expired refresh tokens", "removed", removed)
	}
	return removed
}

// RunSweeper starts a background loop that periodically sweeps expired
// refresh tokens and stale challenges. The loop stops when the returned
// cancel func is called or the context is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.SweepExpiredTokens(ctx)
				if cleaner, ok := s.challenges.(interface{ Cleanup() int }); ok {
					cleaner.Cleanup()
				}
				s.updateStoreGauges()
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}

// registrationUser returns the WebAuthn user for a registration ceremony.
// An existing parent is used as-is; otherwise a transient parent carries
// the username as user handle until the account is created at finish.
func (s *Service) registrationUser(ctx context.Context, username string) (webauthn.User, []protocol.CredentialDescriptor) {
	parent, err := s.parents.GetByUsername(ctx, username)
	if err == nil {
		return parent, parent.ExcludeList()
	}
	return &principal.Parent{Username: username}, nil
}

// persistCounter records the credential's post-assertion sign counter on
// the parent. A counter regression is accepted but flagged, since it can
// indicate a cloned authenticator.
func (s *Service) persistCounter(ctx context.Context, parent *principal.Parent, credential *webauthn.Credential) error {
	stored := parent.FindCredential(principal.FromWebAuthnCredential(credential).CredentialID)
	if stored == nil {
		return NewError("update credential", ErrCredentialNotFound)
	}

	if credential.Authenticator.CloneWarning {
		s.logger.Warn("sign counter regression detected",
			"username", parent.Username,
			"credential_id", stored.CredentialID,
			"stored_count", stored.SignCount,
			"reported_count", credential.Authenticator.SignCount)
		stored.CloneWarning = true
	}

	stored.SignCount = credential.Authenticator.SignCount
	stored.LastUsedAt = time.Now().UTC()

	if err := s.parents.Save(ctx, parent); err != nil {
		return WrapError("save parent", err)
	}
	return nil
}

// issueSession issues a token pair and stores the refresh token as the
// principal's single valid refresh token.
func (s *Service) issueSession(ctx context.Context, p principal.Principal) (*LoginResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(p)
	if err != nil {
		return nil, WrapError("issue access token", err)
	}

	refreshToken, err := s.issuer.IssueRefreshToken(p)
	if err != nil {
		return nil, WrapError("issue refresh token", err)
	}

	if err := s.refresh.Store(ctx, p.ID, refreshToken); err != nil {
		return nil, WrapError("store refresh token", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         p,
	}, nil
}

// resolvePrincipal looks up a principal by ID, trying parents first and
// then children.
func (s *Service) resolvePrincipal(ctx context.Context, principalID string) (principal.Principal, error) {
	if parent, err := s.parents.GetByID(ctx, principalID); err == nil {
		return parent.Principal(), nil
	}

	child, err := s.children.GetByID(ctx, principalID)
	if err != nil {
		return principal.Principal{}, err
	}
	return child.Principal(), nil
}

// updateStoreGauges refreshes the challenge and refresh token gauges when
// the configured stores expose counts.
func (s *Service) updateStoreGauges() {
	if counter, ok := s.challenges.(interface{ Count() int }); ok {
		metrics.SetChallengesOutstanding(counter.Count())
	}
	if counter, ok := s.refresh.(interface{ Count() int }); ok {
		metrics.SetRefreshTokensStored(counter.Count())
	}
}
