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

package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// RegisterStartHandler handles POST /api/v1/auth/register/start requests.
// It returns the credential creation options for the browser's WebAuthn
// API. No account is created until the ceremony completes.
func (s *Server) RegisterStartHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validUsername(req.Username) {
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	options, err := s.service.BeginRegistration(r.Context(), req.Username)
	if err != nil {
		s.authFailure(w, r, err)
		return
	}

	s.writeJSON(w, options, http.StatusOK)
}

// RegisterFinishHandler handles POST /api/v1/auth/register/finish requests.
// The attestation response is forwarded verbatim; on success the parent
// account exists and the credential is enrolled.
func (s *Server) RegisterFinishHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterFinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validUsername(req.Username) || !validCeremonyResponse(req.Response) {
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	parent, err := s.service.FinishRegistration(r.Context(), req.Username, bytes.NewReader(req.Response))
	if err != nil {
		s.authFailure(w, r, err)
		return
	}

	s.writeJSON(w, RegisterFinishResponse{
		Username:    parent.Username,
		Credentials: len(parent.Credentials),
	}, http.StatusCreated)
}

// LoginStartHandler handles POST /api/v1/auth/login/start requests. It
// returns the credential request options for the browser's WebAuthn API.
func (s *Server) LoginStartHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validUsername(req.Username) {
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	options, err := s.service.BeginLogin(r.Context(), req.Username)
	if err != nil {
		s.authFailure(w, r, err)
		return
	}

	s.writeJSON(w, options, http.StatusOK)
}

// LoginFinishHandler handles POST /api/v1/auth/login/finish requests. On
// success it returns an access and refresh token pair with the parent's
// public profile.
func (s *Server) LoginFinishHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginFinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validUsername(req.Username) || !validCeremonyResponse(req.Response) {
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	result, err := s.service.FinishLogin(r.Context(), req.Username, bytes.NewReader(req.Response))
	if err != nil {
		s.authFailure(w, r, err)
		return
	}

	s.writeJSON(w, result, http.StatusOK)
}

// ChildLoginHandler handles POST /api/v1/auth/child/login requests. The
// PIN must be exactly four digits; anything else is rejected before the
// store is consulted.
func (s *Server) ChildLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req ChildLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChildID == "" || !validPIN(req.PIN) {
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	result, err := s.service.LoginChild(r.Context(), req.ChildID, req.PIN)
	if err != nil {
		s.authFailure(w, r, err)
		return
	}

	s.writeJSON(w, result, http.StatusOK)
}

// RefreshHandler handles POST /api/v1/auth/refresh requests. A rejected
// refresh token means the session is gone and the client must log in again.
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	pair, err := s.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.refreshFailure(w, r, err)
		return
	}

	s.writeJSON(w, pair, http.StatusOK)
}

// LogoutHandler handles POST /api/v1/auth/logout requests. It revokes the
// authenticated principal's refresh token; the access token remains valid
// until it expires.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		s.writeError(w, ErrAuthenticationFailed, http.StatusUnauthorized)
		return
	}

	if err := s.service.Logout(r.Context(), claims.Subject); err != nil {
		s.logger.Error("logout failed", "principal_id", claims.Subject, "error", err)
		s.writeError(w, ErrInternalError, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, LogoutResponse{Message: "logged out"}, http.StatusOK)
}
