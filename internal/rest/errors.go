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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jeremyhahn/go-companion-auth/pkg/auth"
	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
	"github.com/jeremyhahn/go-companion-auth/pkg/token"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
	ErrForbidden      = errors.New("forbidden")

	// ErrAuthenticationFailed is the uniform error returned to clients for
	// every authentication failure. Unknown accounts, wrong PINs, failed
	// assertions and missing challenges are all indistinguishable on the
	// wire; the real cause is logged server-side.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// writeError writes an error response to the client.
func (s *Server) writeError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error: err.Error(),
		Code:  statusCode,
	}

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		s.logger.Error("Failed to encode error response", "error", encErr)
	}
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// authFailure maps a ceremony or login error to its client-facing status
// code. Malformed input is the client's fault and gets a 400; every
// authentication failure collapses to an opaque 401.
func (s *Server) authFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("authentication failure",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)

	switch {
	case errors.Is(err, auth.ErrMalformedResponse):
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
	case errors.Is(err, principal.ErrParentNotFound),
		errors.Is(err, principal.ErrChildNotFound),
		errors.Is(err, auth.ErrChallengeNotFound),
		errors.Is(err, auth.ErrCredentialNotFound),
		errors.Is(err, auth.ErrInvalidPIN):
		s.writeError(w, ErrAuthenticationFailed, http.StatusUnauthorized)
	default:
		// WebAuthn verification failures also collapse to the opaque 401.
		if errors.As(err, new(*auth.AuthError)) {
			s.writeError(w, ErrAuthenticationFailed, http.StatusUnauthorized)
			return
		}
		s.writeError(w, ErrInternalError, http.StatusInternalServerError)
	}
}

// refreshFailure maps a refresh rotation error to its client-facing status
// code. An expired, invalid, replayed or orphaned refresh token is a 403;
// the session is gone and the client must log in again.
func (s *Server) refreshFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("refresh failure",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)

	switch {
	case errors.Is(err, token.ErrTokenExpired),
		errors.Is(err, token.ErrTokenInvalid),
		errors.Is(err, auth.ErrRefreshTokenNotRecognized),
		errors.Is(err, auth.ErrPrincipalNotFound):
		s.writeError(w, ErrForbidden, http.StatusForbidden)
	default:
		s.writeError(w, ErrInternalError, http.StatusInternalServerError)
	}
}
