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
	"errors"
	"fmt"
)

// Sentinel errors for authentication operations.
var (
	// ErrChallengeNotFound is returned when no pending challenge exists
	// for a principal, or the challenge has expired.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrMalformedResponse is returned when a client ceremony response
	// cannot be parsed.
	ErrMalformedResponse = errors.New("malformed ceremony response")

	// ErrCredentialNotFound is returned when an assertion references a
	// credential that is not enrolled for the user.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrInvalidPIN is returned when a child login PIN does not match.
	ErrInvalidPIN = errors.New("invalid pin")

	// ErrRefreshTokenNotRecognized is returned when a refresh token is
	// cryptographically valid but is not the currently stored token for
	// its principal. The stored token is invalidated as a precaution.
	ErrRefreshTokenNotRecognized = errors.New("refresh token not recognized")

	// ErrPrincipalNotFound is returned when the principal referenced by a
	// refresh token no longer exists.
	ErrPrincipalNotFound = errors.New("principal not found")
)

// AuthError wraps an error with the operation that produced it.
type AuthError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *AuthError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *AuthError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new AuthError with the given operation and error.
func NewError(op string, err error) error {
	return &AuthError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsChallengeNotFound returns true if the error indicates a missing or
// expired challenge.
func IsChallengeNotFound(err error) bool {
	return errors.Is(err, ErrChallengeNotFound)
}

// IsMalformedResponse returns true if the error indicates an unparseable
// ceremony response.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsInvalidPIN returns true if the error indicates a failed PIN check.
func IsInvalidPIN(err error) bool {
	return errors.Is(err, ErrInvalidPIN)
}

// IsRefreshTokenNotRecognized returns true if the error indicates a refresh
// token that is not the currently stored one.
func IsRefreshTokenNotRecognized(err error) bool {
	return errors.Is(err, ErrRefreshTokenNotRecognized)
}
