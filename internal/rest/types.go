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
	"time"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// RegisterStartRequest begins a passkey registration ceremony.
type RegisterStartRequest struct {
	Username string `json:"username"`
}

// RegisterFinishRequest completes a passkey registration ceremony. The
// Response field carries the authenticator's attestation response verbatim.
type RegisterFinishRequest struct {
	Username string          `json:"username"`
	Response json.RawMessage `json:"response"`
}

// RegisterFinishResponse represents a completed registration.
type RegisterFinishResponse struct {
	Username    string `json:"username"`
	Credentials int    `json:"credentials"`
}

// LoginStartRequest begins a passkey login ceremony.
type LoginStartRequest struct {
	Username string `json:"username"`
}

// LoginFinishRequest completes a passkey login ceremony. The Response
// field carries the authenticator's assertion response verbatim.
type LoginFinishRequest struct {
	Username string          `json:"username"`
	Response json.RawMessage `json:"response"`
}

// ChildLoginRequest authenticates a child with their PIN.
type ChildLoginRequest struct {
	ChildID string `json:"child_id"`
	PIN     string `json:"pin"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

// CreateChildRequest creates a child account under the authenticated parent.
type CreateChildRequest struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	GradeLevel string `json:"grade_level"`
	PIN        string `json:"pin"`
}

// ChildInfo represents a child account without PIN material.
type ChildInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	GradeLevel string    `json:"grade_level"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListChildrenResponse represents the response for listing children.
type ListChildrenResponse struct {
	Children []ChildInfo `json:"children"`
}
