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
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Child is a child account. Children belong to a parent and authenticate
// with a short numeric PIN instead of a passkey.
type Child struct {
	// ID is the account identifier used as the token subject and as the
	// refresh token store key.
	ID string `json:"id"`

	// ParentID is the owning parent account.
	ParentID string `json:"parent_id"`

	// Name is the child's display name.
	Name string `json:"name"`

	// Age is the child's age in years.
	Age int `json:"age,omitempty"`

	// GradeLevel is the child's school grade.
	GradeLevel string `json:"grade_level,omitempty"`

	// PINHash is the bcrypt hash of the child's PIN. Never serialized.
	PINHash []byte `json:"-"`

	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// HashPIN hashes a PIN for storage using bcrypt.
func HashPIN(pin string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
}

// CheckPIN reports whether the given PIN matches the stored hash.
// bcrypt performs a constant-time comparison internally.
func (c *Child) CheckPIN(pin string) bool {
	return bcrypt.CompareHashAndPassword(c.PINHash, []byte(pin)) == nil
}

// Principal returns the common projection for token issuance.
func (c *Child) Principal() Principal {
	return Principal{
		ID:          c.ID,
		DisplayName: c.Name,
		Role:        RoleChild,
	}
}
