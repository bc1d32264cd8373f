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

// Package token issues and verifies the JWT access and refresh tokens used
// by the companion auth service. Access and refresh tokens are signed with
// separate HS256 secrets so one class of token can never stand in for the
// other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
)

// Sentinel errors for token verification.
var (
	// ErrTokenInvalid is returned when a token fails signature or claim
	// validation for any reason other than expiry.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned when a token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are the JWT claims carried by both token classes.
type Claims struct {
	// Name is the principal's display name.
	Name string `json:"name"`

	// Role is the principal's role (parent or child).
	Role principal.Role `json:"role"`

	jwt.RegisteredClaims
}

// Principal reconstructs the principal projection from the claims.
func (c *Claims) Principal() principal.Principal {
	return principal.Principal{
		ID:          c.Subject,
		DisplayName: c.Name,
		Role:        c.Role,
	}
}

// Config configures the token issuer.
type Config struct {
	// AccessSecret signs access tokens (required).
	AccessSecret []byte `yaml:"-" json:"-"`

	// RefreshSecret signs refresh tokens (required, must differ from
	// AccessSecret).
	RefreshSecret []byte `yaml:"-" json:"-"`

	// AccessTTL is the access token lifetime. Default: 15 minutes.
	AccessTTL time.Duration `yaml:"access_ttl" json:"access_ttl"`

	// RefreshTTL is the refresh token lifetime. Default: 7 days.
	RefreshTTL time.Duration `yaml:"refresh_ttl" json:"refresh_ttl"`

	// Issuer is the JWT issuer claim. Default: "companion-auth".
	Issuer string `yaml:"issuer" json:"issuer"`
}

// SetDefaults sets default values for unset configuration fields.
func (c *Config) SetDefaults() {
	if c.AccessTTL == 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	if c.Issuer == "" {
		c.Issuer = "companion-auth"
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.AccessSecret) == 0 {
		return fmt.Errorf("access secret is required")
	}
	if len(c.RefreshSecret) == 0 {
		return fmt.Errorf("refresh secret is required")
	}
	if string(c.AccessSecret) == string(c.RefreshSecret) {
		return fmt.Errorf("access and refresh secrets must differ")
	}
	return nil
}

// Issuer creates and verifies access and refresh tokens.
type Issuer struct {
	config *Config
}

// NewIssuer creates a new token issuer with the given configuration.
func NewIssuer(config *Config) (*Issuer, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Issuer{config: config}, nil
}

// IssueAccessToken creates a signed access token for the principal.
func (i *Issuer) IssueAccessToken(p principal.Principal) (string, error) {
	return i.sign(p, i.config.AccessSecret, i.config.AccessTTL)
}

// IssueRefreshToken creates a signed refresh token for the principal.
func (i *Issuer) IssueRefreshToken(p principal.Principal) (string, error) {
	return i.sign(p, i.config.RefreshSecret, i.config.RefreshTTL)
}

// VerifyAccessToken verifies an access token and returns its claims.
func (i *Issuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	return i.verify(tokenString, i.config.AccessSecret)
}

// VerifyRefreshToken verifies a refresh token and returns its claims.
func (i *Issuer) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return i.verify(tokenString, i.config.RefreshSecret)
}

// AccessTTL returns the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.config.AccessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.config.RefreshTTL
}

func (i *Issuer) sign(p principal.Principal, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		Name: p.DisplayName,
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every token unique. Timestamps alone have
			// second granularity, so two tokens minted in the same second
			// for the same principal would otherwise be byte-identical
			// and rotation could reissue the token it just rotated out.
			ID:        uuid.NewString(),
			Subject:   p.ID,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
