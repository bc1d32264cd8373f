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

package passkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		RPID:          "example.com",
		RPDisplayName: "Learning Companion",
		RPOrigins:     []string{"https://example.com"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing RPID",
			mutate:  func(c *Config) { c.RPID = "" },
			wantErr: "RPID is required",
		},
		{
			name:    "missing display name",
			mutate:  func(c *Config) { c.RPDisplayName = "" },
			wantErr: "RPDisplayName is required",
		},
		{
			name:    "missing origins",
			mutate:  func(c *Config) { c.RPOrigins = nil },
			wantErr: "at least one RPOrigin is required",
		},
		{
			name:    "invalid user verification",
			mutate:  func(c *Config) { c.UserVerification = "sometimes" },
			wantErr: "invalid user verification",
		},
		{
			name:    "invalid attestation",
			mutate:  func(c *Config) { c.AttestationPreference = "full" },
			wantErr: "invalid attestation preference",
		},
		{
			name:    "invalid resident key",
			mutate:  func(c *Config) { c.ResidentKeyRequirement = "maybe" },
			wantErr: "invalid resident key requirement",
		},
		{
			name:    "invalid attachment",
			mutate:  func(c *Config) { c.AuthenticatorAttachment = "usb" },
			wantErr: "invalid authenticator attachment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.SetDefaults()

	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "preferred", cfg.UserVerification)
	assert.Equal(t, "none", cfg.AttestationPreference)
	assert.Equal(t, "preferred", cfg.ResidentKeyRequirement)
}

func TestConfig_ToWebAuthnConfig(t *testing.T) {
	cfg := validConfig()
	cfg.SetDefaults()

	wcfg := cfg.ToWebAuthnConfig()
	assert.Equal(t, "example.com", wcfg.RPID)
	assert.Equal(t, "Learning Companion", wcfg.RPDisplayName)
	assert.Equal(t, []string{"https://example.com"}, wcfg.RPOrigins)
	assert.True(t, wcfg.Timeouts.Login.Enforce)
	assert.Equal(t, 2*time.Minute, wcfg.Timeouts.Registration.Timeout)
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil)
	require.Error(t, err)

	_, err = NewEngine(&Config{})
	require.Error(t, err)

	engine, err := NewEngine(validConfig())
	require.NoError(t, err)
	require.NotNil(t, engine)
	assert.Equal(t, "example.com", engine.Config().RPID)
}
