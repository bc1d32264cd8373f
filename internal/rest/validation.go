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
	"regexp"
)

// WebAuthn caps user handles at 64 bytes, and the username doubles as
// the user handle.
const maxUsernameLength = 64

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// validUsername reports whether a username is acceptable as a WebAuthn
// user handle.
func validUsername(username string) bool {
	return username != "" && len(username) <= maxUsernameLength
}

// validPIN reports whether a child PIN has the required four digit form.
func validPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// validCeremonyResponse reports whether a ceremony response body carries
// anything to parse. An omitted field decodes as the literal null, which
// is as empty as a missing one.
func validCeremonyResponse(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
