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

// Package rest provides the HTTP API for the authentication service.
//
// All authentication failures are reported to clients as a uniform
// 401 "authentication failed" response so that callers cannot
// distinguish an unknown account from a bad credential. Detailed
// failure causes are logged server-side only.
package rest
