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

import "net/http"

// HealthHandler handles GET /health requests.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{
		Status:  "healthy",
		Version: s.version,
	}, http.StatusOK)
}

// LivenessHandler handles GET /health/live requests. It only fails if
// the process is in an unrecoverable state, which an in-memory service
// never reports, so it always returns healthy.
func (s *Server) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// ReadinessHandler handles GET /health/ready requests.
func (s *Server) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}
