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
	"net/http"

	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
)

// CreateChildHandler handles POST /api/v1/children requests. Only a
// parent may create children, and only under their own account.
func (s *Server) CreateChildHandler(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req CreateChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || !validPIN(req.PIN) {
		s.writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	child, err := s.service.CreateChild(r.Context(), claims.Subject, req.Name, req.Age, req.GradeLevel, req.PIN)
	if err != nil {
		s.logger.Warn("create child failed", "parent_id", claims.Subject, "error", err)
		s.writeError(w, ErrInternalError, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, childInfo(child), http.StatusCreated)
}

// ListChildrenHandler handles GET /api/v1/children requests. It returns
// the authenticated parent's children without any PIN material.
func (s *Server) ListChildrenHandler(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	children, err := s.service.ListChildren(r.Context(), claims.Subject)
	if err != nil {
		s.logger.Warn("list children failed", "parent_id", claims.Subject, "error", err)
		s.writeError(w, ErrInternalError, http.StatusInternalServerError)
		return
	}

	resp := ListChildrenResponse{Children: make([]ChildInfo, 0, len(children))}
	for _, child := range children {
		resp.Children = append(resp.Children, childInfo(child))
	}

	s.writeJSON(w, resp, http.StatusOK)
}

func childInfo(child *principal.Child) ChildInfo {
	return ChildInfo{
		ID:         child.ID,
		Name:       child.Name,
		Age:        child.Age,
		GradeLevel: child.GradeLevel,
		CreatedAt:  child.CreatedAt,
	}
}
