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
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for principal lookups.
var (
	// ErrParentNotFound is returned when a parent account cannot be found.
	ErrParentNotFound = errors.New("parent not found")

	// ErrChildNotFound is returned when a child account cannot be found.
	ErrChildNotFound = errors.New("child not found")

	// ErrChildAlreadyExists is returned when creating a duplicate child.
	ErrChildAlreadyExists = errors.New("child already exists")
)

// ParentStore is the persistence layer for parent accounts.
type ParentStore interface {
	// GetByUsername retrieves a parent by login name.
	GetByUsername(ctx context.Context, username string) (*Parent, error)

	// GetByID retrieves a parent by account identifier.
	GetByID(ctx context.Context, id string) (*Parent, error)

	// FindOrCreate returns the parent with the given username, creating
	// the account atomically if it does not exist.
	FindOrCreate(ctx context.Context, username string) (*Parent, error)

	// Save persists changes to an existing parent.
	Save(ctx context.Context, parent *Parent) error
}

// ChildStore is the persistence layer for child accounts.
type ChildStore interface {
	// GetByID retrieves a child by account identifier.
	GetByID(ctx context.Context, id string) (*Child, error)

	// Create persists a new child account.
	Create(ctx context.Context, child *Child) error

	// ListByParent returns all children belonging to a parent.
	ListByParent(ctx context.Context, parentID string) ([]*Child, error)
}

// MemoryParentStore is an in-memory implementation of ParentStore.
// This is intended for development and testing only.
type MemoryParentStore struct {
	mu         sync.RWMutex
	byID       map[string]*Parent
	byUsername map[string]*Parent
}

// NewMemoryParentStore creates a new in-memory parent store.
func NewMemoryParentStore() *MemoryParentStore {
	return &MemoryParentStore{
		byID:       make(map[string]*Parent),
		byUsername: make(map[string]*Parent),
	}
}

// GetByUsername retrieves a parent by login name.
func (s *MemoryParentStore) GetByUsername(ctx context.Context, username string) (*Parent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.byUsername[username]
	if !ok {
		return nil, ErrParentNotFound
	}
	return parent, nil
}

// GetByID retrieves a parent by account identifier.
func (s *MemoryParentStore) GetByID(ctx context.Context, id string) (*Parent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.byID[id]
	if !ok {
		return nil, ErrParentNotFound
	}
	return parent, nil
}

// FindOrCreate returns the parent with the given username, creating the
// account if it does not exist. The lookup and insert happen under one
// lock so concurrent callers observe a single account.
func (s *MemoryParentStore) FindOrCreate(ctx context.Context, username string) (*Parent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parent, ok := s.byUsername[username]; ok {
		return parent, nil
	}

	parent := &Parent{
		ID:          uuid.NewString(),
		Username:    username,
		Credentials: make([]*Credential, 0),
		CreatedAt:   time.Now().UTC(),
	}
	s.byID[parent.ID] = parent
	s.byUsername[username] = parent

	return parent, nil
}

// Save persists changes to an existing parent.
func (s *MemoryParentStore) Save(ctx context.Context, parent *Parent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[parent.ID]; !ok {
		return ErrParentNotFound
	}

	s.byID[parent.ID] = parent
	s.byUsername[parent.Username] = parent
	return nil
}

// Count returns the number of parents in the store.
func (s *MemoryParentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Clear removes all parents from the store.
func (s *MemoryParentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Parent)
	s.byUsername = make(map[string]*Parent)
}

// MemoryChildStore is an in-memory implementation of ChildStore.
// This is intended for development and testing only.
type MemoryChildStore struct {
	mu       sync.RWMutex
	byID     map[string]*Child
	byParent map[string][]*Child
}

// NewMemoryChildStore creates a new in-memory child store.
func NewMemoryChildStore() *MemoryChildStore {
	return &MemoryChildStore{
		byID:     make(map[string]*Child),
		byParent: make(map[string][]*Child),
	}
}

// GetByID retrieves a child by account identifier.
func (s *MemoryChildStore) GetByID(ctx context.Context, id string) (*Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	child, ok := s.byID[id]
	if !ok {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// Create persists a new child account. An ID is assigned if unset.
func (s *MemoryChildStore) Create(ctx context.Context, child *Child) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if child.ID == "" {
		child.ID = uuid.NewString()
	}
	if _, ok := s.byID[child.ID]; ok {
		return ErrChildAlreadyExists
	}
	if child.CreatedAt.IsZero() {
		child.CreatedAt = time.Now().UTC()
	}

	s.byID[child.ID] = child
	s.byParent[child.ParentID] = append(s.byParent[child.ParentID], child)
	return nil
}

// ListByParent returns all children belonging to a parent.
func (s *MemoryChildStore) ListByParent(ctx context.Context, parentID string) ([]*Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	children, ok := s.byParent[parentID]
	if !ok {
		return []*Child{}, nil
	}

	result := make([]*Child, len(children))
	copy(result, children)
	return result, nil
}

// Count returns the number of children in the store.
func (s *MemoryChildStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Clear removes all children from the store.
func (s *MemoryChildStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Child)
	s.byParent = make(map[string][]*Child)
}
