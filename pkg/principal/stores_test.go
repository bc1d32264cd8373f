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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryParentStore_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryParentStore()

	parent, err := store.FindOrCreate(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, parent.ID)
	assert.Equal(t, "alice@example.com", parent.Username)

	// Second call returns the same account
	again, err := store.FindOrCreate(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, parent.ID, again.ID)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryParentStore_FindOrCreate_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryParentStore()

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			parent, err := store.FindOrCreate(ctx, "alice@example.com")
			require.NoError(t, err)
			ids[i] = parent.ID
		}(i)
	}
	wg.Wait()

	// All goroutines must observe a single account
	assert.Equal(t, 1, store.Count())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestMemoryParentStore_Lookups(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryParentStore()

	_, err := store.GetByUsername(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrParentNotFound)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrParentNotFound)

	parent, err := store.FindOrCreate(ctx, "alice@example.com")
	require.NoError(t, err)

	byName, err := store.GetByUsername(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, parent.ID, byName.ID)

	byID, err := store.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Username)
}

func TestMemoryParentStore_Save(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryParentStore()

	err := store.Save(ctx, &Parent{ID: "unknown", Username: "ghost"})
	assert.ErrorIs(t, err, ErrParentNotFound)

	parent, err := store.FindOrCreate(ctx, "alice@example.com")
	require.NoError(t, err)

	parent.AddCredential(&Credential{CredentialID: "abc"})
	require.NoError(t, store.Save(ctx, parent))

	saved, err := store.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Credentials, 1)
}

func TestMemoryChildStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChildStore()

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrChildNotFound)

	child := &Child{ParentID: "parent-1", Name: "Sam", Age: 8}
	require.NoError(t, store.Create(ctx, child))
	require.NotEmpty(t, child.ID)
	assert.False(t, child.CreatedAt.IsZero())

	// Duplicate IDs are rejected
	err = store.Create(ctx, &Child{ID: child.ID, ParentID: "parent-1", Name: "Sam"})
	assert.ErrorIs(t, err, ErrChildAlreadyExists)

	sibling := &Child{ParentID: "parent-1", Name: "Jo", Age: 10}
	require.NoError(t, store.Create(ctx, sibling))

	children, err := store.ListByParent(ctx, "parent-1")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	none, err := store.ListByParent(ctx, "parent-2")
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := store.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", got.Name)
}
