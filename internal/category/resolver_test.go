// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package category

import (
	"context"
	"fmt"
	"testing"

	"github.com/TVWIT/invintus-sync/internal/database"
	"github.com/TVWIT/invintus-sync/internal/models"
)

// memStore is an in-memory Store for resolver tests.
type memStore struct {
	nodes  map[string]*models.CategoryNode
	nextID int
}

func newMemStore() *memStore {
	return &memStore{nodes: make(map[string]*models.CategoryNode)}
}

func (s *memStore) GetCategoryByRemoteID(_ context.Context, remoteID int64) (*models.CategoryNode, error) {
	for _, n := range s.nodes {
		if n.RemoteCategoryID == remoteID {
			copied := *n
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) GetCategoryByName(_ context.Context, name string) (*models.CategoryNode, error) {
	for _, n := range s.nodes {
		if n.Name == name {
			copied := *n
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) InsertCategory(_ context.Context, node *models.CategoryNode) error {
	s.nextID++
	node.ID = fmt.Sprintf("cat-%d", s.nextID)
	copied := *node
	s.nodes[node.ID] = &copied
	return nil
}

func (s *memStore) UpdateCategory(_ context.Context, node *models.CategoryNode) error {
	if _, ok := s.nodes[node.ID]; !ok {
		return database.ErrNotFound
	}
	copied := *node
	s.nodes[node.ID] = &copied
	return nil
}

func TestResolveCreatesNewNodes(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)

	ids, err := resolver.Resolve(context.Background(), []models.RemoteCategory{
		{CategoryID: 1, CategoryName: "News", CategoryDescription: "news desk"},
		{CategoryID: 2, CategoryName: "Hearings"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 IDs, got %v", ids)
	}
	if len(store.nodes) != 2 {
		t.Errorf("expected 2 nodes created, got %d", len(store.nodes))
	}

	node := store.nodes[ids[0]]
	if node.Name != "News" || node.Slug != "news" || node.Description != "news desk" {
		t.Errorf("unexpected node: %+v", node)
	}
}

func TestResolveIsIdempotentByRemoteID(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)
	ctx := context.Background()
	descriptors := []models.RemoteCategory{{CategoryID: 1, CategoryName: "News"}}

	first, err := resolver.Resolve(ctx, descriptors)
	if err != nil {
		t.Fatal(err)
	}
	second, err := resolver.Resolve(ctx, descriptors)
	if err != nil {
		t.Fatal(err)
	}

	if first[0] != second[0] {
		t.Errorf("same remote ID produced different nodes: %s vs %s", first[0], second[0])
	}
	if len(store.nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(store.nodes))
	}
}

func TestResolveUpdatesExistingNode(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	ids, err := resolver.Resolve(ctx, []models.RemoteCategory{{CategoryID: 1, CategoryName: "News"}})
	if err != nil {
		t.Fatal(err)
	}

	_, err = resolver.Resolve(ctx, []models.RemoteCategory{
		{CategoryID: 1, CategoryName: "Newsroom", CategoryDescription: "renamed"},
	})
	if err != nil {
		t.Fatal(err)
	}

	node := store.nodes[ids[0]]
	if node.Name != "Newsroom" || node.Description != "renamed" {
		t.Errorf("node not updated: %+v", node)
	}
}

func TestResolveAdoptsNodeByNameMatch(t *testing.T) {
	store := newMemStore()
	// Pre-existing node created by other means, without a remote ID.
	preexisting := &models.CategoryNode{Name: "Hearings", Slug: "hearings"}
	if err := store.InsertCategory(context.Background(), preexisting); err != nil {
		t.Fatal(err)
	}

	resolver := NewResolver(store)
	ids, err := resolver.Resolve(context.Background(), []models.RemoteCategory{
		{CategoryID: 9, CategoryName: "Hearings"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if ids[0] != preexisting.ID {
		t.Errorf("should adopt existing node %s, got %s", preexisting.ID, ids[0])
	}
	if store.nodes[preexisting.ID].RemoteCategoryID != 9 {
		t.Errorf("remote ID not attached: %+v", store.nodes[preexisting.ID])
	}
	if len(store.nodes) != 1 {
		t.Errorf("adoption must not create a second node")
	}
}

func TestResolveParentFromSameBatch(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)

	ids, err := resolver.Resolve(context.Background(), []models.RemoteCategory{
		{CategoryID: 1, CategoryName: "Government"},
		{CategoryID: 2, CategoryName: "Senate", ChildOf: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	child := store.nodes[ids[1]]
	if child.ParentID == nil || *child.ParentID != ids[0] {
		t.Errorf("child not linked to batch parent: %+v", child)
	}
}

func TestResolveUnknownParentStaysTopLevel(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)

	ids, err := resolver.Resolve(context.Background(), []models.RemoteCategory{
		{CategoryID: 2, CategoryName: "Senate", ChildOf: 99},
	})
	if err != nil {
		t.Fatalf("unknown parent must not fail resolution: %v", err)
	}

	node := store.nodes[ids[0]]
	if node.ParentID != nil {
		t.Errorf("node should stay top-level: %+v", node)
	}
}

func TestResolveEmptyBatch(t *testing.T) {
	resolver := NewResolver(newMemStore())
	ids, err := resolver.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ids != nil {
		t.Errorf("expected nil, got %v", ids)
	}
}
