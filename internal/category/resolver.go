// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package category reconciles remote taxonomy descriptors against the
// local category tree. Nodes are keyed by remote category ID, deduped
// by name as a fallback, and never deleted.
package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/TVWIT/invintus-sync/internal/database"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/metrics"
	"github.com/TVWIT/invintus-sync/internal/models"
	"github.com/TVWIT/invintus-sync/internal/normalize"
)

// Store is the taxonomy persistence surface the resolver needs.
// Satisfied by *database.DB.
type Store interface {
	GetCategoryByRemoteID(ctx context.Context, remoteID int64) (*models.CategoryNode, error)
	GetCategoryByName(ctx context.Context, name string) (*models.CategoryNode, error)
	InsertCategory(ctx context.Context, node *models.CategoryNode) error
	UpdateCategory(ctx context.Context, node *models.CategoryNode) error
}

// Resolver maps remote category descriptors to local taxonomy node IDs,
// creating or updating nodes as needed.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve processes descriptors in input order and returns the local
// node ID for each. Order matters: a descriptor referencing a parent
// earlier in the same batch sees that parent already persisted. A
// parent reference that resolves to nothing leaves the node top-level
// with a warning; it is never guessed.
func (r *Resolver) Resolve(ctx context.Context, descriptors []models.RemoteCategory) ([]string, error) {
	if len(descriptors) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(descriptors))
	for i := range descriptors {
		id, err := r.resolveOne(ctx, &descriptors[i])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %d: %w", descriptors[i].CategoryID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveOne resolves a single descriptor to a local node ID.
func (r *Resolver) resolveOne(ctx context.Context, desc *models.RemoteCategory) (string, error) {
	parentID, err := r.resolveParent(ctx, desc)
	if err != nil {
		return "", err
	}

	// Primary lookup by remote ID, then by exact name for taxonomy
	// created by other means.
	node, err := r.store.GetCategoryByRemoteID(ctx, desc.CategoryID)
	if errors.Is(err, database.ErrNotFound) {
		node, err = r.store.GetCategoryByName(ctx, desc.CategoryName)
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", err
	}

	if node != nil {
		node.RemoteCategoryID = desc.CategoryID
		node.Name = desc.CategoryName
		node.Description = desc.CategoryDescription
		node.ParentID = parentID
		if err := r.store.UpdateCategory(ctx, node); err != nil {
			return "", err
		}
		return node.ID, nil
	}

	node = &models.CategoryNode{
		RemoteCategoryID: desc.CategoryID,
		Name:             desc.CategoryName,
		Slug:             normalize.Slugify(desc.CategoryName),
		Description:      desc.CategoryDescription,
		ParentID:         parentID,
	}
	if err := r.store.InsertCategory(ctx, node); err != nil {
		return "", err
	}

	metrics.CategoryNodesCreated.Inc()
	logging.Debug().Int64("remote_category_id", desc.CategoryID).Str("name", desc.CategoryName).
		Msg("Created taxonomy node")
	return node.ID, nil
}

// resolveParent looks up the local ID for a childOf reference. The
// batch order invariant means the parent was resolved earlier in this
// batch or persisted by an earlier delivery.
func (r *Resolver) resolveParent(ctx context.Context, desc *models.RemoteCategory) (*string, error) {
	if desc.ChildOf == 0 {
		return nil, nil
	}

	parent, err := r.store.GetCategoryByRemoteID(ctx, desc.ChildOf)
	if errors.Is(err, database.ErrNotFound) {
		logging.Warn().Int64("remote_category_id", desc.CategoryID).Int64("child_of", desc.ChildOf).
			Msg("Parent category not yet known, keeping node top-level")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parent.ID, nil
}
