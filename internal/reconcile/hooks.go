// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package reconcile

import (
	"context"

	"github.com/TVWIT/invintus-sync/internal/models"
)

// Op identifies the mutation the engine performed.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpNoop   Op = "noop"
)

// BeforeSaveHook runs before a record is inserted or updated. A non-nil
// error aborts the operation before any mutation.
type BeforeSaveHook func(ctx context.Context, record *models.LocalRecord, op Op) error

// AfterSaveHook runs after a mutation has been persisted. Hooks are
// notification-only; they cannot fail the operation.
type AfterSaveHook func(ctx context.Context, record *models.LocalRecord, op Op)
