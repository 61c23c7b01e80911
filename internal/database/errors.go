// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package database

import "errors"

// ErrNotFound indicates a single-row lookup matched nothing.
var ErrNotFound = errors.New("not found")
