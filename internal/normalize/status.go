// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package normalize turns raw Invintus event payloads into canonical
// local records: status classification, slug derivation, body markup,
// and the time/visibility overrides that decide a record's lifecycle
// state.
package normalize

import (
	"github.com/TVWIT/invintus-sync/internal/models"
)

// Built-in status classifications. The vendor reports several distinct
// strings for an in-progress broadcast; they all collapse to live.
var (
	defaultLiveStatuses    = []string{"live", "onBreak", "disconnected", "break", "on break"}
	defaultFutureStatuses  = []string{"new", "available"}
	defaultPublishStatuses = []string{"published"}
)

// StatusMapper classifies remote eventStatus strings into lifecycle
// states. Matching is case-sensitive and exact; every input has exactly
// one output, with unknown values falling through to draft.
type StatusMapper struct {
	live    map[string]struct{}
	future  map[string]struct{}
	publish map[string]struct{}
}

// NewStatusMapper builds a mapper from the built-in classification sets
// plus any configured extensions. Extensions add to a set; they never
// shrink the built-ins.
func NewStatusMapper(extraLive, extraFuture, extraPublish []string) *StatusMapper {
	return &StatusMapper{
		live:    statusSet(defaultLiveStatuses, extraLive),
		future:  statusSet(defaultFutureStatuses, extraFuture),
		publish: statusSet(defaultPublishStatuses, extraPublish),
	}
}

func statusSet(base, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, s := range base {
		set[s] = struct{}{}
	}
	for _, s := range extra {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// Map returns the lifecycle state for a remote status string.
func (m *StatusMapper) Map(status string) models.LifecycleState {
	if _, ok := m.live[status]; ok {
		return models.StateLive
	}
	if _, ok := m.future[status]; ok {
		return models.StateFuture
	}
	if _, ok := m.publish[status]; ok {
		return models.StatePublish
	}
	return models.StateDraft
}
