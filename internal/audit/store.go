// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	entries []Entry
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		entries: make([]Entry, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Save persists an audit entry.
func (s *MemoryStore) Save(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Enforce max length by removing the oldest 10%
	if len(s.entries) >= s.maxLen {
		removeCount := s.maxLen / 10
		if removeCount == 0 {
			removeCount = 1
		}
		s.entries = s.entries[removeCount:]
	}

	s.entries = append(s.entries, *entry)
	return nil
}

// Query retrieves entries matching the filter.
func (s *MemoryStore) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Entry
	skipped := 0

	appendMatch := func(entry Entry) bool {
		if !matchesFilter(&entry, &filter) {
			return false
		}
		if skipped < filter.Offset {
			skipped++
			return false
		}
		results = append(results, entry)
		return filter.Limit > 0 && len(results) >= filter.Limit
	}

	if filter.OrderDesc {
		for i := len(s.entries) - 1; i >= 0; i-- {
			if appendMatch(s.entries[i]) {
				break
			}
		}
	} else {
		for i := range s.entries {
			if appendMatch(s.entries[i]) {
				break
			}
		}
	}

	return results, nil
}

// matchesFilter returns true if the entry matches all filter criteria.
func matchesFilter(entry *Entry, filter *QueryFilter) bool {
	if filter.EventID != 0 && entry.EventID != filter.EventID {
		return false
	}
	if filter.Action != "" && entry.Action != filter.Action {
		return false
	}
	if filter.StartTime != nil && entry.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && entry.Timestamp.After(*filter.EndTime) {
		return false
	}
	return true
}

// Count returns the number of entries matching the filter.
func (s *MemoryStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.entries {
		if matchesFilter(&s.entries[i], &filter) {
			count++
		}
	}

	return count, nil
}

// DeleteOlderThan removes entries recorded before the given time.
func (s *MemoryStore) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []Entry
	var deleted int64

	for idx := range s.entries {
		if s.entries[idx].Timestamp.Before(olderThan) {
			deleted++
		} else {
			kept = append(kept, s.entries[idx])
		}
	}

	s.entries = kept
	return deleted, nil
}

// Clear removes all entries (for testing).
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Len returns the number of entries in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
