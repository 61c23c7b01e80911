// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package cache provides a thread-safe in-memory TTL cache used by the
// outbound Invintus client for player preferences (1 day) and is-live
// polls (1 minute).
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Entry is a cached item with its expiration.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once

	hits   int64
	misses int64
}

// New creates a cache with the given default TTL and starts a background
// cleanup loop. Call Stop when the cache is no longer needed.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, or (nil, false) if absent or
// expired. Expired entries are removed on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.Data, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Data: value, ExpiresAt: time.Now().Add(ttl)}
}

// Delete removes a single entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge removes all entries.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the number of entries, including not-yet-collected expired
// ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Stop terminates the background cleanup loop.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.ExpiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// GenerateKey derives a stable cache key from an endpoint name and its
// parameters.
func GenerateKey(endpoint string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return endpoint
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", endpoint, sum[:8])
}
