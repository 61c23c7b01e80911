// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("prefs", map[string]string{"color": "blue"})

	got, ok := c.Get("prefs")
	if !ok {
		t.Fatal("expected cache hit")
	}
	prefs, ok := got.(map[string]string)
	if !ok || prefs["color"] != "blue" {
		t.Errorf("unexpected cached value: %v", got)
	}
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.SetWithTTL("live", true, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("live"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on access, len = %d", c.Len())
	}
}

func TestPurge(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()

	if c.Len() != 0 {
		t.Errorf("purge left %d entries", c.Len())
	}
}

func TestStats(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("k", 1)
	c.Get("k")
	c.Get("absent")

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = (%d, %d), want (1, 1)", hits, misses)
	}
}

func TestGenerateKeyStable(t *testing.T) {
	a := GenerateKey("isLive", map[string]string{"event": "42"})
	b := GenerateKey("isLive", map[string]string{"event": "42"})
	if a != b {
		t.Errorf("keys differ for identical params: %q vs %q", a, b)
	}
	c := GenerateKey("isLive", map[string]string{"event": "43"})
	if a == c {
		t.Error("keys collide for different params")
	}
}
