// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package authz

import (
	"context"
	"testing"
	"time"

	"github.com/TVWIT/invintus-sync/internal/reconcile"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(&Config{DefaultRole: "publisher", CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforceEmbeddedPolicy(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		subject string
		object  string
		action  string
		want    bool
	}{
		{"publisher", "content", "edit_content", true},
		{"publisher", "content", "delete_content", true},
		{"editor", "content", "edit_content", true},
		{"editor", "content", "delete_content", false},
		{"viewer", "content", "edit_content", false},
		{"admin", "content", "edit_content", true}, // inherited from publisher
		{"admin", "settings", "write", true},
		{"publisher", "settings", "write", false},
		{"stranger", "content", "edit_content", false},
	}

	for _, tt := range tests {
		t.Run(tt.subject+" "+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.subject, tt.object, tt.action)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.subject, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestCanUsesContextRole(t *testing.T) {
	e := newTestEnforcer(t)

	viewer := ContextWithRole(context.Background(), "viewer")
	allowed, err := e.Can(viewer, reconcile.CapabilityEditContent)
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Error("viewer must not edit content")
	}

	admin := ContextWithRole(context.Background(), "admin")
	allowed, err = e.Can(admin, reconcile.CapabilityDeleteContent)
	if err != nil {
		t.Fatal(err)
	}
	if !allowed {
		t.Error("admin should delete content via publisher inheritance")
	}
}

func TestCanFallsBackToDefaultRole(t *testing.T) {
	e := newTestEnforcer(t)

	allowed, err := e.Can(context.Background(), reconcile.CapabilityEditContent)
	if err != nil {
		t.Fatal(err)
	}
	if !allowed {
		t.Error("default publisher role should edit content")
	}
}

func TestCanWithNoRoleAtAll(t *testing.T) {
	e, err := NewEnforcer(&Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	allowed, err := e.Can(context.Background(), reconcile.CapabilityEditContent)
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Error("no role and no default must deny")
	}
}

func TestRuntimePolicyChangesInvalidateCache(t *testing.T) {
	e := newTestEnforcer(t)

	// Prime the cache with a denial.
	allowed, err := e.Enforce("viewer", "content", "edit_content")
	if err != nil || allowed {
		t.Fatalf("precondition failed: allowed=%v err=%v", allowed, err)
	}

	if _, err := e.AddPolicy("viewer", "content", "edit_content"); err != nil {
		t.Fatal(err)
	}
	allowed, err = e.Enforce("viewer", "content", "edit_content")
	if err != nil {
		t.Fatal(err)
	}
	if !allowed {
		t.Error("added policy should take effect immediately")
	}

	if _, err := e.RemovePolicy("viewer", "content", "edit_content"); err != nil {
		t.Fatal(err)
	}
	allowed, err = e.Enforce("viewer", "content", "edit_content")
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Error("removed policy should take effect immediately")
	}
}

func TestRoleContextRoundTrip(t *testing.T) {
	ctx := ContextWithRole(context.Background(), "admin")
	if got := RoleFromContext(ctx); got != "admin" {
		t.Errorf("RoleFromContext = %q", got)
	}
	if got := RoleFromContext(context.Background()); got != "" {
		t.Errorf("empty context should carry no role, got %q", got)
	}
}
