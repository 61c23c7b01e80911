// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TVWIT/invintus-sync/internal/authz"
)

const testSecret = "test-secret-at-least-32-characters-long"

func TestGenerateAndValidateToken(t *testing.T) {
	manager, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	token, err := manager.GenerateToken("ops", "admin")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	manager, _ := NewJWTManager(testSecret, time.Hour)
	other, _ := NewJWTManager("another-secret-also-32-characters!!", time.Hour)

	token, err := other.GenerateToken("ops", "admin")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager, _ := NewJWTManager(testSecret, time.Hour)
	manager.timeout = -time.Minute

	token, err := manager.GenerateToken("ops", "admin")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Error("empty secret must be rejected")
	}
}

func TestRequireJWTMiddleware(t *testing.T) {
	manager, _ := NewJWTManager(testSecret, time.Hour)

	var gotRole string
	handler := RequireJWT(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = authz.RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token passes and carries role", func(t *testing.T) {
		token, _ := manager.GenerateToken("ops", "admin")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
		if gotRole != "admin" {
			t.Errorf("role in context = %q", gotRole)
		}
	})

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
