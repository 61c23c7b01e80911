// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package authz answers capability checks with Casbin RBAC. Webhook
// deliveries act as the configured webhook role after signature
// verification; management calls act as the role carried in their JWT.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/TVWIT/invintus-sync/internal/cache"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ObjectContent is the policy object for record mutations. The
// capability names match what the reconcile engine asks for.
const ObjectContent = "content"

// Config holds configuration for the enforcer.
type Config struct {
	// ModelPath overrides the embedded Casbin model when set and
	// present on disk.
	ModelPath string

	// PolicyPath overrides the embedded policy when set and present
	// on disk.
	PolicyPath string

	// DefaultRole is the subject used when the context carries none.
	DefaultRole string

	// CacheTTL is how long enforcement decisions are cached. Zero
	// disables caching.
	CacheTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultRole: "publisher",
		CacheTTL:    5 * time.Minute,
	}
}

// Enforcer wraps a Casbin enforcer with decision caching and the
// context-based Can check the reconcile engine consumes.
type Enforcer struct {
	config   *Config
	enforcer *casbin.SyncedEnforcer
	cache    *cache.Cache
}

// NewEnforcer creates an enforcer from the embedded model and policy,
// or from the configured file paths when they exist.
func NewEnforcer(config *Config) (*Enforcer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var m model.Model
	var err error
	if config.ModelPath != "" && fileExists(config.ModelPath) {
		m, err = model.NewModelFromFile(config.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if config.PolicyPath != "" && fileExists(config.PolicyPath) {
		adapter := fileadapter.NewAdapter(config.PolicyPath)
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{
		config:   config,
		enforcer: enforcer,
	}
	if config.CacheTTL > 0 {
		e.cache = cache.New(config.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) >= 4 {
				if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
					return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
				}
			}
		case "g":
			if len(parts) >= 3 {
				if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
					return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
				}
			}
		}
	}
	return nil
}

// Enforce checks whether the subject can perform the action on the
// object, consulting the decision cache first.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	key := subject + ":" + object + ":" + action
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if allowed, ok := cached.(bool); ok {
				return allowed, nil
			}
		}
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.Set(key, allowed)
	}
	return allowed, nil
}

// Can reports whether the acting principal holds a content capability.
// The subject is the role in the context, falling back to the
// configured default role. Implements the reconcile engine's
// Authorizer.
func (e *Enforcer) Can(ctx context.Context, capability string) (bool, error) {
	role := RoleFromContext(ctx)
	if role == "" {
		role = e.config.DefaultRole
	}
	if role == "" {
		return false, nil
	}
	return e.Enforce(role, ObjectContent, capability)
}

// AddPolicy adds a policy rule at runtime.
func (e *Enforcer) AddPolicy(subject, object, action string) (bool, error) {
	added, err := e.enforcer.AddPolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("failed to add policy: %w", err)
	}
	if e.cache != nil {
		e.cache.Purge()
	}
	return added, nil
}

// RemovePolicy removes a policy rule at runtime.
func (e *Enforcer) RemovePolicy(subject, object, action string) (bool, error) {
	removed, err := e.enforcer.RemovePolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("failed to remove policy: %w", err)
	}
	if e.cache != nil {
		e.cache.Purge()
	}
	return removed, nil
}

// Close releases the enforcer's resources.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.Stop()
	}
}

// roleContextKey carries the acting role through a request context.
type roleContextKey struct{}

// ContextWithRole returns a context carrying the acting role.
func ContextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext returns the acting role, or empty when none is set.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleContextKey{}).(string); ok {
		return role
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
