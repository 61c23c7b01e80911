// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if !cfg.Webhook.LogPayloads {
		t.Error("payload logging should default to enabled")
	}
	if cfg.Webhook.LogRetentionDays != 90 {
		t.Errorf("default retention = %d, want 90", cfg.Webhook.LogRetentionDays)
	}
	if cfg.Invintus.PreferenceTTL != 24*time.Hour {
		t.Errorf("preference TTL = %s, want 24h", cfg.Invintus.PreferenceTTL)
	}
	if cfg.Invintus.IsLiveTTL != time.Minute {
		t.Errorf("is-live TTL = %s, want 1m", cfg.Invintus.IsLiveTTL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }},
		{"negative retention", func(c *Config) { c.Webhook.LogRetentionDays = -1 }},
		{"zero timeout", func(c *Config) { c.Invintus.Timeout = 0 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"INVSYNC_SERVER_PORT", "server.port"},
		{"INVSYNC_WEBHOOK_LOG_RETENTION_DAYS", "webhook.log_retention_days"},
		{"INVSYNC_DATABASE_PATH", "database.path"},
		{"INVSYNC_AUTH_JWT_SECRET", "auth.jwt_secret"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
webhook:
  secret: filesecret
  log_retention_days: 30
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("INVSYNC_WEBHOOK_SECRET", "envsecret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("file layer not applied: port = %d", cfg.Server.Port)
	}
	if cfg.Webhook.LogRetentionDays != 30 {
		t.Errorf("file layer not applied: retention = %d", cfg.Webhook.LogRetentionDays)
	}
	if cfg.Webhook.Secret != "envsecret" {
		t.Errorf("env should override file: secret = %q", cfg.Webhook.Secret)
	}
	// Defaults survive where neither layer sets a value.
	if cfg.Database.MaxMemory != "1GB" {
		t.Errorf("default not preserved: max_memory = %q", cfg.Database.MaxMemory)
	}
}

func TestLoadSplitsCommaSeparatedSlices(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("INVSYNC_WEBHOOK_LIVE_STATUSES", "streaming, rehearsal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Webhook.LiveStatuses) != 2 || cfg.Webhook.LiveStatuses[0] != "streaming" || cfg.Webhook.LiveStatuses[1] != "rehearsal" {
		t.Errorf("live_statuses = %v, want [streaming rehearsal]", cfg.Webhook.LiveStatuses)
	}
}
