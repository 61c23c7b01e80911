// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package config loads and validates service configuration with koanf,
// layering struct defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for Invintus Sync.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	Invintus InvintusConfig `koanf:"invintus"`
	Auth     AuthConfig     `koanf:"auth"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins; empty disables CORS.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitPerMinute caps requests per client IP on API routes.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// DatabaseConfig controls the DuckDB content store.
type DatabaseConfig struct {
	// Path to the database file. Empty uses an in-memory database
	// (tests only - data is lost on restart).
	Path string `koanf:"path"`

	MaxMemory string `koanf:"max_memory"`

	// Threads for DuckDB; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// LoggingConfig controls the zerolog facade.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// WebhookConfig controls the ingestion surface.
type WebhookConfig struct {
	// Secret enables HMAC-SHA256 signature verification of webhook
	// bodies when non-empty.
	Secret string `koanf:"secret"`

	// LogPayloads enables the inbound payload audit log. Can be
	// overridden at runtime by the persisted "can_log_payloads" setting.
	LogPayloads bool `koanf:"log_payloads"`

	// LogRetentionDays prunes audit rows older than this many days
	// before each ingestion. Zero or negative disables pruning.
	LogRetentionDays int `koanf:"log_retention_days"`

	// PublicFutureEvents controls whether future-state records are
	// externally visible.
	PublicFutureEvents bool `koanf:"public_future_events"`

	// Extra status classifications merged into the built-in sets, so
	// deployments can map vendor status strings without a code change.
	LiveStatuses    []string `koanf:"live_statuses"`
	FutureStatuses  []string `koanf:"future_statuses"`
	PublishStatuses []string `koanf:"publish_statuses"`
}

// InvintusConfig controls the outbound Invintus API client.
type InvintusConfig struct {
	APIURL    string        `koanf:"api_url"`
	ClientID  string        `koanf:"client_id"`
	APIKey    string        `koanf:"api_key"`
	Timeout   time.Duration `koanf:"timeout"`
	// PreferenceTTL caches player preferences; IsLiveTTL caches the
	// is-live poll.
	PreferenceTTL time.Duration `koanf:"preference_ttl"`
	IsLiveTTL     time.Duration `koanf:"is_live_ttl"`
}

// AuthConfig controls authentication of the management surface and the
// capability subject assigned to webhook deliveries.
type AuthConfig struct {
	// JWTSecret signs and verifies bearer tokens for management
	// endpoints. Required when management endpoints are exposed.
	JWTSecret string `koanf:"jwt_secret"`

	// WebhookRole is the casbin role the webhook principal acts under.
	WebhookRole string `koanf:"webhook_role"`
}

// Default returns a Config with production-ready defaults. These are
// applied first and then overridden by the config file and environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 300,
		},
		Database: DatabaseConfig{
			Path:      "/data/invintus-sync.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Webhook: WebhookConfig{
			LogPayloads:      true,
			LogRetentionDays: 90,
		},
		Invintus: InvintusConfig{
			APIURL:        "https://api.v3.invintus.com/v2",
			Timeout:       10 * time.Second,
			PreferenceTTL: 24 * time.Hour,
			IsLiveTTL:     time.Minute,
		},
		Auth: AuthConfig{
			WebhookRole: "publisher",
		},
	}
}

// Validate checks invariants that cannot be expressed in the type system.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" && c.Database.MaxMemory == "" {
		return fmt.Errorf("database.max_memory is required for in-memory databases")
	}
	if c.Webhook.LogRetentionDays < 0 {
		return fmt.Errorf("webhook.log_retention_days must not be negative, got %d", c.Webhook.LogRetentionDays)
	}
	if c.Invintus.Timeout <= 0 {
		return fmt.Errorf("invintus.timeout must be positive, got %s", c.Invintus.Timeout)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
